package usecase

import (
	"github.com/m-mizutani/gollem"

	"github.com/docufy-dev/docufy/pkg/agent/approval"
)

// NewStreamToolForTest wraps a tool with the chat call lifecycle for
// testing purposes
func NewStreamToolForTest(inner gollem.Tool, broker *approval.Broker, sink PartSink) gollem.Tool {
	return &streamTool{inner: inner, broker: broker, sink: sink}
}
