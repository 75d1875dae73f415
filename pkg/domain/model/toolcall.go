package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/docufy-dev/docufy/pkg/domain/types"
)

// ToolCallID is a UUID-based identifier for a tool call within a turn
type ToolCallID string

// NewToolCallID generates a new UUID v4 ToolCallID
func NewToolCallID() ToolCallID {
	return ToolCallID(uuid.New().String())
}

// ApprovalID identifies one approval decision for one tool call
type ApprovalID string

// NewApprovalID generates a new UUID v4 ApprovalID
func NewApprovalID() ApprovalID {
	return ApprovalID(uuid.New().String())
}

// Approval is the human decision record attached to an approval-gated
// tool call. Approved stays nil until the user responds; once set the
// decision is final for this approval id.
type Approval struct {
	ID        ApprovalID `json:"id"`
	Approved  *bool      `json:"approved,omitempty"`
	DecidedAt time.Time  `json:"decided_at,omitzero"`
	Reason    string     `json:"reason,omitempty"` // e.g. "expired" for timeout auto-denial
}

// Decided reports whether a decision has been recorded
func (a *Approval) Decided() bool {
	return a != nil && a.Approved != nil
}

// IsApproved reports whether the call was explicitly approved
func (a *Approval) IsApproved() bool {
	return a.Decided() && *a.Approved
}

// ToolCall is the conversation-scoped record of a single tool
// invocation requested by the assistant. It becomes inert once the
// turn completes.
type ToolCall struct {
	ID        ToolCallID          `json:"id"`
	Name      string              `json:"name"`
	Arguments string              `json:"arguments"` // serialized JSON, parsed lazily by the UI
	State     types.ToolCallState `json:"state"`
	Approval  *Approval           `json:"approval,omitempty"`
	Output    map[string]any      `json:"output,omitempty"`
}

// NewToolCall creates a tool call record in its initial state
func NewToolCall(name, arguments string) *ToolCall {
	return &ToolCall{
		ID:        NewToolCallID(),
		Name:      name,
		Arguments: arguments,
		State:     types.ToolCallStateAwaitingInput,
	}
}

// Transition advances the call to the given state. Backward transitions
// are ignored so repeated reports of the same progress are harmless.
func (c *ToolCall) Transition(next types.ToolCallState) bool {
	if !c.State.CanTransitionTo(next) {
		return false
	}
	c.State = next
	return true
}
