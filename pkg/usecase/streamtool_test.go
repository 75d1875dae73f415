package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"

	"github.com/docufy-dev/docufy/pkg/agent/approval"
	"github.com/docufy-dev/docufy/pkg/domain/model"
	"github.com/docufy-dev/docufy/pkg/domain/types"
	"github.com/docufy-dev/docufy/pkg/usecase"
)

// recordingTool counts executions so tests can assert the approval gate
// blocked or allowed the inner tool
type recordingTool struct {
	name string
	runs int
	err  error
}

func (t *recordingTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        t.name,
		Description: "test tool",
		Parameters:  map[string]*gollem.Parameter{},
	}
}

func (t *recordingTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	t.runs++
	if t.err != nil {
		return nil, t.err
	}
	return map[string]any{"ok": true}, nil
}

func lastToolCallPart(parts []*usecase.Part) *model.ToolCall {
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i].ToolCall != nil {
			return parts[i].ToolCall
		}
	}
	return nil
}

func TestStreamTool_ReadOnlyToolSkipsApproval(t *testing.T) {
	b := approval.New()
	inner := &recordingTool{name: "search_pages"}
	collector := &partCollector{}

	wrapped := usecase.NewStreamToolForTest(inner, b, collector.sink)

	result, err := wrapped.Run(context.Background(), map[string]any{"query": "beta"})
	gt.NoError(t, err)
	gt.Value(t, result["ok"]).Equal(true)
	gt.Number(t, inner.runs).Equal(1)

	gt.Array(t, collector.byType(usecase.PartTypeApprovalRequest)).Length(0)
	call := lastToolCallPart(collector.parts)
	gt.Value(t, call).NotEqual(nil)
	gt.Value(t, call.State).Equal(types.ToolCallStateResultDelivered)
	gt.Value(t, call.Output["ok"]).Equal(true)
}

func TestStreamTool_ApprovedToolRuns(t *testing.T) {
	b := approval.New()
	inner := &recordingTool{name: "rename_page"}
	collector := &partCollector{}

	wrapped := usecase.NewStreamToolForTest(inner, b, func(ctx context.Context, part *usecase.Part) {
		collector.sink(ctx, part)
		if part.Type == usecase.PartTypeApprovalRequest {
			// User approves as soon as the request surfaces
			gt.Bool(t, b.Resolve(part.Approval.ID, true, "")).True()
		}
	})

	result, err := wrapped.Run(context.Background(), map[string]any{"title": "New title"})
	gt.NoError(t, err)
	gt.Value(t, result["ok"]).Equal(true)
	gt.Number(t, inner.runs).Equal(1)

	approvals := collector.byType(usecase.PartTypeApprovalRequest)
	gt.Array(t, approvals).Length(1).Required()
	gt.Value(t, approvals[0].Approval.Prompt).Equal(`Rename the page to "New title"?`)

	call := lastToolCallPart(collector.parts)
	gt.Value(t, call.State).Equal(types.ToolCallStateResultDelivered)
	gt.Bool(t, call.Approval.IsApproved()).True()
}

func TestStreamTool_DeniedToolNeverRuns(t *testing.T) {
	b := approval.New()
	inner := &recordingTool{name: "save_memory_fact"}
	collector := &partCollector{}

	wrapped := usecase.NewStreamToolForTest(inner, b, func(ctx context.Context, part *usecase.Part) {
		collector.sink(ctx, part)
		if part.Type == usecase.PartTypeApprovalRequest {
			gt.Bool(t, b.Resolve(part.Approval.ID, false, "")).True()
		}
	})

	// Denial is a structured outcome, not an error: the assistant sees
	// it and can explain instead of retrying.
	result, err := wrapped.Run(context.Background(), map[string]any{"fact": "User likes tea"})
	gt.NoError(t, err)
	gt.Value(t, result["denied"]).Equal(true)
	gt.Value(t, result["reason"]).Equal("denied by user")
	gt.Number(t, inner.runs).Equal(0)

	call := lastToolCallPart(collector.parts)
	gt.Value(t, call.State).Equal(types.ToolCallStateResultDelivered)
	gt.Bool(t, call.Approval.Decided()).True()
	gt.Bool(t, call.Approval.IsApproved()).False()
}

func TestStreamTool_ExpiredApprovalDenies(t *testing.T) {
	b := approval.New(approval.WithTimeout(20 * time.Millisecond))
	inner := &recordingTool{name: "update_page"}
	collector := &partCollector{}

	wrapped := usecase.NewStreamToolForTest(inner, b, collector.sink)

	result, err := wrapped.Run(context.Background(), map[string]any{})
	gt.NoError(t, err)
	gt.Value(t, result["denied"]).Equal(true)
	gt.Value(t, result["reason"]).Equal(approval.ReasonExpired)
	gt.Number(t, inner.runs).Equal(0)
}

func TestStreamTool_ToolErrorBecomesStructuredResult(t *testing.T) {
	b := approval.New()
	inner := &recordingTool{name: "get_page", err: context.DeadlineExceeded}
	collector := &partCollector{}

	wrapped := usecase.NewStreamToolForTest(inner, b, collector.sink)

	_, err := wrapped.Run(context.Background(), map[string]any{"pageId": "p1"})
	gt.Error(t, err)

	call := lastToolCallPart(collector.parts)
	gt.Value(t, call.State).Equal(types.ToolCallStateResultDelivered)
	gt.Value(t, call.Output["error"]).Equal(context.DeadlineExceeded.Error())
}
