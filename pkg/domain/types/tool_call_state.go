package types

import "fmt"

// ToolCallState represents the lifecycle state of a single tool call
// within an assistant turn.
type ToolCallState string

const (
	ToolCallStateAwaitingInput     ToolCallState = "awaiting-input"
	ToolCallStateInputStreaming    ToolCallState = "input-streaming"
	ToolCallStateInputComplete     ToolCallState = "input-complete"
	ToolCallStateApprovalRequested ToolCallState = "approval-requested"
	ToolCallStateApprovalResponded ToolCallState = "approval-responded"
	ToolCallStateExecuting         ToolCallState = "executing"
	ToolCallStateResultDelivered   ToolCallState = "result-delivered"
)

// AllToolCallStates returns all valid tool call states in lifecycle order
func AllToolCallStates() []ToolCallState {
	return []ToolCallState{
		ToolCallStateAwaitingInput,
		ToolCallStateInputStreaming,
		ToolCallStateInputComplete,
		ToolCallStateApprovalRequested,
		ToolCallStateApprovalResponded,
		ToolCallStateExecuting,
		ToolCallStateResultDelivered,
	}
}

// IsValid checks if the tool call state is valid
func (s ToolCallState) IsValid() bool {
	switch s {
	case ToolCallStateAwaitingInput,
		ToolCallStateInputStreaming,
		ToolCallStateInputComplete,
		ToolCallStateApprovalRequested,
		ToolCallStateApprovalResponded,
		ToolCallStateExecuting,
		ToolCallStateResultDelivered:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the state ends the call's lifecycle
func (s ToolCallState) IsTerminal() bool {
	return s == ToolCallStateResultDelivered
}

// String returns the string representation of the tool call state
func (s ToolCallState) String() string {
	return string(s)
}

// ParseToolCallState parses a string into a ToolCallState
func ParseToolCallState(s string) (ToolCallState, error) {
	state := ToolCallState(s)
	if !state.IsValid() {
		return "", fmt.Errorf("invalid tool call state: %s", s)
	}
	return state, nil
}

// toolCallStateOrder maps states to their position in the lifecycle.
// Approval states are optional; a call may jump from input-complete to
// executing when the tool needs no approval.
var toolCallStateOrder = map[ToolCallState]int{
	ToolCallStateAwaitingInput:     0,
	ToolCallStateInputStreaming:    1,
	ToolCallStateInputComplete:     2,
	ToolCallStateApprovalRequested: 3,
	ToolCallStateApprovalResponded: 4,
	ToolCallStateExecuting:         5,
	ToolCallStateResultDelivered:   6,
}

// CanTransitionTo reports whether moving from s to next is a forward
// transition in the lifecycle. States never move backwards.
func (s ToolCallState) CanTransitionTo(next ToolCallState) bool {
	from, ok := toolCallStateOrder[s]
	if !ok {
		return false
	}
	to, ok := toolCallStateOrder[next]
	if !ok {
		return false
	}
	return to > from
}
