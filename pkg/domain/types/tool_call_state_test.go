package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/docufy-dev/docufy/pkg/domain/types"
)

func TestToolCallState_IsValid(t *testing.T) {
	for _, state := range types.AllToolCallStates() {
		gt.Bool(t, state.IsValid()).True()
	}
	gt.Bool(t, types.ToolCallState("unknown").IsValid()).False()
	gt.Bool(t, types.ToolCallState("").IsValid()).False()
}

func TestToolCallState_IsTerminal(t *testing.T) {
	gt.Bool(t, types.ToolCallStateResultDelivered.IsTerminal()).True()
	gt.Bool(t, types.ToolCallStateExecuting.IsTerminal()).False()
	gt.Bool(t, types.ToolCallStateAwaitingInput.IsTerminal()).False()
}

func TestParseToolCallState(t *testing.T) {
	state, err := types.ParseToolCallState("approval-requested")
	gt.NoError(t, err).Required()
	gt.Value(t, state).Equal(types.ToolCallStateApprovalRequested)

	_, err = types.ParseToolCallState("bogus")
	gt.Error(t, err)
}

func TestToolCallState_CanTransitionTo(t *testing.T) {
	t.Run("forward transitions allowed", func(t *testing.T) {
		all := types.AllToolCallStates()
		for i, from := range all {
			for _, to := range all[i+1:] {
				gt.Bool(t, from.CanTransitionTo(to)).True()
			}
		}
	})

	t.Run("approval states are skippable", func(t *testing.T) {
		gt.Bool(t, types.ToolCallStateInputComplete.CanTransitionTo(types.ToolCallStateExecuting)).True()
	})

	t.Run("backward transitions rejected", func(t *testing.T) {
		gt.Bool(t, types.ToolCallStateExecuting.CanTransitionTo(types.ToolCallStateInputComplete)).False()
		gt.Bool(t, types.ToolCallStateResultDelivered.CanTransitionTo(types.ToolCallStateAwaitingInput)).False()
	})

	t.Run("self transitions rejected", func(t *testing.T) {
		gt.Bool(t, types.ToolCallStateExecuting.CanTransitionTo(types.ToolCallStateExecuting)).False()
	})

	t.Run("unknown states rejected", func(t *testing.T) {
		gt.Bool(t, types.ToolCallState("bogus").CanTransitionTo(types.ToolCallStateExecuting)).False()
		gt.Bool(t, types.ToolCallStateExecuting.CanTransitionTo(types.ToolCallState("bogus"))).False()
	})
}
