package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/docufy-dev/docufy/pkg/agent/tool"
	"github.com/docufy-dev/docufy/pkg/domain/model"
)

// saveMemoryFactTool persists a durable fact about the current user
// (approval-gated)
type saveMemoryFactTool struct {
	memory      MemoryWriter
	workspaceID string
	userID      string
}

func (t *saveMemoryFactTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "save_memory_fact",
		Description: "Save a short durable fact about the user to personalize future conversations. Requires user approval before execution",
		Parameters: map[string]*gollem.Parameter{
			"fact": {
				Type:        gollem.TypeString,
				Description: "The fact to remember, stated in third person (e.g. \"Prefers concise answers\")",
				Required:    true,
			},
		},
	}
}

func (t *saveMemoryFactTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	fact, _ := args["fact"].(string)
	fact = strings.TrimSpace(fact)
	if fact == "" {
		return nil, fmt.Errorf("fact is required")
	}
	if len(fact) > model.MaxFactLength {
		return nil, fmt.Errorf("fact exceeds %d characters", model.MaxFactLength)
	}

	tool.Update(ctx, "Saving memory...")

	saved, created, err := t.memory.SaveFact(ctx, t.workspaceID, t.userID, fact, "")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to save memory fact",
			goerr.V("workspaceID", t.workspaceID),
			goerr.V("userID", t.userID),
		)
	}

	return map[string]any{
		"factId":  string(saved.ID),
		"fact":    saved.Content,
		"created": created,
	}, nil
}
