package tool

import (
	"fmt"
	"strings"
)

// approvalRequired is the set of tools that must not execute without an
// explicit user decision. Read-only tools execute immediately; anything
// that mutates a page or writes to the user's memory goes through the
// approval flow.
var approvalRequired = map[string]bool{
	"rename_page":      true,
	"update_page":      true,
	"save_memory_fact": true,
}

// RequiresApproval reports whether the named tool needs user approval
// before it may run.
func RequiresApproval(name string) bool {
	return approvalRequired[name]
}

// verbPrefixes maps tool-name prefixes to the verb used in the generic
// approval prompt fallback.
var verbPrefixes = []struct {
	prefix string
	verb   string
}{
	{"delete_", "delete"},
	{"rename_", "rename"},
	{"update_", "edit"},
	{"create_", "create"},
	{"archive_", "archive"},
}

// ApprovalPrompt builds the human-readable question shown to the user
// when a tool call awaits approval. Known tools get a prompt describing
// the concrete effect; unknown tools fall back to a generic phrasing
// derived from the tool name.
func ApprovalPrompt(name string, args map[string]any) string {
	switch name {
	case "rename_page":
		if title, ok := args["title"].(string); ok && title != "" {
			return fmt.Sprintf("Rename the page to %q?", title)
		}
		return "Rename the page?"

	case "update_page":
		if ops, ok := args["ops"].([]any); ok && len(ops) > 0 {
			if len(ops) == 1 {
				return "Apply 1 change to the page?"
			}
			return fmt.Sprintf("Apply %d changes to the page?", len(ops))
		}
		return "Update the page?"

	case "save_memory_fact":
		if fact, ok := args["fact"].(string); ok && fact != "" {
			return fmt.Sprintf("Remember this about you: %q?", fact)
		}
		return "Save a memory about you?"
	}

	for _, vp := range verbPrefixes {
		if rest, ok := strings.CutPrefix(name, vp.prefix); ok && rest != "" {
			return fmt.Sprintf("Allow the assistant to %s %s?", vp.verb, strings.ReplaceAll(rest, "_", " "))
		}
	}

	return fmt.Sprintf("Allow the assistant to run %s?", name)
}
