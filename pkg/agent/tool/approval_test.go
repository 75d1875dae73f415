package tool_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/docufy-dev/docufy/pkg/agent/tool"
)

func TestRequiresApproval(t *testing.T) {
	for name, want := range map[string]bool{
		"search_pages":     false,
		"get_page":         false,
		"web_search_jina":  false,
		"rename_page":      true,
		"update_page":      true,
		"save_memory_fact": true,
	} {
		gt.Value(t, tool.RequiresApproval(name)).Equal(want)
	}
}

func TestApprovalPrompt(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{
			name: "rename surfaces proposed title",
			tool: "rename_page",
			args: map[string]any{"title": "Q3 Roadmap"},
			want: `Rename the page to "Q3 Roadmap"?`,
		},
		{
			name: "update surfaces op count",
			tool: "update_page",
			args: map[string]any{"ops": []any{map[string]any{}, map[string]any{}}},
			want: "Apply 2 changes to the page?",
		},
		{
			name: "update with one op",
			tool: "update_page",
			args: map[string]any{"ops": []any{map[string]any{}}},
			want: "Apply 1 change to the page?",
		},
		{
			name: "memory surfaces fact text",
			tool: "save_memory_fact",
			args: map[string]any{"fact": "Prefers concise answers"},
			want: `Remember this about you: "Prefers concise answers"?`,
		},
		{
			name: "unknown tool with verb prefix",
			tool: "delete_page",
			args: map[string]any{},
			want: "Allow the assistant to delete page?",
		},
		{
			name: "unknown tool with create prefix",
			tool: "create_reminder",
			args: map[string]any{},
			want: "Allow the assistant to create reminder?",
		},
		{
			name: "unknown tool without prefix",
			tool: "publish_site",
			args: map[string]any{},
			want: "Allow the assistant to run publish_site?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tool.ApprovalPrompt(tt.tool, tt.args)).Equal(tt.want)
		})
	}
}
