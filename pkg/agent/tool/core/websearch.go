package core

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/docufy-dev/docufy/pkg/agent/tool"
	"github.com/docufy-dev/docufy/pkg/service/websearch"
)

// webSearchTool queries the external web search provider
type webSearchTool struct {
	search websearch.Service
}

func (t *webSearchTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "web_search_jina",
		Description: "Search the web for current information beyond the workspace",
		Parameters: map[string]*gollem.Parameter{
			"query": {
				Type:        gollem.TypeString,
				Description: "Search query text",
				Required:    true,
			},
		},
	}
}

func (t *webSearchTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	tool.Update(ctx, fmt.Sprintf("Searching the web: %s", query))

	results, err := t.search.Search(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "web search failed", goerr.V("query", query))
	}

	items := make([]map[string]any, len(results))
	for i, r := range results {
		items[i] = map[string]any{
			"title":   r.Title,
			"url":     r.URL,
			"snippet": r.Snippet,
		}
	}

	return map[string]any{"results": items}, nil
}
