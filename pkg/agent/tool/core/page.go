package core

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"

	"github.com/docufy-dev/docufy/pkg/agent/tool"
	"github.com/docufy-dev/docufy/pkg/domain/interfaces"
	"github.com/docufy-dev/docufy/pkg/domain/model"
)

// searchPagesTool finds pages via vector similarity over their indexed
// block chunks
type searchPagesTool struct {
	repo        interfaces.Repository
	workspaceID string
	llmClient   gollem.LLMClient
}

func (t *searchPagesTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "search_pages",
		Description: "Search pages in the current workspace by semantic similarity to the query",
		Parameters: map[string]*gollem.Parameter{
			"query": {
				Type:        gollem.TypeString,
				Description: "Search query text",
				Required:    true,
			},
			"limit": {
				Type:        gollem.TypeInteger,
				Description: "Maximum number of pages to return (default: 5)",
				Required:    false,
			},
		},
	}
}

func (t *searchPagesTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	tool.Update(ctx, fmt.Sprintf("Searching pages: %s", query))

	limit := 5
	if v, err := extractInt64(args, "limit"); err == nil && v > 0 {
		limit = int(v)
	}

	embeddings, err := t.llmClient.GenerateEmbedding(ctx, model.EmbeddingDimension, []string{query})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding for search query",
			goerr.V("query", query),
		)
	}
	if len(embeddings) == 0 || len(embeddings[0]) == 0 {
		return nil, fmt.Errorf("embedding generation returned empty result")
	}

	embedding64 := embeddings[0]
	embedding32 := make([]float32, len(embedding64))
	for i, v := range embedding64 {
		embedding32[i] = float32(v)
	}

	// Over-fetch chunks so multiple hits on one page still leave room
	// for distinct pages.
	chunks, err := t.repo.Chunk().FindByEmbedding(ctx, t.workspaceID, embedding32, limit*4)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search chunks by embedding",
			goerr.V("workspaceID", t.workspaceID),
			goerr.V("limit", limit),
		)
	}

	seen := make(map[model.PageID]bool)
	var results []map[string]any
	for _, chunk := range chunks {
		if seen[chunk.PageID] {
			continue
		}
		seen[chunk.PageID] = true

		page, err := t.repo.Page().Get(ctx, t.workspaceID, chunk.PageID)
		if err != nil {
			// Chunk may outlive its page briefly; skip stale hits
			continue
		}

		results = append(results, map[string]any{
			"pageId":  string(page.ID),
			"title":   page.Title,
			"snippet": chunk.Text,
		})
		if len(results) >= limit {
			break
		}
	}

	return map[string]any{"results": results}, nil
}

// getPageTool retrieves a page's title and block summaries
type getPageTool struct {
	repo        interfaces.Repository
	workspaceID string
}

func (t *getPageTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "get_page",
		Description: "Get a page's title and its top-level blocks with their stable ids",
		Parameters: map[string]*gollem.Parameter{
			"pageId": {
				Type:        gollem.TypeString,
				Description: "The ID of the page to retrieve",
				Required:    true,
			},
		},
	}
}

func (t *getPageTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	pageID, _ := args["pageId"].(string)
	if pageID == "" {
		return nil, fmt.Errorf("pageId is required")
	}

	tool.Update(ctx, fmt.Sprintf("Reading page %s...", pageID))

	page, err := t.repo.Page().Get(ctx, t.workspaceID, model.PageID(pageID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get page",
			goerr.V("workspaceID", t.workspaceID),
			goerr.V("pageID", pageID),
		)
	}

	var blocks []map[string]any
	if page.Doc != nil {
		blocks = make([]map[string]any, len(page.Doc.Content))
		for i, block := range page.Doc.Content {
			blocks[i] = map[string]any{
				"id":   block.BlockID(),
				"type": block.Type,
				"text": block.PlainText(),
			}
		}
	}

	return map[string]any{
		"pageId": string(page.ID),
		"title":  page.Title,
		"blocks": blocks,
	}, nil
}

// renamePageTool updates a page's title (approval-gated)
type renamePageTool struct {
	repo        interfaces.Repository
	workspaceID string
}

func (t *renamePageTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "rename_page",
		Description: "Rename a page. Requires user approval before execution",
		Parameters: map[string]*gollem.Parameter{
			"pageId": {
				Type:        gollem.TypeString,
				Description: "The ID of the page to rename",
				Required:    true,
			},
			"title": {
				Type:        gollem.TypeString,
				Description: "The new page title",
				Required:    true,
			},
		},
	}
}

func (t *renamePageTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	pageID, _ := args["pageId"].(string)
	if pageID == "" {
		return nil, fmt.Errorf("pageId is required")
	}
	title, _ := args["title"].(string)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	tool.Update(ctx, fmt.Sprintf("Renaming page to %q...", title))

	page, err := t.repo.Page().Rename(ctx, t.workspaceID, model.PageID(pageID), title)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to rename page",
			goerr.V("workspaceID", t.workspaceID),
			goerr.V("pageID", pageID),
		)
	}

	return map[string]any{
		"pageId": string(page.ID),
		"title":  page.Title,
	}, nil
}

// updatePageTool applies block-level operations to a page
// (approval-gated)
type updatePageTool struct {
	repo        interfaces.Repository
	workspaceID string
	indexer     PageIndexer
}

func (t *updatePageTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "update_page",
		Description: "Replace the text of specific blocks in a page, addressed by stable block id. Requires user approval before execution",
		Parameters: map[string]*gollem.Parameter{
			"pageId": {
				Type:        gollem.TypeString,
				Description: "The ID of the page to update",
				Required:    true,
			},
			"ops": {
				Type:        gollem.TypeArray,
				Description: "Block operations to apply in order",
				Required:    true,
				Items: &gollem.Parameter{
					Type: gollem.TypeObject,
					Properties: map[string]*gollem.Parameter{
						"blockId": {
							Type:        gollem.TypeString,
							Description: "Stable id of the top-level block to change",
							Required:    true,
						},
						"text": {
							Type:        gollem.TypeString,
							Description: "New inline text for the block. Empty text clears the block's content",
							Required:    true,
						},
					},
				},
			},
		},
	}
}

func (t *updatePageTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	pageID, _ := args["pageId"].(string)
	if pageID == "" {
		return nil, fmt.Errorf("pageId is required")
	}

	ops, err := parseBlockOps(args["ops"])
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, fmt.Errorf("ops is required")
	}

	tool.Update(ctx, fmt.Sprintf("Updating %d block(s)...", len(ops)))

	page, err := t.repo.Page().Get(ctx, t.workspaceID, model.PageID(pageID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get page",
			goerr.V("workspaceID", t.workspaceID),
			goerr.V("pageID", pageID),
		)
	}

	results := model.ApplyBlockOps(page.Doc, ops)

	applied := 0
	for _, r := range results {
		if r.Applied {
			applied++
		}
	}

	// Persist only when at least one operation took effect; an
	// all-failed batch leaves the document untouched.
	if applied > 0 {
		page, err = t.repo.Page().UpdateDoc(ctx, t.workspaceID, page.ID, page.Doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to update page content",
				goerr.V("workspaceID", t.workspaceID),
				goerr.V("pageID", pageID),
			)
		}

		if t.indexer != nil {
			if err := t.indexer.ReindexPage(ctx, t.workspaceID, page); err != nil {
				return nil, goerr.Wrap(err, "failed to reindex page",
					goerr.V("workspaceID", t.workspaceID),
					goerr.V("pageID", pageID),
				)
			}
		}
	}

	items := make([]map[string]any, len(results))
	for i, r := range results {
		item := map[string]any{
			"blockId": r.BlockID,
			"applied": r.Applied,
		}
		if r.Error != "" {
			item["error"] = r.Error
		}
		items[i] = item
	}

	return map[string]any{
		"pageId":  string(page.ID),
		"applied": applied,
		"results": items,
	}, nil
}

// parseBlockOps converts the raw ops argument into block operations
func parseBlockOps(raw any) ([]model.BlockOp, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("ops must be an array")
	}

	ops := make([]model.BlockOp, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("ops[%d] must be an object", i)
		}

		blockID, _ := m["blockId"].(string)
		if blockID == "" {
			return nil, fmt.Errorf("ops[%d].blockId is required", i)
		}
		text, _ := m["text"].(string)

		ops = append(ops, model.BlockOp{
			Kind:    model.BlockOpReplaceText,
			BlockID: blockID,
			Text:    text,
		})
	}

	return ops, nil
}

// extractInt64 reads an integer argument that may arrive as any numeric
// JSON type
func extractInt64(args map[string]any, key string) (int64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%s is required", key)
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%s must be an integer, got %T", key, v)
	}
}
