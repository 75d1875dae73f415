package core

import (
	"context"

	"github.com/m-mizutani/gollem"

	"github.com/docufy-dev/docufy/pkg/domain/interfaces"
	"github.com/docufy-dev/docufy/pkg/domain/model"
	"github.com/docufy-dev/docufy/pkg/service/websearch"
)

// MemoryWriter persists a memory fact on behalf of the save_memory_fact
// tool. The implementation owns dedup and embedding; created reports
// whether a new fact was stored or an existing near-duplicate matched.
type MemoryWriter interface {
	SaveFact(ctx context.Context, workspaceID, userID, content, sourceMessageID string) (fact *model.MemoryFact, created bool, err error)
}

// PageIndexer refreshes the similarity index of a page after its
// content changed.
type PageIndexer interface {
	ReindexPage(ctx context.Context, workspaceID string, page *model.Page) error
}

// Deps carries the collaborators shared by the core tool set
type Deps struct {
	Repo      interfaces.Repository
	LLMClient gollem.LLMClient
	WebSearch websearch.Service
	Memory    MemoryWriter
	Indexer   PageIndexer
}

// New builds the tool set for one chat conversation, bound to the given
// workspace and user. Read-only tools (search_pages, get_page,
// web_search_jina) run immediately; rename_page, update_page and
// save_memory_fact are approval-gated by the caller.
func New(deps Deps, workspaceID, userID string) []gollem.Tool {
	tools := []gollem.Tool{
		&searchPagesTool{repo: deps.Repo, workspaceID: workspaceID, llmClient: deps.LLMClient},
		&getPageTool{repo: deps.Repo, workspaceID: workspaceID},
		&renamePageTool{repo: deps.Repo, workspaceID: workspaceID},
		&updatePageTool{repo: deps.Repo, workspaceID: workspaceID, indexer: deps.Indexer},
		&saveMemoryFactTool{memory: deps.Memory, workspaceID: workspaceID, userID: userID},
	}

	if deps.WebSearch != nil {
		tools = append(tools, &webSearchTool{search: deps.WebSearch})
	}

	return tools
}
