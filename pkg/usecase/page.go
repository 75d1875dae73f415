package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/docufy-dev/docufy/pkg/domain/interfaces"
	"github.com/docufy-dev/docufy/pkg/domain/model"
	"github.com/docufy-dev/docufy/pkg/service/embedding"
	"github.com/docufy-dev/docufy/pkg/service/notion"
	"github.com/docufy-dev/docufy/pkg/utils/logging"
)

// PageUseCase manages pages and their similarity index
type PageUseCase struct {
	repo          interfaces.Repository
	embedder      *embedding.Service
	notionService notion.Service
}

// NewPageUseCase creates a new PageUseCase instance
func NewPageUseCase(repo interfaces.Repository, embedder *embedding.Service, notionService notion.Service) *PageUseCase {
	return &PageUseCase{
		repo:          repo,
		embedder:      embedder,
		notionService: notionService,
	}
}

// CreatePage persists a new page and indexes its content
func (uc *PageUseCase) CreatePage(ctx context.Context, workspaceID, title string, doc *model.Doc) (*model.Page, error) {
	if title == "" {
		return nil, goerr.New("page title is required")
	}
	if doc == nil {
		doc = model.NewDoc()
	}

	page, err := uc.repo.Page().Create(ctx, workspaceID, &model.Page{
		Title: title,
		Doc:   doc,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create page",
			goerr.V("workspaceID", workspaceID))
	}

	if err := uc.ReindexPage(ctx, workspaceID, page); err != nil {
		return nil, err
	}

	return page, nil
}

// GetPage retrieves a page by ID
func (uc *PageUseCase) GetPage(ctx context.Context, workspaceID string, pageID model.PageID) (*model.Page, error) {
	page, err := uc.repo.Page().Get(ctx, workspaceID, pageID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get page",
			goerr.V("workspaceID", workspaceID),
			goerr.V("pageID", pageID))
	}
	return page, nil
}

// ListPages retrieves all pages of a workspace
func (uc *PageUseCase) ListPages(ctx context.Context, workspaceID string) ([]*model.Page, error) {
	pages, err := uc.repo.Page().List(ctx, workspaceID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list pages",
			goerr.V("workspaceID", workspaceID))
	}
	return pages, nil
}

// RenamePage updates a page's title
func (uc *PageUseCase) RenamePage(ctx context.Context, workspaceID string, pageID model.PageID, title string) (*model.Page, error) {
	if title == "" {
		return nil, goerr.New("page title is required")
	}
	page, err := uc.repo.Page().Rename(ctx, workspaceID, pageID, title)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to rename page",
			goerr.V("workspaceID", workspaceID),
			goerr.V("pageID", pageID))
	}
	return page, nil
}

// DeletePage removes a page and its index entries
func (uc *PageUseCase) DeletePage(ctx context.Context, workspaceID string, pageID model.PageID) error {
	if err := uc.repo.Chunk().ReplacePage(ctx, workspaceID, pageID, nil); err != nil {
		return goerr.Wrap(err, "failed to drop page chunks",
			goerr.V("workspaceID", workspaceID),
			goerr.V("pageID", pageID))
	}
	if err := uc.repo.Page().Delete(ctx, workspaceID, pageID); err != nil {
		return goerr.Wrap(err, "failed to delete page",
			goerr.V("workspaceID", workspaceID),
			goerr.V("pageID", pageID))
	}
	return nil
}

// UpdatePageBlocks applies block-level operations to the page. Each
// operation succeeds or fails independently; the page is persisted and
// reindexed only when at least one operation took effect.
func (uc *PageUseCase) UpdatePageBlocks(ctx context.Context, workspaceID string, pageID model.PageID, ops []model.BlockOp) (*model.Page, []model.BlockOpResult, error) {
	page, err := uc.repo.Page().Get(ctx, workspaceID, pageID)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to get page",
			goerr.V("workspaceID", workspaceID),
			goerr.V("pageID", pageID))
	}

	results := model.ApplyBlockOps(page.Doc, ops)

	applied := false
	for _, r := range results {
		if r.Applied {
			applied = true
			break
		}
	}
	if !applied {
		return page, results, nil
	}

	page, err = uc.repo.Page().UpdateDoc(ctx, workspaceID, pageID, page.Doc)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to update page content",
			goerr.V("workspaceID", workspaceID),
			goerr.V("pageID", pageID))
	}

	if err := uc.ReindexPage(ctx, workspaceID, page); err != nil {
		return nil, nil, err
	}

	return page, results, nil
}

// SearchPages finds pages via similarity search over their indexed
// block chunks
func (uc *PageUseCase) SearchPages(ctx context.Context, workspaceID, query string, limit int) ([]*model.Page, error) {
	if limit <= 0 {
		limit = 5
	}

	vector, err := uc.embedder.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed search query",
			goerr.V("workspaceID", workspaceID))
	}

	chunks, err := uc.repo.Chunk().FindByEmbedding(ctx, workspaceID, vector, limit*4)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search chunks",
			goerr.V("workspaceID", workspaceID))
	}

	seen := make(map[model.PageID]bool)
	var pages []*model.Page
	for _, chunk := range chunks {
		if seen[chunk.PageID] {
			continue
		}
		seen[chunk.PageID] = true

		page, err := uc.repo.Page().Get(ctx, workspaceID, chunk.PageID)
		if err != nil {
			continue
		}
		pages = append(pages, page)
		if len(pages) >= limit {
			break
		}
	}

	// Merge title matches the vector search missed (e.g. pages whose
	// chunks are still awaiting embeddings).
	if len(pages) < limit {
		all, err := uc.repo.Page().List(ctx, workspaceID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan page titles",
				goerr.V("workspaceID", workspaceID))
		}
		needle := strings.ToLower(query)
		for _, page := range all {
			if seen[page.ID] || !strings.Contains(strings.ToLower(page.Title), needle) {
				continue
			}
			seen[page.ID] = true
			pages = append(pages, page)
			if len(pages) >= limit {
				break
			}
		}
	}

	return pages, nil
}

// ReindexPage rebuilds the page's chunk set. Blocks whose content hash
// is unchanged keep their existing chunk and embedding; only changed or
// new blocks are re-embedded. An embedding failure leaves the affected
// chunks without vectors for the backfill worker.
func (uc *PageUseCase) ReindexPage(ctx context.Context, workspaceID string, page *model.Page) error {
	logger := logging.From(ctx)

	existing, err := uc.repo.Chunk().ListByPage(ctx, workspaceID, page.ID)
	if err != nil {
		return goerr.Wrap(err, "failed to list page chunks",
			goerr.V("workspaceID", workspaceID),
			goerr.V("pageID", page.ID))
	}
	byBlock := make(map[string]*model.Chunk, len(existing))
	for _, c := range existing {
		byBlock[c.BlockID] = c
	}

	var chunks []*model.Chunk
	var toEmbed []*model.Chunk

	if page.Doc != nil {
		for _, block := range page.Doc.Content {
			blockID := block.BlockID()
			if blockID == "" {
				continue
			}
			text := strings.TrimSpace(block.PlainText())
			if text == "" {
				continue
			}

			hash := model.ContentHash(text)
			if prev, ok := byBlock[blockID]; ok && prev.ContentHash == hash {
				chunks = append(chunks, prev)
				continue
			}

			chunk := &model.Chunk{
				ID:          model.NewChunkID(),
				WorkspaceID: workspaceID,
				PageID:      page.ID,
				BlockID:     blockID,
				Text:        text,
				ContentHash: hash,
			}
			chunks = append(chunks, chunk)
			toEmbed = append(toEmbed, chunk)
		}
	}

	if len(toEmbed) > 0 {
		texts := make([]string, len(toEmbed))
		for i, c := range toEmbed {
			texts[i] = c.Text
		}
		vectors, err := uc.embedder.EmbedAll(ctx, texts)
		if err != nil {
			logger.Warn("embedding failed, indexing chunks without vectors",
				"workspaceID", workspaceID,
				"pageID", page.ID,
				"chunks", len(toEmbed),
				"error", err.Error())
		} else {
			for i, c := range toEmbed {
				c.Embedding = vectors[i]
			}
		}
	}

	if err := uc.repo.Chunk().ReplacePage(ctx, workspaceID, page.ID, chunks); err != nil {
		return goerr.Wrap(err, "failed to replace page chunks",
			goerr.V("workspaceID", workspaceID),
			goerr.V("pageID", page.ID))
	}

	return nil
}

// notionBlockType maps a Notion block type to the page block type used
// in documents
func notionBlockType(t string) string {
	switch t {
	case "heading_1", "heading_2", "heading_3":
		return "heading"
	case "code":
		return "codeBlock"
	case "quote", "callout":
		return "blockquote"
	case "divider":
		return "horizontalRule"
	default:
		return "paragraph"
	}
}

// ImportNotionPage fetches a Notion page and creates a workspace page
// from its content. Every imported block gets a fresh stable id.
func (uc *PageUseCase) ImportNotionPage(ctx context.Context, workspaceID, notionPageID string) (*model.Page, error) {
	if uc.notionService == nil {
		return nil, goerr.New("Notion import is not configured")
	}

	src, err := uc.notionService.FetchPage(ctx, notionPageID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch Notion page",
			goerr.V("notionPageID", notionPageID))
	}

	title := src.Title
	if title == "" {
		title = "Untitled import"
	}

	doc := model.NewDoc()
	for _, block := range src.Blocks.Flatten() {
		node := model.NewTextBlock(notionBlockType(block.Type), block.Text)
		switch block.Type {
		case "heading_1":
			node.Attrs["level"] = 1
		case "heading_2":
			node.Attrs["level"] = 2
		case "heading_3":
			node.Attrs["level"] = 3
		case "code":
			if block.Language != "" {
				node.Attrs["language"] = block.Language
			}
		}
		doc.Content = append(doc.Content, node)
	}

	page, err := uc.CreatePage(ctx, workspaceID, title, doc)
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Info("imported Notion page",
		"workspaceID", workspaceID,
		"notionPageID", notionPageID,
		"pageID", page.ID,
		"blocks", len(doc.Content))

	return page, nil
}
