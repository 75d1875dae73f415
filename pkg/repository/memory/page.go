package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/docufy-dev/docufy/pkg/domain/model"
)

// pageKey is a composite key for pages (workspaceID + pageID)
type pageKey struct {
	workspaceID string
	pageID      model.PageID
}

type pageRepository struct {
	mu    sync.RWMutex
	pages map[pageKey]*model.Page
}

func newPageRepository() *pageRepository {
	return &pageRepository{
		pages: make(map[pageKey]*model.Page),
	}
}

// copyPage deep-copies a page. The content tree is copied through JSON
// so callers can never mutate stored state through a returned pointer.
func copyPage(p *model.Page) *model.Page {
	copied := &model.Page{
		ID:          p.ID,
		WorkspaceID: p.WorkspaceID,
		Title:       p.Title,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Doc != nil {
		raw, err := json.Marshal(p.Doc)
		if err == nil {
			var doc model.Doc
			if json.Unmarshal(raw, &doc) == nil {
				copied.Doc = &doc
			}
		}
	}
	return copied
}

func (r *pageRepository) Create(ctx context.Context, workspaceID string, page *model.Page) (*model.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyPage(page)
	if created.ID == "" {
		created.ID = model.NewPageID()
	}
	created.WorkspaceID = workspaceID
	if created.Doc == nil {
		created.Doc = model.NewDoc()
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.pages[pageKey{workspaceID: workspaceID, pageID: created.ID}] = created
	return copyPage(created), nil
}

func (r *pageRepository) Get(ctx context.Context, workspaceID string, pageID model.PageID) (*model.Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	page, exists := r.pages[pageKey{workspaceID: workspaceID, pageID: pageID}]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "page not found", goerr.V("pageID", pageID))
	}

	return copyPage(page), nil
}

func (r *pageRepository) List(ctx context.Context, workspaceID string) ([]*model.Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Page, 0)
	for key, p := range r.pages {
		if key.workspaceID == workspaceID {
			result = append(result, copyPage(p))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})

	return result, nil
}

func (r *pageRepository) UpdateDoc(ctx context.Context, workspaceID string, pageID model.PageID, doc *model.Doc) (*model.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	page, exists := r.pages[pageKey{workspaceID: workspaceID, pageID: pageID}]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "page not found", goerr.V("pageID", pageID))
	}

	updated := copyPage(page)
	updated.Doc = doc
	updated = copyPage(updated) // detach the caller's tree
	updated.UpdatedAt = time.Now().UTC()

	r.pages[pageKey{workspaceID: workspaceID, pageID: pageID}] = updated
	return copyPage(updated), nil
}

func (r *pageRepository) Rename(ctx context.Context, workspaceID string, pageID model.PageID, title string) (*model.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	page, exists := r.pages[pageKey{workspaceID: workspaceID, pageID: pageID}]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "page not found", goerr.V("pageID", pageID))
	}

	page.Title = title
	page.UpdatedAt = time.Now().UTC()
	return copyPage(page), nil
}

func (r *pageRepository) Delete(ctx context.Context, workspaceID string, pageID model.PageID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pageKey{workspaceID: workspaceID, pageID: pageID}
	if _, exists := r.pages[key]; !exists {
		return goerr.Wrap(ErrNotFound, "page not found", goerr.V("pageID", pageID))
	}

	delete(r.pages, key)
	return nil
}
