package interfaces

import (
	"context"

	"github.com/docufy-dev/docufy/pkg/domain/model"
)

// PageRepository defines the interface for Page persistence
type PageRepository interface {
	// Create persists a new page
	Create(ctx context.Context, workspaceID string, page *model.Page) (*model.Page, error)

	// Get retrieves a page by ID
	Get(ctx context.Context, workspaceID string, pageID model.PageID) (*model.Page, error)

	// List retrieves all pages of a workspace ordered by UpdatedAt descending
	List(ctx context.Context, workspaceID string) ([]*model.Page, error)

	// UpdateDoc replaces the page's document content
	UpdateDoc(ctx context.Context, workspaceID string, pageID model.PageID, doc *model.Doc) (*model.Page, error)

	// Rename updates the page's title
	Rename(ctx context.Context, workspaceID string, pageID model.PageID, title string) (*model.Page, error)

	// Delete removes a page
	Delete(ctx context.Context, workspaceID string, pageID model.PageID) error
}
