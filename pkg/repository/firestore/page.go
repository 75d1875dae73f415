package firestore

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/docufy-dev/docufy/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// pageDoc is the Firestore document representation of model.Page.
// The content tree is stored as serialized JSON so untouched blocks
// round-trip byte-for-byte regardless of Firestore's map encoding.
type pageDoc struct {
	ID          model.PageID `firestore:"ID"`
	WorkspaceID string       `firestore:"WorkspaceID"`
	Title       string       `firestore:"Title"`
	DocJSON     string       `firestore:"DocJSON"`
	CreatedAt   time.Time    `firestore:"CreatedAt"`
	UpdatedAt   time.Time    `firestore:"UpdatedAt"`
}

func toPageDoc(p *model.Page) (*pageDoc, error) {
	doc := &pageDoc{
		ID:          p.ID,
		WorkspaceID: p.WorkspaceID,
		Title:       p.Title,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Doc != nil {
		raw, err := json.Marshal(p.Doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal page content", goerr.V("pageID", p.ID))
		}
		doc.DocJSON = string(raw)
	}
	return doc, nil
}

func fromPageDoc(d *pageDoc) (*model.Page, error) {
	p := &model.Page{
		ID:          d.ID,
		WorkspaceID: d.WorkspaceID,
		Title:       d.Title,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.DocJSON != "" {
		var doc model.Doc
		if err := json.Unmarshal([]byte(d.DocJSON), &doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal page content", goerr.V("pageID", d.ID))
		}
		p.Doc = &doc
	}
	return p, nil
}

type pageRepository struct {
	client *firestore.Client
}

func newPageRepository(client *firestore.Client) *pageRepository {
	return &pageRepository{client: client}
}

// pagesCollection returns the subcollection path:
// workspaces/{workspaceID}/pages
func (r *pageRepository) pagesCollection(workspaceID string) *firestore.CollectionRef {
	return r.client.Collection("workspaces").Doc(workspaceID).Collection("pages")
}

func (r *pageRepository) Create(ctx context.Context, workspaceID string, page *model.Page) (*model.Page, error) {
	if page.ID == "" {
		page.ID = model.NewPageID()
	}
	page.WorkspaceID = workspaceID
	if page.Doc == nil {
		page.Doc = model.NewDoc()
	}
	now := time.Now().UTC()
	page.CreatedAt = now
	page.UpdatedAt = now

	doc, err := toPageDoc(page)
	if err != nil {
		return nil, err
	}

	docRef := r.pagesCollection(workspaceID).Doc(string(page.ID))
	if _, err := docRef.Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create page", goerr.V("pageID", page.ID))
	}

	return page, nil
}

func (r *pageRepository) Get(ctx context.Context, workspaceID string, pageID model.PageID) (*model.Page, error) {
	docRef := r.pagesCollection(workspaceID).Doc(string(pageID))
	doc, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "page not found", goerr.V("pageID", pageID))
		}
		return nil, goerr.Wrap(err, "failed to get page", goerr.V("pageID", pageID))
	}

	var d pageDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal page", goerr.V("pageID", pageID))
	}

	return fromPageDoc(&d)
}

func (r *pageRepository) List(ctx context.Context, workspaceID string) ([]*model.Page, error) {
	iter := r.pagesCollection(workspaceID).
		OrderBy("UpdatedAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	pages := make([]*model.Page, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate pages")
		}

		var d pageDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal page")
		}

		p, err := fromPageDoc(&d)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}

	return pages, nil
}

func (r *pageRepository) UpdateDoc(ctx context.Context, workspaceID string, pageID model.PageID, content *model.Doc) (*model.Page, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal page content", goerr.V("pageID", pageID))
	}

	docRef := r.pagesCollection(workspaceID).Doc(string(pageID))
	_, err = docRef.Update(ctx, []firestore.Update{
		{Path: "DocJSON", Value: string(raw)},
		{Path: "UpdatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "page not found", goerr.V("pageID", pageID))
		}
		return nil, goerr.Wrap(err, "failed to update page content", goerr.V("pageID", pageID))
	}

	return r.Get(ctx, workspaceID, pageID)
}

func (r *pageRepository) Rename(ctx context.Context, workspaceID string, pageID model.PageID, title string) (*model.Page, error) {
	docRef := r.pagesCollection(workspaceID).Doc(string(pageID))
	_, err := docRef.Update(ctx, []firestore.Update{
		{Path: "Title", Value: title},
		{Path: "UpdatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "page not found", goerr.V("pageID", pageID))
		}
		return nil, goerr.Wrap(err, "failed to rename page", goerr.V("pageID", pageID))
	}

	return r.Get(ctx, workspaceID, pageID)
}

func (r *pageRepository) Delete(ctx context.Context, workspaceID string, pageID model.PageID) error {
	docRef := r.pagesCollection(workspaceID).Doc(string(pageID))

	_, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "page not found", goerr.V("pageID", pageID))
		}
		return goerr.Wrap(err, "failed to get page", goerr.V("pageID", pageID))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete page", goerr.V("pageID", pageID))
	}

	return nil
}
