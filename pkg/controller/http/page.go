package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/docufy-dev/docufy/pkg/domain/model"
	"github.com/docufy-dev/docufy/pkg/usecase"
	"github.com/docufy-dev/docufy/pkg/utils/errutil"
)

type pageResponse struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Doc       *model.Doc `json:"doc,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toPageResponse(p *model.Page, withDoc bool) pageResponse {
	resp := pageResponse{
		ID:        string(p.ID),
		Title:     p.Title,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if withDoc {
		resp.Doc = p.Doc
	}
	return resp
}

func listPagesHandler(pages *usecase.PageUseCase) http.HandlerFunc {
	type response struct {
		Pages []pageResponse `json:"pages"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		workspaceID := chi.URLParam(r, "workspaceID")

		list, err := pages.ListPages(ctx, workspaceID)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
			return
		}

		resp := response{Pages: make([]pageResponse, len(list))}
		for i, p := range list {
			resp.Pages[i] = toPageResponse(p, false)
		}
		respondJSON(ctx, w, http.StatusOK, resp)
	}
}

func createPageHandler(pages *usecase.PageUseCase) http.HandlerFunc {
	type request struct {
		Title string     `json:"title"`
		Doc   *model.Doc `json:"doc,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		workspaceID := chi.URLParam(r, "workspaceID")

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to decode page request"), http.StatusBadRequest)
			return
		}

		page, err := pages.CreatePage(ctx, workspaceID, req.Title, req.Doc)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
			return
		}
		respondJSON(ctx, w, http.StatusCreated, toPageResponse(page, true))
	}
}

func getPageHandler(pages *usecase.PageUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		workspaceID := chi.URLParam(r, "workspaceID")
		pageID := model.PageID(chi.URLParam(r, "pageID"))

		page, err := pages.GetPage(ctx, workspaceID, pageID)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusNotFound)
			return
		}
		respondJSON(ctx, w, http.StatusOK, toPageResponse(page, true))
	}
}

func renamePageHandler(pages *usecase.PageUseCase) http.HandlerFunc {
	type request struct {
		Title string `json:"title"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		workspaceID := chi.URLParam(r, "workspaceID")
		pageID := model.PageID(chi.URLParam(r, "pageID"))

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to decode rename request"), http.StatusBadRequest)
			return
		}

		page, err := pages.RenamePage(ctx, workspaceID, pageID, req.Title)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
			return
		}
		respondJSON(ctx, w, http.StatusOK, toPageResponse(page, false))
	}
}

func deletePageHandler(pages *usecase.PageUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		workspaceID := chi.URLParam(r, "workspaceID")
		pageID := model.PageID(chi.URLParam(r, "pageID"))

		if err := pages.DeletePage(ctx, workspaceID, pageID); err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func updatePageBlocksHandler(pages *usecase.PageUseCase) http.HandlerFunc {
	type request struct {
		Ops []model.BlockOp `json:"ops"`
	}
	type response struct {
		Page    pageResponse          `json:"page"`
		Results []model.BlockOpResult `json:"results"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		workspaceID := chi.URLParam(r, "workspaceID")
		pageID := model.PageID(chi.URLParam(r, "pageID"))

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to decode block operations"), http.StatusBadRequest)
			return
		}
		if len(req.Ops) == 0 {
			errutil.HandleHTTP(ctx, w, goerr.New("at least one operation is required"), http.StatusBadRequest)
			return
		}

		page, results, err := pages.UpdatePageBlocks(ctx, workspaceID, pageID, req.Ops)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusNotFound)
			return
		}
		respondJSON(ctx, w, http.StatusOK, response{
			Page:    toPageResponse(page, true),
			Results: results,
		})
	}
}

func searchPagesHandler(pages *usecase.PageUseCase) http.HandlerFunc {
	type response struct {
		Pages []pageResponse `json:"pages"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		workspaceID := chi.URLParam(r, "workspaceID")

		query := r.URL.Query().Get("q")
		if query == "" {
			errutil.HandleHTTP(ctx, w, goerr.New("query parameter q is required"), http.StatusBadRequest)
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				errutil.HandleHTTP(ctx, w, goerr.New("invalid limit", goerr.V("limit", raw)), http.StatusBadRequest)
				return
			}
			limit = n
		}

		found, err := pages.SearchPages(ctx, workspaceID, query, limit)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
			return
		}

		resp := response{Pages: make([]pageResponse, len(found))}
		for i, p := range found {
			resp.Pages[i] = toPageResponse(p, false)
		}
		respondJSON(ctx, w, http.StatusOK, resp)
	}
}

func importPageHandler(pages *usecase.PageUseCase) http.HandlerFunc {
	type request struct {
		NotionPageID string `json:"notion_page_id"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		workspaceID := chi.URLParam(r, "workspaceID")

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to decode import request"), http.StatusBadRequest)
			return
		}
		if req.NotionPageID == "" {
			errutil.HandleHTTP(ctx, w, goerr.New("notion_page_id is required"), http.StatusBadRequest)
			return
		}

		page, err := pages.ImportNotionPage(ctx, workspaceID, req.NotionPageID)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
			return
		}
		respondJSON(ctx, w, http.StatusCreated, toPageResponse(page, true))
	}
}
