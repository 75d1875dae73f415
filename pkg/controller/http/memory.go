package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/docufy-dev/docufy/pkg/domain/model"
	"github.com/docufy-dev/docufy/pkg/usecase"
	"github.com/docufy-dev/docufy/pkg/utils/errutil"
)

type memoryFactResponse struct {
	ID              string    `json:"id"`
	Content         string    `json:"content"`
	SourceMessageID string    `json:"source_message_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func toMemoryFactResponse(f *model.MemoryFact) memoryFactResponse {
	return memoryFactResponse{
		ID:              string(f.ID),
		Content:         f.Content,
		SourceMessageID: f.SourceMessageID,
		CreatedAt:       f.CreatedAt,
	}
}

func listMemoriesHandler(memory *usecase.MemoryUseCase) http.HandlerFunc {
	type response struct {
		Facts []memoryFactResponse `json:"facts"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		workspaceID := chi.URLParam(r, "workspaceID")
		userID := chi.URLParam(r, "userID")

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				errutil.HandleHTTP(ctx, w, goerr.New("invalid limit", goerr.V("limit", raw)), http.StatusBadRequest)
				return
			}
			limit = n
		}

		facts, err := memory.ListRecentFacts(ctx, workspaceID, userID, limit)
		if err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
			return
		}

		resp := response{Facts: make([]memoryFactResponse, len(facts))}
		for i, f := range facts {
			resp.Facts[i] = toMemoryFactResponse(f)
		}
		respondJSON(ctx, w, http.StatusOK, resp)
	}
}

func deleteMemoryHandler(memory *usecase.MemoryUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		workspaceID := chi.URLParam(r, "workspaceID")
		userID := chi.URLParam(r, "userID")
		factID := model.MemoryFactID(chi.URLParam(r, "factID"))

		if err := memory.DeleteFact(ctx, workspaceID, userID, factID); err != nil {
			errutil.HandleHTTP(ctx, w, err, http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
