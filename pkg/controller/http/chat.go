package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/m-mizutani/goerr/v2"

	"github.com/docufy-dev/docufy/pkg/domain/model"
	"github.com/docufy-dev/docufy/pkg/usecase"
	"github.com/docufy-dev/docufy/pkg/utils/errutil"
	"github.com/docufy-dev/docufy/pkg/utils/logging"
	"github.com/docufy-dev/docufy/pkg/utils/safe"
)

// chatHandler runs one chat turn and streams the response parts as
// Server-Sent Events. Each part is one "part" event; a turn failure
// after the stream has started becomes an "error" event because the
// status line is already committed.
func chatHandler(chat *usecase.ChatUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req usecase.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to decode chat request"), http.StatusBadRequest)
			return
		}
		if req.ConversationID == "" {
			req.ConversationID = model.NewConversationID()
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			errutil.HandleHTTP(ctx, w, goerr.New("streaming is not supported"), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Conversation-Id", req.ConversationID)
		w.WriteHeader(http.StatusOK)

		writeEvent := func(event string, payload any) {
			data, err := json.Marshal(payload)
			if err != nil {
				logging.From(ctx).Error("failed to marshal stream event", "event", event, "error", err.Error())
				return
			}
			safe.Write(ctx, w, []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)))
			flusher.Flush()
		}

		err := chat.HandleTurn(ctx, &req, func(ctx context.Context, part *usecase.Part) {
			writeEvent("part", part)
		})
		if err != nil {
			writeEvent("error", map[string]string{"error": err.Error()})
			return
		}

		writeEvent("done", map[string]string{"conversation_id": req.ConversationID})
	}
}

// approvalHandler records a user decision for a pending tool approval
func approvalHandler(chat *usecase.ChatUseCase) http.HandlerFunc {
	type request struct {
		ID       model.ApprovalID `json:"id"`
		Approved bool             `json:"approved"`
	}
	type response struct {
		Accepted bool `json:"accepted"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to decode approval request"), http.StatusBadRequest)
			return
		}
		if req.ID == "" {
			errutil.HandleHTTP(ctx, w, goerr.New("approval id is required"), http.StatusBadRequest)
			return
		}

		accepted := chat.RespondApproval(ctx, req.ID, req.Approved)
		respondJSON(ctx, w, http.StatusOK, response{Accepted: accepted})
	}
}
