package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"

	"github.com/docufy-dev/docufy/pkg/domain/model"
	"github.com/docufy-dev/docufy/pkg/usecase"
	"github.com/docufy-dev/docufy/pkg/utils/errutil"
	"github.com/docufy-dev/docufy/pkg/utils/logging"
	"github.com/docufy-dev/docufy/pkg/utils/safe"
)

type Server struct {
	router            *chi.Mux
	usecases          *usecase.UseCases
	workspaceRegistry *model.WorkspaceRegistry
}

type Options func(*Server)

func WithWorkspaceRegistry(registry *model.WorkspaceRegistry) Options {
	return func(s *Server) {
		s.workspaceRegistry = registry
	}
}

func New(usecases *usecase.UseCases, opts ...Options) (*Server, error) {
	if usecases == nil {
		return nil, goerr.New("usecases are required")
	}

	r := chi.NewRouter()
	s := &Server{
		router:   r,
		usecases: usecases,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", chatHandler(s.usecases.Chat))
		r.Post("/chat/approvals", approvalHandler(s.usecases.Chat))

		if s.workspaceRegistry != nil {
			r.Get("/workspaces", workspacesHandler(s.workspaceRegistry))
		}

		r.Route("/workspaces/{workspaceID}", func(r chi.Router) {
			r.Route("/users/{userID}/memories", func(r chi.Router) {
				r.Get("/", listMemoriesHandler(s.usecases.Memory))
				r.Delete("/{factID}", deleteMemoryHandler(s.usecases.Memory))
			})

			r.Route("/pages", func(r chi.Router) {
				r.Get("/", listPagesHandler(s.usecases.Page))
				r.Post("/", createPageHandler(s.usecases.Page))
				r.Get("/search", searchPagesHandler(s.usecases.Page))
				r.Post("/import", importPageHandler(s.usecases.Page))
				r.Route("/{pageID}", func(r chi.Router) {
					r.Get("/", getPageHandler(s.usecases.Page))
					r.Patch("/", renamePageHandler(s.usecases.Page))
					r.Delete("/", deletePageHandler(s.usecases.Page))
					r.Post("/blocks", updatePageBlocksHandler(s.usecases.Page))
				})
			})
		})
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// workspacesHandler returns a handler that serves the workspace list as JSON
func workspacesHandler(registry *model.WorkspaceRegistry) http.HandlerFunc {
	type workspaceResponse struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	type response struct {
		Workspaces []workspaceResponse `json:"workspaces"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		workspaces := registry.Workspaces()
		resp := response{
			Workspaces: make([]workspaceResponse, len(workspaces)),
		}
		for i, ws := range workspaces {
			resp.Workspaces[i] = workspaceResponse{
				ID:   ws.ID,
				Name: ws.Name,
			}
		}
		respondJSON(r.Context(), w, http.StatusOK, resp)
	}
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(ctx, w, data)
}
