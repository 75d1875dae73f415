package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/docufy-dev/docufy/pkg/cli/config"
	httpctrl "github.com/docufy-dev/docufy/pkg/controller/http"
	"github.com/docufy-dev/docufy/pkg/service/embedding"
	"github.com/docufy-dev/docufy/pkg/service/notion"
	"github.com/docufy-dev/docufy/pkg/service/websearch"
	"github.com/docufy-dev/docufy/pkg/service/worker"
	"github.com/docufy-dev/docufy/pkg/usecase"
	"github.com/docufy-dev/docufy/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var notionToken string
	var jinaAPIKey string
	var approvalTimeout time.Duration
	var backfillInterval time.Duration
	var workspacesCfg config.Workspaces
	var repoCfg config.Repository
	var llmCfg config.LLM
	var sentryCfg config.Sentry

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("DOCUFY_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "notion-api-token",
			Usage:       "Notion API token for page import",
			Sources:     cli.EnvVars("DOCUFY_NOTION_API_TOKEN"),
			Destination: &notionToken,
		},
		&cli.StringFlag{
			Name:        "jina-api-key",
			Usage:       "Jina API key for the web_search_jina tool",
			Sources:     cli.EnvVars("DOCUFY_JINA_API_KEY"),
			Destination: &jinaAPIKey,
		},
		&cli.DurationFlag{
			Name:        "approval-timeout",
			Usage:       "Pending tool approvals are auto-denied after this duration",
			Value:       5 * time.Minute,
			Sources:     cli.EnvVars("DOCUFY_APPROVAL_TIMEOUT"),
			Destination: &approvalTimeout,
		},
		&cli.DurationFlag{
			Name:        "backfill-interval",
			Usage:       "Interval of the embedding backfill worker (0 disables it)",
			Value:       5 * time.Minute,
			Sources:     cli.EnvVars("DOCUFY_BACKFILL_INTERVAL"),
			Destination: &backfillInterval,
		},
	}

	// Add shared config flags
	flags = append(flags, workspacesCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, llmCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			sentryClose, err := sentryCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to initialize error reporting")
			}
			defer sentryClose()

			registry, err := workspacesCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load workspace configurations")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			llmClient, err := llmCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize LLM client")
			}
			if llmClient == nil {
				return goerr.New("LLM provider is not configured; chat and memory features require one")
			}

			ucOpts := []usecase.Option{
				usecase.WithApprovalTimeout(approvalTimeout),
			}

			if notionToken != "" {
				notionSvc, err := notion.New(notionToken)
				if err != nil {
					return goerr.Wrap(err, "failed to initialize notion service")
				}
				ucOpts = append(ucOpts, usecase.WithNotion(notionSvc))
				logger.Info("Notion import enabled")
			}

			if jinaAPIKey != "" {
				ucOpts = append(ucOpts, usecase.WithWebSearch(websearch.New(jinaAPIKey)))
				logger.Info("Web search tool enabled")
			}

			uc, err := usecase.New(repo, llmClient, registry, ucOpts...)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize use cases")
			}

			// Start embedding backfill worker
			var backfillWorker *worker.EmbeddingBackfillWorker
			if backfillInterval > 0 {
				embedder, err := embedding.New(llmClient)
				if err != nil {
					return goerr.Wrap(err, "failed to initialize embedding service")
				}
				var workspaceIDs []string
				for _, ws := range registry.Workspaces() {
					workspaceIDs = append(workspaceIDs, ws.ID)
				}
				backfillWorker = worker.NewEmbeddingBackfillWorker(repo, embedder, workspaceIDs, backfillInterval)
				if err := backfillWorker.Start(ctx); err != nil {
					return goerr.Wrap(err, "failed to start embedding backfill worker")
				}
			}

			httpHandler, err := httpctrl.New(uc, httpctrl.WithWorkspaceRegistry(registry))
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				if backfillWorker != nil {
					backfillWorker.Stop()
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}
