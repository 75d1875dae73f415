package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/docufy-dev/docufy/pkg/cli/config"
	"github.com/docufy-dev/docufy/pkg/utils/logging"
)

func cmdValidate() *cli.Command {
	var workspacesCfg config.Workspaces

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the workspace configuration file",
		Flags:   workspacesCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.From(ctx)

			registry, err := workspacesCfg.Configure()
			if err != nil {
				return err
			}

			for _, entry := range registry.List() {
				logger.Info("Workspace",
					"id", entry.Workspace.ID,
					"name", entry.Workspace.Name,
					"language", entry.Language,
					"memoryLimit", entry.MemoryLimit)
			}
			logger.Info("Workspace configuration is valid", "count", len(registry.List()))
			return nil
		},
	}
}
