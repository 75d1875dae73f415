package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	"github.com/docufy-dev/docufy/pkg/domain/model"
)

// Workspaces holds CLI flags for workspace configuration
type Workspaces struct {
	configPath string
}

// WorkspaceDefinition is one workspace entry in the TOML config file
type WorkspaceDefinition struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Language    string `toml:"language"`
	MemoryLimit int    `toml:"memory_limit"`
}

// Validate checks if the WorkspaceDefinition is valid
func (w *WorkspaceDefinition) Validate() error {
	if w.ID == "" {
		return goerr.Wrap(ErrMissingWorkspaceID, "invalid workspace definition")
	}
	if w.Name == "" {
		return goerr.Wrap(ErrMissingWorkspaceName, "invalid workspace definition", goerr.V("id", w.ID))
	}
	if w.MemoryLimit < 0 {
		return goerr.Wrap(ErrInvalidConfig, "memory_limit must not be negative",
			goerr.V("id", w.ID), goerr.V("memory_limit", w.MemoryLimit))
	}
	return nil
}

type workspacesFile struct {
	Workspaces []WorkspaceDefinition `toml:"workspace"`
}

// Flags returns CLI flags for workspace configuration
func (w *Workspaces) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "workspaces",
			Usage:       "Path to workspace definitions TOML file",
			Sources:     cli.EnvVars("DOCUFY_WORKSPACES"),
			Destination: &w.configPath,
		},
	}
}

// Configure loads the workspace definitions and builds the registry.
// Without a config file a single "default" workspace is registered so
// the service is usable out of the box.
func (w *Workspaces) Configure() (*model.WorkspaceRegistry, error) {
	registry := model.NewWorkspaceRegistry()

	if w.configPath == "" {
		registry.Register(&model.WorkspaceEntry{
			Workspace: model.Workspace{ID: "default", Name: "Default"},
		})
		return registry, nil
	}

	defs, err := LoadWorkspaceDefinitions(w.configPath)
	if err != nil {
		return nil, err
	}
	for _, def := range defs {
		registry.Register(&model.WorkspaceEntry{
			Workspace:   model.Workspace{ID: def.ID, Name: def.Name},
			Language:    def.Language,
			MemoryLimit: def.MemoryLimit,
		})
	}
	return registry, nil
}

// LoadWorkspaceDefinitions loads and validates workspace definitions
// from a TOML file
func LoadWorkspaceDefinitions(path string) ([]WorkspaceDefinition, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrConfigNotFound, "failed to read workspace config", goerr.V("path", path))
		}
		return nil, goerr.Wrap(err, "failed to read workspace config", goerr.V("path", path))
	}

	var file workspacesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse workspace config", goerr.V("path", path))
	}
	if len(file.Workspaces) == 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "workspace config defines no workspaces", goerr.V("path", path))
	}

	seen := make(map[string]bool)
	for _, def := range file.Workspaces {
		if err := def.Validate(); err != nil {
			return nil, goerr.Wrap(err, "workspace config validation failed", goerr.V("path", path))
		}
		if seen[def.ID] {
			return nil, goerr.Wrap(ErrDuplicateWorkspaceID, "workspace config validation failed",
				goerr.V("path", path), goerr.V("id", def.ID))
		}
		seen[def.ID] = true
	}

	return file.Workspaces, nil
}
