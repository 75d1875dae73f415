package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/docufy-dev/docufy/pkg/cli/config"
)

func writeWorkspaceConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workspaces.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func TestWorkspaces_Configure(t *testing.T) {
	t.Run("loads workspace definitions", func(t *testing.T) {
		path := writeWorkspaceConfig(t, `
[[workspace]]
id = "ws-eng"
name = "Engineering"
language = "en"
memory_limit = 10

[[workspace]]
id = "ws-sales"
name = "Sales"
`)

		cfg := config.NewWorkspacesForTest(path)
		registry, err := cfg.Configure()
		gt.NoError(t, err).Required()

		entries := registry.List()
		gt.Array(t, entries).Length(2).Required()
		gt.Value(t, entries[0].Workspace.ID).Equal("ws-eng")
		gt.Value(t, entries[0].Language).Equal("en")
		gt.Number(t, entries[0].MemoryLimit).Equal(10)
		gt.Value(t, entries[1].Workspace.Name).Equal("Sales")
	})

	t.Run("registers default workspace without config file", func(t *testing.T) {
		cfg := config.NewWorkspacesForTest("")
		registry, err := cfg.Configure()
		gt.NoError(t, err).Required()

		entries := registry.List()
		gt.Array(t, entries).Length(1).Required()
		gt.Value(t, entries[0].Workspace.ID).Equal("default")
	})

	t.Run("rejects duplicate workspace ID", func(t *testing.T) {
		path := writeWorkspaceConfig(t, `
[[workspace]]
id = "ws-dup"
name = "First"

[[workspace]]
id = "ws-dup"
name = "Second"
`)

		_, err := config.NewWorkspacesForTest(path).Configure()
		gt.Error(t, err)
	})

	t.Run("rejects missing workspace name", func(t *testing.T) {
		path := writeWorkspaceConfig(t, `
[[workspace]]
id = "ws-anon"
`)

		_, err := config.NewWorkspacesForTest(path).Configure()
		gt.Error(t, err)
	})

	t.Run("rejects missing file", func(t *testing.T) {
		_, err := config.NewWorkspacesForTest("/no/such/file.toml").Configure()
		gt.Error(t, err)
	})

	t.Run("rejects empty workspace list", func(t *testing.T) {
		path := writeWorkspaceConfig(t, "")
		_, err := config.NewWorkspacesForTest(path).Configure()
		gt.Error(t, err)
	})
}
