package config_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/docufy-dev/docufy/pkg/cli/config"
)

func TestLogger_Configure(t *testing.T) {
	t.Run("configures console logger", func(t *testing.T) {
		cfg := config.NewLoggerForTest("info", "console", "stderr")
		closer, err := cfg.Configure()
		gt.NoError(t, err).Required()
		closer()
	})

	t.Run("configures json logger", func(t *testing.T) {
		cfg := config.NewLoggerForTest("debug", "json", "stderr")
		closer, err := cfg.Configure()
		gt.NoError(t, err).Required()
		closer()
	})

	t.Run("rejects invalid level", func(t *testing.T) {
		cfg := config.NewLoggerForTest("loud", "console", "stderr")
		_, err := cfg.Configure()
		gt.Error(t, err)
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		cfg := config.NewLoggerForTest("info", "xml", "stderr")
		_, err := cfg.Configure()
		gt.Error(t, err)
	})
}
