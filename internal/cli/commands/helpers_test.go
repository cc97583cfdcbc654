package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/macroscan/internal/cli/config"
)

// writeTestConfig writes macroscan.yaml into dir and loads it as the current
// configuration. The caller must already be inside dir.
func writeTestConfig(t *testing.T, dir, content string) *config.Config {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "macroscan.yaml"), []byte(content), 0o600))

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cfg, err := config.LoadConfig("", nil)
	require.NoError(t, err)
	return cfg
}
