package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/macroscan/internal/cli/config"
	"github.com/leapstack-labs/macroscan/internal/cli/output"
	"github.com/leapstack-labs/macroscan/internal/report"
	"github.com/leapstack-labs/macroscan/internal/scan"
	"github.com/leapstack-labs/macroscan/internal/state"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	// Store is nil unless the command opened the macro index.
	Store *state.SQLiteStore
}

// NewCommandContext creates a CommandContext. When withIndex is true the
// macro index at cfg.StatePath is opened and must be released with the
// returned cleanup function (typically via defer).
func NewCommandContext(cmd *cobra.Command, withIndex bool) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	mode, _ := output.ParseMode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	cmdCtx := &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
	if !withIndex {
		return cmdCtx, func() {}, nil
	}

	store, err := state.Open(cmd.Context(), cfg.StatePath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open macro index: %w", err)
	}
	cmdCtx.Store = store

	cleanup := func() {
		_ = store.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewScanner builds a scanner from the loaded configuration, feeding the
// macro index when one is open.
func (c *CommandContext) NewScanner() (*scan.Scanner, error) {
	scanCfg := scan.Config{
		Manifest:        c.Cfg.Manifest,
		OutputDir:       c.Cfg.OutputDir,
		CSVFile:         c.Cfg.CSVFile,
		DebugFile:       c.Cfg.DebugFile,
		DiagnosticsMode: report.DiagnosticsMode(c.Cfg.DiagnosticsMode),
		Workers:         c.Cfg.Workers,
		ContinueOnError: c.Cfg.ContinueOnError,
		Extensions:      c.Cfg.Extensions,
		Logger:          c.Logger,
	}
	if c.Store != nil {
		scanCfg.Index = c.Store
	}
	return scan.New(scanCfg)
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to
// defaults resolved against the working directory.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	cwd, _ := os.Getwd()
	return &config.Config{
		Manifest:        filepath.Join(cwd, config.DefaultManifest),
		OutputDir:       filepath.Join(cwd, config.DefaultOutputDir),
		CSVFile:         config.DefaultCSVFile,
		DebugFile:       config.DefaultDebugFile,
		DiagnosticsMode: config.DefaultDiagnosticsMode,
		StatePath:       filepath.Join(cwd, config.DefaultStateFile),
		Workers:         config.DefaultWorkers,
		OutputFormat:    os.Getenv("MACROSCAN_OUTPUT"),
		ProjectRoot:     cwd,
	}
}

// displayPath shortens p relative to the project root for human output.
func displayPath(root, p string) string {
	if root == "" {
		return p
	}
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return p
	}
	return rel
}
