package commands

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/macroscan/internal/scan"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rescan whenever the manifest or a listed file changes",
		Long: `Run a scan, then watch the manifest and every file it lists. Any change
triggers a fresh scan; bursts of changes are coalesced. Press Ctrl+C to stop.`,
		Example: `  # Keep Output/output.csv up to date while editing headers
  macroscan watch

  # Record every rescan in the macro index
  macroscan watch --index`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd)
		},
	}

	return cmd
}

func runWatch(cmd *cobra.Command) error {
	cfg := getConfig()
	if err := cfg.ValidateManifest(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)

	cmdCtx, cleanup, err := NewCommandContext(cmd, cfg.Index)
	if err != nil {
		return err
	}
	defer cleanup()

	scanner, err := cmdCtx.NewScanner()
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	r.Muted("Watching " + displayPath(cfg.ProjectRoot, cfg.Manifest) + " (Ctrl+C to stop)")

	return scanner.Watch(ctx, func(summary *scan.Summary, err error) {
		if summary != nil {
			if rerr := renderSummary(cmdCtx, summary); rerr != nil {
				cmdCtx.Logger.Error("failed to render summary", slog.Any("error", rerr))
			}
		}
		if err != nil {
			r.Error(err.Error())
		}
	})
}
