package commands

import (
	"fmt"

	"github.com/leapstack-labs/macroscan/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent indexed scan runs",
		Long:  `Show scan runs recorded in the macro index, newest first.`,
		Example: `  # Ten most recent runs
  macroscan runs

  # Every run as YAML
  macroscan runs --limit 0 -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRuns(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of runs (0 for all)")

	return cmd
}

func runRuns(cmd *cobra.Command, limit int) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, true)
	if err != nil {
		return err
	}
	defer cleanup()

	runs, err := cmdCtx.Store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	r := cmdCtx.Renderer
	if handled, err := r.Data(runs); handled {
		return err
	}

	r.Header(1, fmt.Sprintf("Runs (%d)", len(runs)))
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			output.FormatLabel(string(run.Status)),
			run.StartedAt.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d", run.Files),
			fmt.Sprintf("%d", run.RowsWritten),
			fmt.Sprintf("%d", run.Diagnostics),
			fmt.Sprintf("%d", run.Failures),
		})
	}
	r.Table([]string{"Run", "Status", "Started", "Files", "Rows", "Diagnostics", "Failures"}, rows)
	return nil
}
