package commands

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/macroscan/internal/cli/output"
	"github.com/leapstack-labs/macroscan/internal/state"
	"github.com/spf13/cobra"
)

// errNoRuns is returned when the index holds nothing to query.
var errNoRuns = errors.New("no indexed runs found\nHint: run 'macroscan scan --index' first")

// listResult is the json/yaml shape of the list command.
type listResult struct {
	Run    *state.Run          `json:"run" yaml:"run"`
	Macros []*state.MacroEntry `json:"macros" yaml:"macros"`
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var (
		runID       string
		file        string
		namePrefix  string
		diagnostics bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List macros recorded in the macro index",
		Long: `List the macros recorded by an indexed scan, in the order they were
extracted. The latest run is used unless --run selects another.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json, yaml`,
		Example: `  # Every macro from the latest indexed scan
  macroscan list

  # Macros from one file whose names start with CONFIG_
  macroscan list --file include/config.h --name CONFIG_

  # Only macros that went to the diagnostic file
  macroscan list --diagnostics -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, runID, state.Filter{
				File:            file,
				NamePrefix:      namePrefix,
				DiagnosticsOnly: diagnostics,
			})
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Run ID to query (default: latest)")
	cmd.Flags().StringVar(&file, "file", "", "Only macros defined in this manifest entry")
	cmd.Flags().StringVar(&namePrefix, "name", "", "Only macros whose name starts with this prefix")
	cmd.Flags().BoolVar(&diagnostics, "diagnostics", false, "Only macros without a determinable definition")

	return cmd
}

func runList(cmd *cobra.Command, runID string, filter state.Filter) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, true)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	store := cmdCtx.Store
	r := cmdCtx.Renderer

	run, err := selectRun(cmd, store, runID)
	if err != nil {
		return err
	}

	macros, err := store.ListMacros(ctx, run.ID, filter)
	if err != nil {
		return fmt.Errorf("failed to list macros: %w", err)
	}

	if handled, err := r.Data(listResult{Run: run, Macros: macros}); handled {
		return err
	}

	r.Header(1, fmt.Sprintf("Macros (%d)", len(macros)))
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatKeyValue("Run", output.FormatCode(run.ID)))
		r.Println(output.FormatKeyValue("Status", string(run.Status)))
		r.Println(output.FormatKeyValue("Started", run.StartedAt.Format("2006-01-02 15:04:05")))
		r.Println("")
	} else {
		r.Muted(fmt.Sprintf("run %s (%s, %s)", run.ID, run.Status, run.StartedAt.Format("2006-01-02 15:04:05")))
		r.Println("")
	}

	rows := make([][]string, 0, len(macros))
	for _, m := range macros {
		value := m.Value
		if !m.HasValue {
			value = "(none)"
		}
		rows = append(rows, []string{m.Identifier, value, m.File, string(m.Kind)})
	}
	r.Table([]string{"Macro Name", "Macro Definition", "Defined File Name", "Kind"}, rows)
	return nil
}

func selectRun(cmd *cobra.Command, store state.Store, runID string) (*state.Run, error) {
	if runID != "" {
		return store.GetRun(cmd.Context(), runID)
	}
	run, err := store.LatestRun(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to find latest run: %w", err)
	}
	if run == nil {
		return nil, errNoRuns
	}
	return run, nil
}
