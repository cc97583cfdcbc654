package commands

import (
	"fmt"

	"github.com/leapstack-labs/macroscan/internal/cli/output"
	"github.com/leapstack-labs/macroscan/internal/scan"
	"github.com/spf13/cobra"
)

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Extract #define macros from every file in the manifest",
		Long: `Read the manifest, extract every #define from the listed files and write
them to the CSV sink in manifest order. Macros whose definition cannot be
determined are written to the diagnostic file instead.

Both sinks live in the output directory and are reset at the start of
each scan. With --index the run is also recorded in the macro index.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json, yaml`,
		Example: `  # Scan the files listed in ./input.txt into ./Output
  macroscan scan

  # Use another manifest and output directory
  macroscan scan --manifest lists/headers.txt --output-dir build/macros

  # Only headers, keep going past unreadable files, record the run
  macroscan scan --extensions .h,.hpp --continue-on-error --index

  # Machine-readable summary
  macroscan scan -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd)
		},
	}

	return cmd
}

func runScan(cmd *cobra.Command) error {
	cfg := getConfig()
	if err := cfg.ValidateManifest(); err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd, cfg.Index)
	if err != nil {
		return err
	}
	defer cleanup()

	scanner, err := cmdCtx.NewScanner()
	if err != nil {
		return err
	}

	summary, runErr := scanner.Run(cmd.Context())
	if summary != nil {
		if err := renderSummary(cmdCtx, summary); err != nil {
			return err
		}
	}
	if runErr != nil {
		return fmt.Errorf("scan failed: %w", runErr)
	}
	return nil
}

// renderSummary prints one scan result in the renderer's mode.
func renderSummary(c *CommandContext, s *scan.Summary) error {
	r := c.Renderer
	if handled, err := r.Data(s); handled {
		return err
	}

	root := c.Cfg.ProjectRoot
	r.Header(1, fmt.Sprintf("Scan (%d files)", len(s.Files)))

	rows := make([][]string, 0, len(s.Files))
	for _, f := range s.Files {
		status := "ok"
		if f.Error != "" {
			status = f.Error
		}
		rows = append(rows, []string{
			f.Path,
			fmt.Sprintf("%d", f.Macros),
			fmt.Sprintf("%d", f.Rows),
			fmt.Sprintf("%d", f.Diagnostics),
			status,
		})
	}
	r.Table([]string{"File", "Macros", "Rows", "Diagnostics", "Status"}, rows)
	r.Println("")

	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatKeyValue("Rows", fmt.Sprintf("%d", s.Rows)))
		r.Println(output.FormatKeyValue("Diagnostics", fmt.Sprintf("%d", s.Diagnostics)))
		r.Println(output.FormatKeyValue("Failures", fmt.Sprintf("%d", s.Failures)))
		if len(s.Skipped) > 0 {
			r.Println(output.FormatKeyValue("Skipped", fmt.Sprintf("%d", len(s.Skipped))))
		}
		r.Println(output.FormatKeyValue("CSV", output.FormatCode(displayPath(root, s.CSVPath))))
		r.Println(output.FormatKeyValue("Diagnostic file", output.FormatCode(displayPath(root, s.DebugPath))))
		if s.RunID != "" {
			r.Println(output.FormatKeyValue("Run", output.FormatCode(s.RunID)))
		}
		r.Println(output.FormatKeyValue("Duration", output.FormatDuration(s.Duration)))
		return nil
	}

	detail := fmt.Sprintf("%d rows, %d diagnostics in %s", s.Rows, s.Diagnostics, output.FormatDuration(s.Duration))
	if s.Failures > 0 {
		r.StatusLine(fmt.Sprintf("%d of %d files failed", s.Failures, len(s.Files)), "failed", detail)
	} else {
		r.StatusLine("Scan complete", "success", detail)
	}
	if len(s.Skipped) > 0 {
		r.StatusLine(fmt.Sprintf("%d files skipped by extension", len(s.Skipped)), "skipped", "")
	}
	r.Muted("CSV:        " + displayPath(root, s.CSVPath))
	r.Muted("Diagnostic: " + displayPath(root, s.DebugPath))
	if s.RunID != "" {
		r.Muted("Run:        " + s.RunID)
	}
	return nil
}
