package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/macroscan/internal/cli/config"
	"github.com/leapstack-labs/macroscan/internal/cli/output"
	"github.com/leapstack-labs/macroscan/internal/scan"
	"github.com/leapstack-labs/macroscan/internal/state"
	"github.com/spf13/cobra"
)

// Health check statuses.
const (
	statusPass  = "pass"
	statusWarn  = "warn"
	statusError = "error"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that a scan can run",
		Long: `Check the configuration, manifest, sources, output directory and macro
index without writing any scan output.

Every problem that would make "macroscan scan" fail, or silently scan less
than expected, is reported with the offending paths.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON/YAML: Machine-readable format`,
		Example: `  # Run health check
  macroscan doctor

  # Output as JSON
  macroscan doctor -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd)
		},
	}

	return cmd
}

// DoctorOutput is the json/yaml output of the doctor command.
type DoctorOutput struct {
	Summary      ProjectSummary `json:"summary" yaml:"summary"`
	HealthChecks []HealthCheck  `json:"health_checks" yaml:"health_checks"`
	Score        int            `json:"score" yaml:"score"`
	IssueCount   int            `json:"issue_count" yaml:"issue_count"`
}

// ProjectSummary counts manifest entries.
type ProjectSummary struct {
	ConfigFile string `json:"config_file,omitempty" yaml:"config_file,omitempty"`
	Sources    int    `json:"sources" yaml:"sources"`
	Accepted   int    `json:"accepted" yaml:"accepted"`
	Skipped    int    `json:"skipped" yaml:"skipped"`
	IndexRuns  int    `json:"index_runs" yaml:"index_runs"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Group      string   `json:"group" yaml:"group"`
	Status     string   `json:"status" yaml:"status"`
	IssueCount int      `json:"issue_count" yaml:"issue_count"`
	Details    []string `json:"details,omitempty" yaml:"details,omitempty"`
}

func newCheck(id, group, name string) HealthCheck {
	return HealthCheck{ID: id, Group: group, Name: name, Status: statusPass}
}

// fail records an issue, keeping the worst status seen.
func (h *HealthCheck) fail(status, detail string) {
	h.IssueCount++
	h.Details = append(h.Details, detail)
	if h.Status != statusError {
		h.Status = status
	}
}

func runDoctor(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, false)
	if err != nil {
		return err
	}
	defer cleanup()

	out := diagnose(cmd.Context(), cmdCtx.Cfg, config.GetConfigFileUsed())

	r := cmdCtx.Renderer
	if handled, err := r.Data(out); handled {
		return err
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		return renderDoctorMarkdown(r, out)
	}
	return renderDoctorText(r, out)
}

// diagnose runs every check against cfg.
func diagnose(ctx context.Context, cfg *config.Config, configFile string) *DoctorOutput {
	out := &DoctorOutput{Summary: ProjectSummary{ConfigFile: configFile}}

	cf := newCheck("CF01", "configuration", "Config file")
	if configFile == "" {
		cf.fail(statusWarn, "no macroscan.yaml found, using defaults (run 'macroscan init')")
	}
	out.HealthChecks = append(out.HealthChecks, cf)

	out.HealthChecks = append(out.HealthChecks, checkManifest(cfg, &out.Summary)...)
	out.HealthChecks = append(out.HealthChecks, checkOutputDir(cfg))
	out.HealthChecks = append(out.HealthChecks, checkIndex(ctx, cfg, &out.Summary))

	for _, c := range out.HealthChecks {
		out.IssueCount += c.IssueCount
	}
	out.Score = calculateHealthScore(out.HealthChecks)
	return out
}

func checkManifest(cfg *config.Config, summary *ProjectSummary) []HealthCheck {
	readable := newCheck("MF01", "manifest", "Manifest readable")
	exist := newCheck("MF02", "manifest", "Listed sources exist")
	decode := newCheck("MF03", "manifest", "Sources are UTF-8 text")
	dupes := newCheck("MF04", "manifest", "No duplicate entries")
	filtered := newCheck("MF05", "manifest", "Extension filter")

	sources, err := scan.ReadManifest(cfg.Manifest)
	if err != nil {
		readable.fail(statusError, err.Error())
		return []HealthCheck{readable}
	}

	filter := scan.NewExtensionFilter(cfg.Extensions)
	seen := make(map[string]bool, len(sources))
	summary.Sources = len(sources)

	for _, src := range sources {
		if seen[src.Resolved] {
			dupes.fail(statusWarn, src.Path+" is listed more than once")
		}
		seen[src.Resolved] = true

		if !filter.Accept(src.Path) {
			summary.Skipped++
			filtered.fail(statusWarn, src.Path+" is skipped by extensions")
			continue
		}
		summary.Accepted++

		if _, err := scan.LoadSource(src.Resolved); err != nil {
			switch {
			case errors.Is(err, scan.ErrDecode):
				decode.fail(statusError, src.Path)
			case errors.Is(err, fs.ErrNotExist):
				exist.fail(statusError, src.Path+" does not exist")
			default:
				exist.fail(statusError, fmt.Sprintf("%s: %v", src.Path, err))
			}
		}
	}

	if len(sources) == 0 {
		readable.fail(statusWarn, "manifest lists no sources")
	}
	return []HealthCheck{readable, exist, decode, dupes, filtered}
}

func checkOutputDir(cfg *config.Config) HealthCheck {
	check := newCheck("OU01", "output", "Output directory writable")

	if err := os.MkdirAll(cfg.OutputDir, 0o750); err != nil {
		check.fail(statusError, err.Error())
		return check
	}
	f, err := os.CreateTemp(cfg.OutputDir, ".macroscan-doctor-*")
	if err != nil {
		check.fail(statusError, err.Error())
		return check
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return check
}

func checkIndex(ctx context.Context, cfg *config.Config, summary *ProjectSummary) HealthCheck {
	check := newCheck("IX01", "index", "Macro index")

	if _, err := os.Stat(cfg.StatePath); os.IsNotExist(err) {
		if cfg.Index {
			check.Details = append(check.Details, "will be created on first indexed scan")
		}
		return check
	}

	store, err := state.Open(ctx, cfg.StatePath, nil)
	if err != nil {
		check.fail(statusError, err.Error())
		return check
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		check.fail(statusError, err.Error())
		return check
	}
	summary.IndexRuns = len(runs)
	if len(runs) > 0 && runs[0].Status == state.RunStatusFailed {
		check.fail(statusWarn, fmt.Sprintf("latest run %s failed: %s", runs[0].ID, runs[0].Error))
	}
	return check
}

// calculateHealthScore computes a score from 0-100: each warning costs 10
// points and each error 25.
func calculateHealthScore(checks []HealthCheck) int {
	score := 100
	for _, check := range checks {
		switch check.Status {
		case statusError:
			score -= 25
		case statusWarn:
			score -= 10
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("macroscan Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Println(styles.Header2.Render("Summary"))
	if out.Summary.ConfigFile != "" {
		r.Printf("   Config: %s\n", out.Summary.ConfigFile)
	}
	r.Printf("   Sources: %d | Scanned: %d | Skipped: %d | Indexed runs: %d\n",
		out.Summary.Sources, out.Summary.Accepted, out.Summary.Skipped, out.Summary.IndexRuns)
	r.Println("")

	r.Println(styles.Header2.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case statusWarn:
			icon = styles.Warning.Render("!")
		case statusError:
			icon = styles.StatusFailed.String()
		}

		line := fmt.Sprintf("%s %s: %s", icon, check.ID, check.Name)
		if check.IssueCount > 0 {
			line += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println("   " + line)

		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")
	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println(output.FormatHeader(1, "macroscan Health Report"))
	r.Println("")

	r.Println(output.FormatHeader(2, "Summary"))
	r.Println("")
	if out.Summary.ConfigFile != "" {
		r.Println(output.FormatKeyValue("Config", output.FormatCode(out.Summary.ConfigFile)))
	}
	r.Println(output.FormatKeyValue("Sources", fmt.Sprintf("%d", out.Summary.Sources)))
	r.Println(output.FormatKeyValue("Scanned", fmt.Sprintf("%d", out.Summary.Accepted)))
	r.Println(output.FormatKeyValue("Skipped", fmt.Sprintf("%d", out.Summary.Skipped)))
	r.Println(output.FormatKeyValue("Indexed runs", fmt.Sprintf("%d", out.Summary.IndexRuns)))
	r.Println("")

	r.Println(output.FormatHeader(2, "Health Checks"))
	r.Println("")

	currentGroup := ""
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(output.FormatHeader(3, output.FormatLabel(currentGroup)))
			r.Println("")
		}

		r.Printf("- **[%s]** %s: %s", strings.ToUpper(check.Status), check.ID, check.Name)
		if check.IssueCount > 0 {
			r.Printf(" (%d issues)", check.IssueCount)
		}
		r.Println("")
		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println(output.FormatHeader(2, "Health Score"))
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	return nil
}
