package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Renderer writes command output in the configured mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	isTTY  bool
	styles *Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal flag.
// Colour is disabled whenever isTTY is false.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode) *Renderer {
	lr := lipgloss.NewRenderer(out)
	if !isTTY {
		lr.SetColorProfile(termenv.Ascii)
	}
	if mode == "" {
		mode = ModeAuto
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  isTTY,
		styles: NewStyles(lr),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: fd fits in int
}

// Mode returns the configured mode, which may be ModeAuto.
func (r *Renderer) Mode() Mode {
	return r.mode
}

// EffectiveMode resolves ModeAuto (and unknown modes) to text on a terminal
// and Markdown otherwise.
func (r *Renderer) EffectiveMode() Mode {
	switch r.mode {
	case ModeText, ModeMarkdown, ModeJSON, ModeYAML:
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether stdout is a terminal.
func (r *Renderer) IsTTY() bool {
	return r.isTTY
}

// Writer returns the stdout writer.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// ErrWriter returns the stderr writer.
func (r *Renderer) ErrWriter() io.Writer {
	return r.errOut
}

// Styles returns the text-mode styles.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Println writes a line to stdout.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted output to stdout.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a heading. Level 1 is the largest.
func (r *Renderer) Header(level int, text string) {
	if r.EffectiveMode() != ModeText {
		r.Println(FormatHeader(level, text))
		r.Println("")
		return
	}

	style := r.styles.Header2
	if level <= 1 {
		style = r.styles.Header1
	}
	r.Println(style.Render(text))
	if level <= 1 {
		r.Println(r.styles.Muted.Render(strings.Repeat("─", lipgloss.Width(text))))
	}
}

// Success writes a success message to stdout.
func (r *Renderer) Success(msg string) {
	if r.EffectiveMode() == ModeText {
		r.Println(r.styles.StatusSuccess.String() + " " + r.styles.Success.Render(msg))
		return
	}
	r.Println(msg)
}

// Muted writes a de-emphasized line to stdout.
func (r *Renderer) Muted(msg string) {
	if r.EffectiveMode() == ModeText {
		r.Println(r.styles.Muted.Render(msg))
		return
	}
	r.Println(msg)
}

// Warning writes a warning to stderr.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Warning.Render("Warning: "+msg))
}

// Error writes an error to stderr.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.styles.Error.Render("Error: "+msg))
}

// StatusLine writes "<icon> name" plus an optional muted detail. status is
// one of "success", "failed" or "skipped".
func (r *Renderer) StatusLine(name, status, detail string) {
	if r.EffectiveMode() != ModeText {
		line := fmt.Sprintf("- %s: %s", name, status)
		if detail != "" {
			line += " (" + detail + ")"
		}
		r.Println(line)
		return
	}

	icon := r.styles.StatusSuccess.String()
	switch status {
	case "failed":
		icon = r.styles.StatusFailed.String()
	case "skipped":
		icon = r.styles.StatusSkipped.String()
	}
	line := icon + " " + name
	if detail != "" {
		line += " " + r.styles.Muted.Render(detail)
	}
	r.Println(line)
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML writes v as YAML.
func (r *Renderer) YAML(v any) error {
	enc := yaml.NewEncoder(r.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Data writes v in JSON or YAML according to the effective mode. It returns
// false when the mode is neither, leaving human formatting to the caller.
func (r *Renderer) Data(v any) (bool, error) {
	switch r.EffectiveMode() {
	case ModeJSON:
		return true, r.JSON(v)
	case ModeYAML:
		return true, r.YAML(v)
	default:
		return false, nil
	}
}

// Table writes a table: box-drawn in text mode, GitHub Markdown otherwise.
// An empty table prints "(0 rows)".
func (r *Renderer) Table(header []string, rows [][]string) {
	if len(rows) == 0 {
		r.Println("(0 rows)")
		return
	}
	if r.EffectiveMode() != ModeText {
		r.markdownTable(header, rows)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, cell := range row {
			tr[i] = cell
		}
		t.AppendRow(tr)
	}
	t.Render()
}

func (r *Renderer) markdownTable(header []string, rows [][]string) {
	r.Printf("| %s |\n", strings.Join(header, " | "))
	seps := make([]string, len(header))
	for i := range seps {
		seps[i] = "---"
	}
	r.Printf("| %s |\n", strings.Join(seps, " | "))

	for _, row := range rows {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = escapeMarkdownCell(cell)
		}
		r.Printf("| %s |\n", strings.Join(cells, " | "))
	}
}

func escapeMarkdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
