// Package output renders command results for terminals, scripts and agents.
//
// Output adapts to where it goes: styled text on a terminal, Markdown when
// piped, or JSON/YAML when asked for explicitly.
package output

import "fmt"

// Mode selects how a Renderer formats results.
type Mode string

// OutputMode is kept as an alias for call sites that spell it out.
type OutputMode = Mode

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
	ModeYAML     Mode = "yaml"
)

// Modes lists every accepted mode, in the order shown in help and completion.
var Modes = []Mode{ModeAuto, ModeText, ModeMarkdown, ModeJSON, ModeYAML}

// ModeNames returns Modes as strings.
func ModeNames() []string {
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return names
}

// Valid reports whether m is a known mode. The empty mode counts as auto.
func (m Mode) Valid() bool {
	if m == "" {
		return true
	}
	for _, known := range Modes {
		if m == known {
			return true
		}
	}
	return false
}

// ParseMode converts a user-supplied name into a Mode. "md" is accepted as
// shorthand for markdown.
func ParseMode(s string) (Mode, error) {
	if s == "md" {
		return ModeMarkdown, nil
	}
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown output mode %q (want one of %v)", s, ModeNames())
	}
	if m == "" {
		return ModeAuto, nil
	}
	return m, nil
}
