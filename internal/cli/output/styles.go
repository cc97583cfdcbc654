package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	Identifier lipgloss.Style
	Value      lipgloss.Style
	File       lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
	StatusSkipped lipgloss.Style
}

// NewStyles builds styles bound to lr, so colour output follows lr's profile.
func NewStyles(lr *lipgloss.Renderer) *Styles {
	green := lipgloss.AdaptiveColor{Light: "#16A34A", Dark: "#4ADE80"}
	red := lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"}
	yellow := lipgloss.AdaptiveColor{Light: "#CA8A04", Dark: "#FACC15"}
	blue := lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}
	gray := lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	purple := lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

	return &Styles{
		Header1: lr.NewStyle().Bold(true).Foreground(purple),
		Header2: lr.NewStyle().Bold(true).Foreground(blue),
		Bold:    lr.NewStyle().Bold(true),
		Muted:   lr.NewStyle().Foreground(gray),
		Success: lr.NewStyle().Foreground(green),
		Warning: lr.NewStyle().Foreground(yellow),
		Error:   lr.NewStyle().Foreground(red).Bold(true),
		Info:    lr.NewStyle().Foreground(blue),

		Identifier: lr.NewStyle().Bold(true),
		Value:      lr.NewStyle().Foreground(green),
		File:       lr.NewStyle().Foreground(gray).Italic(true),

		StatusSuccess: lr.NewStyle().Foreground(green).SetString("✓"),
		StatusFailed:  lr.NewStyle().Foreground(red).SetString("✗"),
		StatusSkipped: lr.NewStyle().Foreground(gray).SetString("-"),
	}
}
