// Package ui styles the messages gridcard writes to stderr. Colors are only
// emitted when the target is a terminal that supports them.
package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Semantic colors, shared by light and dark terminals.
var (
	Destructive = lipgloss.Color("#e53935") // Red
	Warning     = lipgloss.Color("#FFC107") // Yellow
	Success     = lipgloss.Color("#8BC34A") // Lime Green
)

// Muted text differs between light and dark backgrounds.
var Muted = lipgloss.AdaptiveColor{Light: "#6a737d", Dark: "#9aa5b1"}

// Styles holds the styles for one output stream.
type Styles struct {
	Error   lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
	Muted   lipgloss.Style
}

// NewStyles creates styles bound to w. The color profile and background are
// detected from w, so a pipe or file gets plain text.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	if os.Getenv("GRIDCARD_DARK_MODE") == "1" {
		r.SetHasDarkBackground(true)
	}

	return Styles{
		Error: r.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: r.NewStyle().
			Foreground(Warning).
			Bold(true),

		Success: r.NewStyle().
			Foreground(Success),

		Muted: r.NewStyle().
			Foreground(Muted),
	}
}

// RenderError formats err as a one-line error report.
func (s Styles) RenderError(err error) string {
	return s.Error.Render("error:") + " " + err.Error()
}

// RenderWarning formats a one-line warning.
func (s Styles) RenderWarning(msg string) string {
	return s.Warning.Render("warning:") + " " + msg
}

// RenderHint formats a secondary line shown below an error or warning.
func (s Styles) RenderHint(msg string) string {
	return s.Muted.Render(msg)
}

// RenderSuccess formats a confirmation line.
func (s Styles) RenderSuccess(msg string) string {
	return s.Success.Render(msg)
}
