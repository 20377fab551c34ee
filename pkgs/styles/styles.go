// Package styles contains the shared lipgloss styles for terminal output.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

type RenderFunc func(strs ...string) string

const (
	Check = "✔"
	Cross = "✘"
	Dot   = "•"
	Arrow = "→"
)

const (
	ColorSuccess = "#22c55e"
	ColorError   = "#d75f6b"
	ColorSubtle  = "#a3a3a3"
	ColorPath    = "#bb9af7"
)

var (
	Bold      = lipgloss.NewStyle().Bold(true).Render
	Padding   = lipgloss.NewStyle().PaddingLeft(1).Render
	Underline = lipgloss.NewStyle().Underline(true).Render

	Error   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).PaddingLeft(1).Render
	Subtle  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSubtle)).PaddingLeft(1).Render
	Path    = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPath)).Render
)

// ErrorBox renders a title and message inside a left-bordered error block.
func ErrorBox(title, message string) string {
	red := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
	subtle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSubtle))

	lines := []string{
		red.Render("╭ " + title),
		red.Render("│") + " " + subtle.Render(message),
		red.Render("╵"),
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
