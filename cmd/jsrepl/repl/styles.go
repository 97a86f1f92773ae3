package repl

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used by the prompt.
type Styles struct {
	Banner lipgloss.Style
	Prompt lipgloss.Style
	Error  lipgloss.Style
	Muted  lipgloss.Style
}

// DefaultStyles returns the standard color scheme.
func DefaultStyles() Styles {
	return Styles{
		Banner: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		Prompt: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4")),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Muted:  lipgloss.NewStyle().Faint(true),
	}
}
