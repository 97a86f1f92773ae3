package repl

import (
	"strings"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "starting..."
	}

	var b strings.Builder
	b.WriteString(m.styles.Banner.Render("jsrepl"))
	b.WriteString(m.styles.Muted.Render("  " + m.endpoint))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.evaluating {
		b.WriteString(m.spinner.View())
		b.WriteString(m.styles.Muted.Render(" evaluating..."))
	} else {
		b.WriteString(m.input.View())
	}
	b.WriteString("\n")
	return b.String()
}

// renderTranscript flattens the completed interactions for the viewport.
func (m Model) renderTranscript() string {
	var b strings.Builder
	for i, e := range m.transcript {
		if i > 0 {
			b.WriteString("\n")
		}
		if !e.commandOut {
			b.WriteString(m.styles.Prompt.Render("> "))
			b.WriteString(e.input)
			b.WriteString("\n")
		}
		if e.output != "" {
			b.WriteString(e.output)
			b.WriteString("\n")
		}
	}
	return b.String()
}
