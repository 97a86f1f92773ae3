package repl

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const helpMarkdown = `# jsrepl

Type a JavaScript expression and it is evaluated in the attached runtime.
The result value stays remote; what you see is its rendered form.

* ` + "`_`" + ` holds the last result, ` + "`_error`" + ` the last thrown value
* ` + "`await`" + ` works at the top level; declared bindings stay visible

## Commands

| Command  | Effect                          |
|----------|---------------------------------|
| .help    | show this help                  |
| .info    | session and connection details  |
| .clear   | clear the transcript            |
| .exit    | leave the prompt                |
`

// handleCommand dispatches a .command line.
func (m Model) handleCommand(line string) (tea.Model, tea.Cmd) {
	cmd := strings.Fields(line)[0]
	switch cmd {
	case ".exit", ".quit":
		m.quitting = true
		return m, tea.Quit

	case ".clear":
		m.transcript = nil
		m.viewport.SetContent("")
		return m, nil

	case ".help":
		m.transcript = append(m.transcript, entry{
			input:      line,
			output:     m.renderMarkdown(helpMarkdown),
			commandOut: true,
		})

	case ".info":
		session := m.engine.Session()
		info := fmt.Sprintf("session %s\nendpoint %s\nevaluations %d",
			session.ID, m.endpoint, session.Count())
		m.transcript = append(m.transcript, entry{
			input:      line,
			output:     m.styles.Muted.Render(info),
			commandOut: true,
		})

	default:
		m.transcript = append(m.transcript, entry{
			input:  line,
			output: m.styles.Error.Render(fmt.Sprintf("unknown command %s (try .help)", cmd)),
		})
	}

	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
	return m, nil
}

// renderMarkdown renders help text, falling back to the raw markdown when
// the renderer is unavailable or panics.
func (m Model) renderMarkdown(src string) (out string) {
	defer func() {
		if recover() != nil {
			out = src
		}
	}()
	if m.renderer == nil {
		return src
	}
	rendered, err := m.renderer.Render(src)
	if err != nil {
		return src
	}
	return rendered
}
