// Package repl provides the interactive terminal interface for jsrepl. The
// implementation is split across files:
//   - model.go: types, Init, Update loop (this file)
//   - commands.go: .command handling
//   - view.go: rendering
//   - styles.go: lipgloss styles
package repl

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"jsrepl/internal/eval"
	"jsrepl/internal/history"
)

// evalTimeout bounds one remote evaluation from the prompt.
const evalTimeout = 30 * time.Second

// entry is one completed interaction in the transcript.
type entry struct {
	input      string
	output     string // already styled
	commandOut bool
}

// resultMsg delivers a finished evaluation back into the update loop.
type resultMsg struct {
	input   string
	outcome eval.Outcome
	err     error
}

// Model is the bubbletea model for the prompt.
type Model struct {
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	styles   Styles
	renderer *glamour.TermRenderer

	engine   *eval.Engine
	pipe     eval.Pipeline
	hist     *history.File
	endpoint string
	log      *zap.Logger

	histLines []string
	histPos   int
	draft     string

	transcript []entry
	evaluating bool
	ready      bool
	width      int
	height     int
	quitting   bool
}

// New builds the REPL model. Loading history is best-effort.
func New(engine *eval.Engine, pipe eval.Pipeline, hist *history.File, endpoint string, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = `try 1+1, or .help`
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	lines, err := hist.Load()
	if err != nil {
		log.Warn("history unavailable", zap.Error(err))
	}

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err != nil {
		log.Warn("markdown renderer unavailable", zap.Error(err))
	}

	return Model{
		input:     input,
		spinner:   sp,
		styles:    DefaultStyles(),
		renderer:  renderer,
		engine:    engine,
		pipe:      pipe,
		hist:      hist,
		endpoint:  endpoint,
		log:       log,
		histLines: lines,
		histPos:   len(lines),
	}
}

// Run starts the interactive prompt and blocks until it exits.
func Run(engine *eval.Engine, pipe eval.Pipeline, hist *history.File, endpoint string, log *zap.Logger) error {
	_, err := tea.NewProgram(New(engine, pipe, hist, endpoint, log)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		footerHeight := 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case resultMsg:
		m.evaluating = false
		m.transcript = append(m.transcript, m.entryFor(msg))
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if !m.evaluating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyCtrlD:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyEnter:
		line := strings.TrimSpace(m.input.Value())
		if line == "" || m.evaluating {
			return m, nil
		}
		m.input.Reset()
		m.histLines = append(m.histLines, line)
		m.histPos = len(m.histLines)
		if err := m.hist.Append(line); err != nil {
			m.log.Warn("history append failed", zap.Error(err))
		}
		if strings.HasPrefix(line, ".") {
			return m.handleCommand(line)
		}
		m.evaluating = true
		return m, tea.Batch(m.spinner.Tick, m.evalCmd(line))

	case tea.KeyUp:
		if m.histPos > 0 {
			if m.histPos == len(m.histLines) {
				m.draft = m.input.Value()
			}
			m.histPos--
			m.input.SetValue(m.histLines[m.histPos])
			m.input.CursorEnd()
		}
		return m, nil

	case tea.KeyDown:
		if m.histPos < len(m.histLines) {
			m.histPos++
			if m.histPos == len(m.histLines) {
				m.input.SetValue(m.draft)
			} else {
				m.input.SetValue(m.histLines[m.histPos])
			}
			m.input.CursorEnd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// evalCmd runs one line against the remote runtime off the update loop.
func (m Model) evalCmd(line string) tea.Cmd {
	engine, pipe := m.engine, m.pipe
	return func() tea.Msg {
		translated, err := pipe.Run(line)
		if err != nil {
			return resultMsg{input: line, err: err}
		}
		topLevelAwait := eval.HasTopLevelAwait(translated)
		if topLevelAwait {
			translated = eval.WrapTopLevelAwait(translated)
		}
		ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
		defer cancel()
		outcome, err := engine.Evaluate(ctx, translated, topLevelAwait)
		return resultMsg{input: line, outcome: outcome, err: err}
	}
}

// entryFor converts a finished evaluation into a transcript entry,
// implementing the output-stream rules: error text or result text, never
// both, and nothing when the outcome suppresses error printing.
func (m Model) entryFor(msg resultMsg) entry {
	e := entry{input: msg.input}

	if msg.err != nil {
		var te *eval.TranslationError
		if errors.As(msg.err, &te) {
			e.output = m.styles.Error.Render(te.UserMessage())
		} else {
			e.output = m.styles.Error.Render(msg.err.Error())
		}
		return e
	}

	var parts []string
	if msg.outcome.Advisory != "" {
		parts = append(parts, m.styles.Muted.Render("note: "+msg.outcome.Advisory))
	}
	switch {
	case msg.outcome.SuppressErrorPrint:
		// A rejected deferred value reports through its own channel.
	case msg.outcome.Errored:
		parts = append(parts, m.styles.Error.Render(msg.outcome.Text))
	default:
		parts = append(parts, msg.outcome.Text)
	}
	e.output = strings.Join(parts, "\n")
	return e
}
