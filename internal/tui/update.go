package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zpdzap/sitebuilder/internal/sandbox"
)

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 6 // account for "  > /" prefix
		return m, nil

	case statusTickMsg:
		m.refreshTree()
		return m, tickCmd()

	case promptDoneMsg:
		m.refreshTree()
		if msg.err != nil {
			m.message = fmt.Sprintf("Prompt failed: %v", msg.err)
			m.isError = true
		} else {
			m.message = fmt.Sprintf("%s (%d step%s)", msg.reply, msg.added, plural(msg.added))
			m.isError = false
		}
		return m, nil

	case stepsLoadedMsg:
		m.refreshTree()
		if msg.err != nil {
			m.message = fmt.Sprintf("Loading steps failed: %v", msg.err)
			m.isError = true
		} else {
			m.message = fmt.Sprintf("Added %d step%s", msg.added, plural(msg.added))
			m.isError = false
		}
		return m, nil

	case sandboxDoneMsg:
		m.starting = false
		if msg.err != nil {
			m.message = fmt.Sprintf("Sandbox failed: %v (r or /restart to retry)", msg.err)
			m.isError = true
		} else if st, err := m.session.Sandbox(); err == nil {
			m.message = fmt.Sprintf("Dev server ready at %s", st.Address)
			m.isError = false
		}
		return m, nil

	case exportDoneMsg:
		if msg.ok {
			m.message = fmt.Sprintf("Exported %s", msg.path)
			m.isError = false
		} else {
			m.message = "Export failed, see console"
			m.isError = true
		}
		return m, nil

	case tea.KeyMsg:
		if m.commanding {
			return m.handleCommandMode(msg)
		}
		if m.viewing != nil {
			return m.handleViewerMode(msg)
		}
		return m.handleNormalMode(msg)
	}

	// Forward to input if in command mode
	if m.commanding {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleNormalMode handles keys when navigating the panes.
func (m model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Dismiss help modal
	if m.showHelp {
		if msg.String() == "?" || msg.String() == "esc" {
			m.showHelp = false
			return m, nil
		}
		// While help is showing, ignore other keys
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit

	case "/":
		m.commanding = true
		m.input.Focus()
		m.input.SetValue("")
		return m, textinput.Blink

	case "p":
		m.commanding = true
		m.input.Focus()
		m.input.SetValue("prompt ")
		m.input.SetCursor(7)
		return m, textinput.Blink

	case "tab":
		m.focus = (m.focus + 1) % 3
		if m.focus == paneConsole && !m.session.Console().Visible() {
			m.focus = paneSteps
		}
		return m, nil

	case "shift+tab":
		m.focus = (m.focus + 2) % 3
		if m.focus == paneConsole && !m.session.Console().Visible() {
			m.focus = paneFiles
		}
		return m, nil

	case "up", "k":
		m.moveCursor(-1)
		return m, nil

	case "down", "j":
		m.moveCursor(1)
		return m, nil

	case "enter":
		if m.focus == paneFiles && m.fileCursor < len(m.rows) {
			if n := m.rows[m.fileCursor].node; !n.IsDir() {
				m.viewing = n
				m.viewScroll = 0
			}
		}
		return m, nil

	case "c":
		m.session.Console().Clear()
		return m, nil

	case "t":
		if !m.session.Console().Toggle() && m.focus == paneConsole {
			m.focus = paneSteps
		}
		return m, nil

	case "e":
		return m.export("", "")

	case "r":
		return m.restart()

	case "?":
		m.showHelp = !m.showHelp
		return m, nil
	}

	return m, nil
}

// handleViewerMode handles keys while a file is open in the code viewer.
func (m model) handleViewerMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := max(1, m.viewerHeight()-1)
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "esc", "q", "enter":
		m.viewing = nil
	case "up", "k":
		m.viewScroll = max(0, m.viewScroll-1)
	case "down", "j":
		m.viewScroll++
	case "pgup", "b":
		m.viewScroll = max(0, m.viewScroll-page)
	case "pgdown", " ", "f":
		m.viewScroll += page
	case "g":
		m.viewScroll = 0
	}
	return m, nil
}

// handleCommandMode handles keys when the command input is active.
func (m model) handleCommandMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "esc":
		m.commanding = false
		m.input.Blur()
		m.input.SetValue("")
		return m, nil

	case "enter":
		m.commanding = false
		m.input.Blur()
		return m.processInput()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) moveCursor(delta int) {
	switch m.focus {
	case paneSteps:
		n := len(m.session.Steps())
		m.stepCursor = clamp(m.stepCursor+delta, 0, n-1)
	case paneFiles:
		m.fileCursor = clamp(m.fileCursor+delta, 0, len(m.rows)-1)
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

func (m model) processInput() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	// Allow commands with or without the / prefix
	if input[0] != '/' {
		input = "/" + input
	}
	cmd := ParseCommand(input)
	if cmd == nil {
		return m, nil
	}

	switch cmd.Name {
	case "/prompt":
		if cmd.Rest == "" {
			m.message = "Usage: /prompt <what to build>"
			m.isError = true
			return m, nil
		}
		m.message = "Thinking..."
		m.isError = false
		s, ctx, text := m.session, m.ctx, cmd.Rest
		return m, func() tea.Msg {
			reply, added, err := s.Prompt(ctx, text)
			return promptDoneMsg{reply: reply, added: added, err: err}
		}

	case "/steps":
		if len(cmd.Args) == 0 {
			m.message = "Usage: /steps <file> [file...]"
			m.isError = true
			return m, nil
		}
		s, ctx, files := m.session, m.ctx, cmd.Args
		return m, func() tea.Msg {
			added, err := s.LoadSteps(ctx, files...)
			return stepsLoadedMsg{added: added, err: err}
		}

	case "/open":
		if len(cmd.Args) == 0 {
			m.message = "Usage: /open <path>"
			m.isError = true
			return m, nil
		}
		n, ok := m.session.Tree().Lookup(cmd.Args[0])
		if !ok || n.IsDir() {
			m.message = fmt.Sprintf("No file at %s", cmd.Args[0])
			m.isError = true
			return m, nil
		}
		m.viewing = n
		m.viewScroll = 0
		return m, nil

	case "/export":
		dir, name := "", ""
		if len(cmd.Args) > 0 {
			dir = cmd.Args[0]
		}
		if len(cmd.Args) > 1 {
			name = cmd.Args[1]
		}
		return m.export(dir, name)

	case "/clear":
		m.session.Console().Clear()
		return m, nil

	case "/toggle":
		m.session.Console().Toggle()
		return m, nil

	case "/restart":
		return m.restart()

	case "/quit":
		m.quitting = true
		return m, tea.Quit

	default:
		m.message = fmt.Sprintf("Unknown command: %s", cmd.Name)
		m.isError = true
		return m, nil
	}
}

func (m model) export(dir, name string) (tea.Model, tea.Cmd) {
	if m.session.Tree().Empty() {
		m.message = "Nothing to export yet"
		m.isError = true
		return m, nil
	}
	m.message = "Exporting..."
	m.isError = false
	s := m.session
	return m, func() tea.Msg {
		path, ok := s.Export(dir, name)
		return exportDoneMsg{path: path, ok: ok}
	}
}

func (m model) restart() (tea.Model, tea.Cmd) {
	st, err := m.session.Sandbox()
	if m.starting || (err == nil && st.State != sandbox.StateFailed) {
		m.message = "Sandbox is not in a failed state"
		m.isError = true
		return m, nil
	}
	m.starting = true
	m.message = "Restarting sandbox..."
	m.isError = false
	return m, startCmd(m.ctx, m.session)
}
