package tui

import (
	"context"
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/zpdzap/sitebuilder/internal/session"
	"github.com/zpdzap/sitebuilder/internal/tree"
)

type pane int

const (
	paneSteps pane = iota
	paneFiles
	paneConsole
)

// model is the Bubble Tea model for the sitebuilder dashboard.
type model struct {
	ctx        context.Context
	session    *session.Session
	input      textinput.Model
	focus      pane
	message    string
	isError    bool
	commanding bool // true when in command mode (/ pressed)
	quitting   bool
	width      int
	height     int

	stepCursor int
	fileCursor int
	rows       []fileRow
	tree       *tree.Tree // tree the rows were built from

	// Code viewer; nil when closed
	viewing    *tree.Node
	viewScroll int
	profile    termenv.Profile

	starting bool // a Start call is in flight

	showHelp bool
}

func newModel(ctx context.Context, s *session.Session) model {
	ti := textinput.New()
	ti.Placeholder = "prompt, steps, open, export, clear, restart | quit"
	ti.CharLimit = 1024
	ti.Width = 80
	// Input starts unfocused, activated by pressing /
	ti.Blur()

	// Get initial terminal size so the first render isn't at width=0
	w, h, _ := term.GetSize(int(os.Stdout.Fd()))
	if w == 0 {
		w = 80
	}
	if h == 0 {
		h = 24
	}

	m := model{
		ctx:     ctx,
		session: s,
		input:   ti,
		width:   w,
		height:  h,
		profile: lipgloss.ColorProfile(),
		// Init starts the sandbox
		starting: true,
	}
	m.refreshTree()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), startCmd(m.ctx, m.session))
}

// refreshTree rebuilds file rows when the session tree was replaced.
func (m *model) refreshTree() {
	t := m.session.Tree()
	if t == m.tree {
		return
	}
	m.tree = t
	m.rows = fileRows(t)
	if m.fileCursor >= len(m.rows) {
		m.fileCursor = max(0, len(m.rows)-1)
	}
	// An open file follows edits to its path.
	if m.viewing != nil {
		if n, ok := t.Lookup(m.viewing.Path); ok && !n.IsDir() {
			m.viewing = n
		}
	}
}

// startCmd runs the sandbox lifecycle until ready or failed.
func startCmd(ctx context.Context, s *session.Session) tea.Cmd {
	return func() tea.Msg {
		return sandboxDoneMsg{err: s.Start(ctx)}
	}
}
