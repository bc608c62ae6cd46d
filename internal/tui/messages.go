package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// statusTickMsg triggers a poll of the session state.
type statusTickMsg time.Time

// promptDoneMsg is sent when the instruction source answered a prompt.
type promptDoneMsg struct {
	reply string
	added int
	err   error
}

// stepsLoadedMsg is sent when step files were applied.
type stepsLoadedMsg struct {
	added int
	err   error
}

// sandboxDoneMsg is sent when the sandbox lifecycle reached ready or failed.
type sandboxDoneMsg struct {
	err error
}

// exportDoneMsg is sent when an archive export finished.
type exportDoneMsg struct {
	path string
	ok   bool
}

// tickCmd returns a command that sends a tick every 250ms.
func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}
