package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/zpdzap/sitebuilder/internal/console"
	"github.com/zpdzap/sitebuilder/internal/sandbox"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFD700")).
			Background(lipgloss.Color("#1a1a2e")).
			Padding(0, 2)

	dividerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#333333"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555")).
			Padding(0, 1)

	paneTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Bold(true).
			Padding(0, 1)

	focusedTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFD700")).
				Bold(true).
				Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	selectedNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFD700")).
				Bold(true)

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	addressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5599FF")).
			Underline(true)

	hotkeysStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555")).
			Padding(0, 2)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Padding(0, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4444")).
			Padding(0, 2)

	// Step status icons
	stepPending    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	stepInProgress = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00"))
	stepCompleted  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00CC00"))

	// File tree
	treeBranchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	treeDirStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5599FF")).Bold(true)
	treeFileStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	treeCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true)

	// Code viewer
	viewerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFD700")).
				Padding(0, 1)

	lineNumberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555"))

	// Help modal
	helpStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FFD700")).
			Padding(1, 2).
			Foreground(lipgloss.Color("#FFFFFF"))

	helpHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5599FF"))

	helpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
)

// Console line colors by classification.
var levelColors = map[console.Level]lipgloss.Color{
	console.LevelInfo:    lipgloss.Color("#AAAAAA"),
	console.LevelError:   lipgloss.Color("#FF4444"),
	console.LevelWarning: lipgloss.Color("#FFAA00"),
	console.LevelSuccess: lipgloss.Color("#00CC00"),
	console.LevelCommand: lipgloss.Color("#5599FF"),
	console.LevelMuted:   lipgloss.Color("#555555"),
}

func levelStyle(r *lipgloss.Renderer, l console.Level) lipgloss.Style {
	s := r.NewStyle().Foreground(levelColors[l])
	if l == console.LevelCommand {
		s = s.Bold(true)
	}
	return s
}

// sandbox state colors
var stateColors = map[sandbox.State]lipgloss.Color{
	sandbox.StateBooting:    lipgloss.Color("#FFAA00"),
	sandbox.StateInstalling: lipgloss.Color("#FFAA00"),
	sandbox.StateStarting:   lipgloss.Color("#FFAA00"),
	sandbox.StateReady:      lipgloss.Color("#00FF00"),
	sandbox.StateFailed:     lipgloss.Color("#FF0000"),
}

func stateIcon(s sandbox.State) string {
	switch s {
	case sandbox.StateReady:
		return "●"
	case sandbox.StateFailed:
		return "✗"
	case "":
		return "○"
	default:
		return "◌"
	}
}
