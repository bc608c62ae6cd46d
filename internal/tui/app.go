package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zpdzap/sitebuilder/internal/session"
)

// Run starts the dashboard and blocks until the user quits. The sandbox
// lifecycle starts with the dashboard; its processes end with ctx.
func Run(ctx context.Context, s *session.Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newModel(ctx, s)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	if final, ok := result.(model); ok && final.quitting {
		fmt.Println("Goodbye! (dev server stopped; /export or sb export to save the project)")
	}
	return nil
}
