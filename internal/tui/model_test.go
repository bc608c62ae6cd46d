package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zpdzap/sitebuilder/internal/session"
	"github.com/zpdzap/sitebuilder/internal/steps"
)

func testModel(t *testing.T) model {
	t.Helper()
	s := session.New(session.Options{})
	_, err := s.AddSteps(context.Background(), []steps.BuildStep{
		{Kind: steps.CreateFile, Title: "Home", Path: "/index.html", Payload: "<h1>hi</h1>"},
		{Kind: steps.CreateFile, Title: "Script", Path: "/src/app.js", Payload: "run()"},
	})
	if err != nil {
		t.Fatal(err)
	}
	m := newModel(context.Background(), s)
	m.width, m.height = 100, 30
	return m
}

func press(m model, key string) model {
	var msg tea.KeyMsg
	switch key {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(model)
}

func TestModelOpensFileFromTree(t *testing.T) {
	m := testModel(t)
	if len(m.rows) != 3 {
		t.Fatalf("rows = %d, want 3 (src/, app.js, index.html)", len(m.rows))
	}

	m = press(m, "tab")
	if m.focus != paneFiles {
		t.Fatalf("focus = %v, want files", m.focus)
	}
	m = press(m, "down") // src/app.js
	m = press(m, "enter")
	if m.viewing == nil || m.viewing.Path != "/src/app.js" {
		t.Fatalf("viewing = %+v", m.viewing)
	}
	if !strings.Contains(m.View(), "/src/app.js") {
		t.Error("viewer does not show the file path")
	}

	m = press(m, "esc")
	if m.viewing != nil {
		t.Error("esc should close the viewer")
	}
}

func TestModelConsoleKeys(t *testing.T) {
	m := testModel(t)
	m.session.Console().Append("npm ERR! broken")

	m = press(m, "c")
	lines := m.session.Console().Lines()
	if len(lines) != 1 || lines[0] != "Console cleared" {
		t.Errorf("console after c = %q", lines)
	}

	m = press(m, "t")
	if m.session.Console().Visible() {
		t.Error("t should hide the console")
	}
	if strings.Contains(m.View(), "Console cleared") {
		t.Error("hidden console still rendered")
	}
}

func TestModelOpenCommand(t *testing.T) {
	m := testModel(t)
	m.commanding = true
	m.input.SetValue("/open /index.html")
	next, _ := m.processInput()
	m = next.(model)
	if m.viewing == nil || m.viewing.Content != "<h1>hi</h1>" {
		t.Errorf("viewing = %+v", m.viewing)
	}

	m.viewing = nil
	m.input.SetValue("open /missing.txt")
	next, _ = m.processInput()
	m = next.(model)
	if !m.isError {
		t.Error("opening a missing file should report an error")
	}
}

func TestModelUnknownCommand(t *testing.T) {
	m := testModel(t)
	m.input.SetValue("/frobnicate")
	next, _ := m.processInput()
	m = next.(model)
	if !m.isError || !strings.Contains(m.message, "Unknown command") {
		t.Errorf("message = %q", m.message)
	}
}

func TestScrollOffset(t *testing.T) {
	tests := []struct{ cursor, height, total, want int }{
		{0, 5, 3, 0},
		{4, 5, 10, 0},
		{5, 5, 10, 1},
		{9, 5, 10, 5},
	}
	for _, tt := range tests {
		if got := scrollOffset(tt.cursor, tt.height, tt.total); got != tt.want {
			t.Errorf("scrollOffset(%d, %d, %d) = %d, want %d", tt.cursor, tt.height, tt.total, got, tt.want)
		}
	}
}
