package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zpdzap/sitebuilder/internal/console"
	"github.com/zpdzap/sitebuilder/internal/sandbox"
	"github.com/zpdzap/sitebuilder/internal/steps"
)

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	if m.viewing != nil {
		b.WriteString(m.renderViewer())
	} else {
		mainH, consoleH := m.layout()
		b.WriteString(m.renderPanes(mainH))
		b.WriteString("\n")
		if consoleH > 0 {
			b.WriteString(m.renderConsole(consoleH))
		}
	}

	// Bottom divider
	b.WriteString(dividerStyle.Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	// Hotkeys
	switch {
	case m.commanding:
		b.WriteString(hotkeysStyle.Render("[enter] execute  [esc] cancel"))
	case m.viewing != nil:
		b.WriteString(hotkeysStyle.Render("[↑↓] scroll  [pgup/pgdn] page  [esc] close"))
	default:
		b.WriteString(hotkeysStyle.Render("[tab] pane  [↑↓] select  [enter] open  [p]rompt  [e]xport  [c]lear  [t]oggle console  [?] help"))
	}
	b.WriteString("\n")

	m.renderStatusAndInput(&b)

	if m.showHelp {
		return m.renderHelpOverlay(b.String())
	}
	return b.String()
}

// footerLines is the number of lines below the panes.
func (m model) footerLines() int {
	n := 2 // divider + hotkeys
	if m.message != "" {
		n += strings.Count(m.message, "\n") + 1
	}
	if m.commanding {
		n++
	}
	return n
}

// layout splits the space between header and footer into the step/file
// panes and the console.
func (m model) layout() (mainH, consoleH int) {
	avail := max(4, m.height-2-m.footerLines())
	if !m.session.Console().Visible() {
		return avail, 0
	}
	consoleH = max(3, avail*2/5)
	mainH = max(2, avail-consoleH)
	return mainH, consoleH
}

func (m model) viewerHeight() int {
	return max(2, m.height-2-m.footerLines())
}

func (m model) renderHeader() string {
	title := "sitebuilder"
	status := "○ sandbox idle"
	st, err := m.session.Sandbox()
	if err == nil {
		style := lipgloss.NewStyle().Foreground(stateColors[st.State]).Background(lipgloss.Color("#1a1a2e"))
		status = style.Render(stateIcon(st.State) + " " + st.Status)
		if st.State == sandbox.StateReady {
			status = style.Render(stateIcon(st.State)+" ready ") + addressStyle.Background(lipgloss.Color("#1a1a2e")).Render(st.Address)
		}
	}
	gap := max(1, m.width-lipgloss.Width(title)-lipgloss.Width(status)-4)
	return headerStyle.Width(m.width).Render(title + strings.Repeat(" ", gap) + status)
}

func (m model) renderPanes(height int) string {
	leftW := max(20, m.width*2/5)
	rightW := max(10, m.width-leftW-1)

	left := m.renderStepsPane(leftW, height)
	right := m.renderFilesPane(rightW, height)

	sep := make([]string, height)
	for i := range sep {
		sep[i] = dividerStyle.Render("│")
	}

	box := func(w int, lines []string) string {
		return lipgloss.NewStyle().Width(w).Height(height).MaxHeight(height).Render(strings.Join(lines, "\n"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, box(leftW, left), strings.Join(sep, "\n"), box(rightW, right))
}

func (m model) paneTitle(p pane, text string) string {
	if m.focus == p {
		return focusedTitleStyle.Render(text)
	}
	return paneTitleStyle.Render(text)
}

func (m model) renderStepsPane(width, height int) []string {
	list := m.session.Steps()
	counts := steps.Counts(list)
	lines := []string{m.paneTitle(paneSteps, fmt.Sprintf("Steps  %d/%d done", counts[steps.StatusCompleted], len(list)))}

	if len(list) == 0 {
		return append(lines, emptyStyle.Render("No steps yet. Press p to prompt or /steps <file>."))
	}

	rowsH := height - 1
	offset := scrollOffset(m.stepCursor, rowsH, len(list))
	for i := offset; i < len(list) && i < offset+rowsH; i++ {
		lines = append(lines, m.renderStep(i, list[i], width))
	}
	return lines
}

func (m model) renderStep(index int, s steps.BuildStep, width int) string {
	cursor := "  "
	nStyle := nameStyle
	if m.focus == paneSteps && index == m.stepCursor {
		cursor = "▸ "
		nStyle = selectedNameStyle
	}
	icon := stepIcon(lipgloss.DefaultRenderer(), s.Status)
	prefix := fmt.Sprintf(" %s%s %3d ", cursor, icon, s.ID)
	kind := kindStyle.Render(string(s.Kind))
	label := ansi.Truncate(s.Label(), max(4, width-lipgloss.Width(prefix)-lipgloss.Width(kind)-2), "…")
	return prefix + nStyle.Render(label) + " " + kind
}

func (m model) renderFilesPane(width, height int) []string {
	files := 0
	if m.tree != nil {
		files = len(m.tree.Files())
	}
	lines := []string{m.paneTitle(paneFiles, fmt.Sprintf("Files  %d", files))}
	if len(m.rows) == 0 {
		return append(lines, emptyStyle.Render("Project is empty."))
	}
	rowsH := height - 1
	offset := scrollOffset(m.fileCursor, rowsH, len(m.rows))
	for _, l := range renderFileTree(m.rows, m.fileCursor, offset, rowsH, m.focus == paneFiles) {
		lines = append(lines, " "+ansi.Truncate(l, width-1, "…"))
	}
	return lines
}

// scrollOffset returns the first visible row keeping cursor on screen.
func scrollOffset(cursor, height, total int) int {
	if height <= 0 || total <= height {
		return 0
	}
	return clamp(cursor-height+1, 0, total-height)
}

func (m model) renderConsole(height int) string {
	var b strings.Builder
	title := m.paneTitle(paneConsole, "Console")
	b.WriteString(title)
	b.WriteString(dividerStyle.Render(strings.Repeat("─", max(0, m.width-lipgloss.Width(title)))))
	b.WriteString("\n")

	lines := m.session.Console().Tail(height - 1)
	r := lipgloss.DefaultRenderer()
	for _, line := range lines {
		// Truncate lines to terminal width
		text := ansi.Truncate(line, max(1, m.width-2), "…")
		b.WriteString("  ")
		b.WriteString(levelStyle(r, console.Classify(line)).Render(text))
		b.WriteString("\n")
	}
	// Pad remaining lines
	for i := len(lines); i < height-1; i++ {
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderViewer() string {
	var b strings.Builder
	n := m.viewing
	height := m.viewerHeight()

	lines := strings.Split(Highlight(n.Name, n.Content, m.profile), "\n")
	b.WriteString(viewerTitleStyle.Render(n.Path))
	b.WriteString(kindStyle.Render(fmt.Sprintf("  %d line%s", len(lines), plural(len(lines)))))
	b.WriteString("\n")

	rowsH := height - 1
	scroll := clamp(m.viewScroll, 0, max(0, len(lines)-rowsH))
	width := len(fmt.Sprint(len(lines)))
	shown := 0
	for i := scroll; i < len(lines) && shown < rowsH; i++ {
		num := lineNumberStyle.Render(fmt.Sprintf("%*d ", width, i+1))
		b.WriteString(num)
		b.WriteString(ansi.Truncate(lines[i], max(1, m.width-width-2), ""))
		b.WriteString("\x1b[0m\n")
		shown++
	}
	for ; shown < rowsH; shown++ {
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderStatusAndInput(b *strings.Builder) {
	if m.message != "" {
		if m.isError {
			b.WriteString(errorStyle.Render(m.message))
		} else {
			b.WriteString(messageStyle.Render(m.message))
		}
		b.WriteString("\n")
	}
	if m.commanding {
		b.WriteString("  ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
}

func (m model) renderHelpOverlay(base string) string {
	help := []string{
		helpHeaderStyle.Render("Navigation"),
		helpKeyStyle.Render("  tab") + helpDescStyle.Render("         Switch pane"),
		helpKeyStyle.Render("  ↑/k  ↓/j") + helpDescStyle.Render("   Select step or file"),
		helpKeyStyle.Render("  Enter") + helpDescStyle.Render("       Open file in viewer"),
		"",
		helpHeaderStyle.Render("Actions"),
		helpKeyStyle.Render("  p") + helpDescStyle.Render("           Prompt for new steps"),
		helpKeyStyle.Render("  e") + helpDescStyle.Render("           Export project archive"),
		helpKeyStyle.Render("  c") + helpDescStyle.Render("           Clear console"),
		helpKeyStyle.Render("  t") + helpDescStyle.Render("           Show/hide console"),
		helpKeyStyle.Render("  r") + helpDescStyle.Render("           Restart failed sandbox"),
		"",
		helpHeaderStyle.Render("Commands"),
		helpKeyStyle.Render("  /") + helpDescStyle.Render("           Open command bar"),
	}
	for _, c := range commandHelp {
		help = append(help, helpDescStyle.Render("  "+c))
	}
	help = append(help, "",
		helpKeyStyle.Render("  q")+helpDescStyle.Render("  quit")+"     "+helpKeyStyle.Render("?")+helpDescStyle.Render("  close this help"))

	modal := helpStyle.Render(strings.Join(help, "\n"))

	// Center the modal over the base view
	modalWidth := lipgloss.Width(modal)
	modalHeight := lipgloss.Height(modal)

	baseLines := strings.Split(base, "\n")

	xOffset := max(0, (m.width-modalWidth)/2)
	yOffset := max(0, (m.height-modalHeight)/2)

	modalLines := strings.Split(modal, "\n")
	for i, mLine := range modalLines {
		row := yOffset + i
		if row < len(baseLines) {
			padding := strings.Repeat(" ", xOffset)
			baseLines[row] = padding + mLine + strings.Repeat(" ", max(0, m.width-xOffset-lipgloss.Width(mLine)))
		}
	}

	return strings.Join(baseLines, "\n")
}
