package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/zpdzap/sitebuilder/internal/console"
	"github.com/zpdzap/sitebuilder/internal/sandbox"
	"github.com/zpdzap/sitebuilder/internal/steps"
)

// Printer writes console lines and step summaries to a plain stream, for
// runs without the dashboard. Lines are colored by classification when the
// stream is a terminal.
type Printer struct {
	w        io.Writer
	renderer *lipgloss.Renderer
	next     int
}

// NewPrinter returns a printer for w. Colors are used only when w is a
// terminal.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	if f, ok := w.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{w: w, renderer: r}
}

// NewPrinterWithProfile returns a printer with a fixed color profile.
func NewPrinterWithProfile(w io.Writer, p termenv.Profile) *Printer {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(p)
	return &Printer{w: w, renderer: r}
}

// Line writes one classified console line.
func (p *Printer) Line(line string) {
	fmt.Fprintln(p.w, levelStyle(p.renderer, console.Classify(line)).Render(line))
}

// Flush prints console lines added since the last call.
func (p *Printer) Flush(c *console.Console) {
	lines, next := c.From(p.next)
	p.next = next
	for _, l := range lines {
		p.Line(l)
	}
}

// Follow flushes c every interval until ctx ends, then flushes once more.
func (p *Printer) Follow(ctx context.Context, c *console.Console, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			p.Flush(c)
			return
		case <-t.C:
			p.Flush(c)
		}
	}
}

// Steps writes one line per step.
func (p *Printer) Steps(list []steps.BuildStep) {
	for _, s := range list {
		fmt.Fprintf(p.w, "%s %3d  %-13s %s\n", stepIcon(p.renderer, s.Status), s.ID, s.Kind, s.Label())
	}
}

// Session writes the sandbox state line.
func (p *Printer) Session(s sandbox.Session) {
	style := p.renderer.NewStyle().Foreground(stateColors[s.State])
	fmt.Fprintf(p.w, "%s %s\n", style.Render(stateIcon(s.State)+" "+string(s.State)), s.Status)
}

func stepIcon(r *lipgloss.Renderer, s steps.Status) string {
	switch s {
	case steps.StatusCompleted:
		return r.NewStyle().Inherit(stepCompleted).Render("✓")
	case steps.StatusInProgress:
		return r.NewStyle().Inherit(stepInProgress).Render("◐")
	default:
		return r.NewStyle().Inherit(stepPending).Render("○")
	}
}
