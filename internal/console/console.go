package console

import "sync"

const (
	// DefaultMaxLines bounds the console when no limit is configured.
	DefaultMaxLines = 1000

	// ClearedSentinel replaces the whole sequence when the console is cleared.
	ClearedSentinel = "Console cleared"
)

// Console is the ordered line buffer behind the operator console. It is safe
// for concurrent use: process output pumps write while the UI reads.
type Console struct {
	mu       sync.Mutex
	lines    []string
	maxLines int
	visible  bool
	version  uint64

	// offset is the absolute index of lines[0]; it grows as lines are
	// dropped from the front.
	offset int
}

// New returns an empty, visible console keeping at most maxLines lines.
// maxLines <= 0 selects DefaultMaxLines.
func New(maxLines int) *Console {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Console{maxLines: maxLines, visible: true}
}

// Ingest normalizes a raw output chunk into the buffer.
func (c *Console) Ingest(chunk string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := Ingest(chunk, c.lines)
	if len(next) == len(c.lines) && sameTail(next, c.lines) {
		return
	}
	c.set(next)
}

// Append adds lines verbatim, skipping empty ones. Used for the
// orchestrator's own announcements, which carry no escape sequences.
func (c *Console) Append(lines ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.lines
	for _, l := range lines {
		if l != "" {
			next = append(next, l)
		}
	}
	c.set(next)
}

func (c *Console) set(lines []string) {
	if over := len(lines) - c.maxLines; over > 0 {
		lines = append([]string(nil), lines[over:]...)
		c.offset += over
	}
	c.lines = lines
	c.version++
}

// Lines returns a copy of the current sequence.
func (c *Console) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

// Tail returns a copy of the last n lines.
func (c *Console) Tail(n int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := max(0, len(c.lines)-n)
	out := make([]string, len(c.lines)-start)
	copy(out, c.lines[start:])
	return out
}

// From returns the lines at absolute index abs and later, plus the absolute
// index following the last returned line. Followers use it to print each
// line once; lines already dropped by the bound are skipped.
func (c *Console) From(abs int) ([]string, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	start := max(0, abs-c.offset)
	if start > len(c.lines) {
		start = len(c.lines)
	}
	out := make([]string, len(c.lines)-start)
	copy(out, c.lines[start:])
	return out, c.offset + len(c.lines)
}

// Len returns the number of lines.
func (c *Console) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Version increases on every change; pollers compare it to skip redraws.
func (c *Console) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Clear replaces the sequence with ClearedSentinel.
func (c *Console) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset += len(c.lines)
	c.lines = []string{ClearedSentinel}
	c.version++
}

// Toggle flips visibility and returns the new value.
func (c *Console) Toggle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = !c.visible
	c.version++
	return c.visible
}

// Visible reports whether the console pane is shown.
func (c *Console) Visible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

func sameTail(a, b []string) bool {
	if len(a) == 0 {
		return true
	}
	return a[len(a)-1] == b[len(b)-1]
}
