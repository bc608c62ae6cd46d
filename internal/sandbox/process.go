package sandbox

import (
	"errors"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
)

// execProcess adapts an exec.Cmd whose stdout and stderr share one pipe.
type execProcess struct {
	out io.Reader

	done chan struct{}
	code int
	err  error
}

// startProcess starts cmd with merged output. The returned process's Output
// reaches EOF once the command has exited and all output was read.
func startProcess(cmd *exec.Cmd, onLine func(string)) (*execProcess, error) {
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		pw.Close()
		return nil, err
	}

	p := &execProcess{out: pr, done: make(chan struct{})}
	if onLine != nil {
		p.out = &lineTap{r: pr, fn: onLine}
	}
	go func() {
		err := cmd.Wait()
		var exitErr *exec.ExitError
		switch {
		case err == nil:
		case errors.As(err, &exitErr):
			p.code = exitErr.ExitCode()
		default:
			p.code = -1
			p.err = err
		}
		pw.Close()
		close(p.done)
	}()
	return p, nil
}

func (p *execProcess) Output() io.Reader { return p.out }

func (p *execProcess) Wait() (int, error) {
	<-p.done
	return p.code, p.err
}

// lineTap passes reads through and reports every complete line, stripped of
// escape sequences, to fn.
type lineTap struct {
	r       io.Reader
	fn      func(string)
	partial strings.Builder
}

const maxPartial = 4096

func (t *lineTap) Read(b []byte) (int, error) {
	n, err := t.r.Read(b)
	if n > 0 {
		t.partial.Write(b[:n])
		buf := t.partial.String()
		if i := strings.LastIndexByte(buf, '\n'); i >= 0 {
			for _, line := range strings.Split(buf[:i], "\n") {
				t.fn(ansi.Strip(line))
			}
			buf = buf[i+1:]
		}
		if len(buf) > maxPartial {
			buf = buf[len(buf)-maxPartial:]
		}
		t.partial.Reset()
		t.partial.WriteString(buf)
	}
	if err != nil && t.partial.Len() > 0 {
		t.fn(ansi.Strip(t.partial.String()))
		t.partial.Reset()
	}
	return n, err
}

// serverURL matches the local address a dev server prints once it listens.
var serverURL = regexp.MustCompile(`https?://(?:localhost|127\.0\.0\.1|0\.0\.0\.0|\[::1\]):(\d+)[^\s]*`)

// DetectServerURL extracts a dev-server address and port from an output line.
func DetectServerURL(line string) (port int, url string, ok bool) {
	m := serverURL.FindStringSubmatch(line)
	if m == nil {
		return 0, "", false
	}
	port, err := strconv.Atoi(m[1])
	if err != nil || port == 0 {
		return 0, "", false
	}
	return port, strings.TrimRight(m[0], "/.,;)"), true
}

// readyNotifier fans server-ready events out to listeners, once per port.
type readyNotifier struct {
	mu        sync.Mutex
	listeners []ReadyFunc
	seen      map[int]bool
}

func (n *readyNotifier) add(fn ReadyFunc) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}

// reset forgets which ports have been announced, so a fresh boot reports
// them again.
func (n *readyNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seen = nil
}

func (n *readyNotifier) notify(port int, url string) {
	n.mu.Lock()
	if n.seen == nil {
		n.seen = make(map[int]bool)
	}
	if n.seen[port] {
		n.mu.Unlock()
		return
	}
	n.seen[port] = true
	listeners := append([]ReadyFunc(nil), n.listeners...)
	n.mu.Unlock()

	for _, fn := range listeners {
		fn(port, url)
	}
}
