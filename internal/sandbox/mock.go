package sandbox

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MockProcess scripts one spawned process.
type MockProcess struct {
	Output   string
	ExitCode int
	WaitErr  error

	// KeepAlive makes Wait block until the spawn context ends, like a dev
	// server that never exits on its own.
	KeepAlive bool
}

// MockCall records one call on a MockSandbox.
type MockCall struct {
	Method string
	Args   []string
}

// MockSandbox is a scripted Sandbox for tests. Processes are keyed by their
// joined command line ("npm install"). Unknown commands exit 0 silently.
type MockSandbox struct {
	mu sync.Mutex

	BootErr     error
	MountErr    error
	Processes   map[string]*MockProcess
	SpawnErrors map[string]error

	// ReadyOn names the command whose output, once fully read, fires a
	// server-ready event with ReadyPort and ReadyURL.
	ReadyOn   string
	ReadyPort int
	ReadyURL  string

	Mounts    []FileSystemTree
	Published []int
	CallLog   []MockCall

	ready readyNotifier
}

// NewMockSandbox returns an empty MockSandbox.
func NewMockSandbox() *MockSandbox {
	return &MockSandbox{
		Processes:   make(map[string]*MockProcess),
		SpawnErrors: make(map[string]error),
	}
}

func (m *MockSandbox) record(method string, args ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallLog = append(m.CallLog, MockCall{Method: method, Args: args})
}

func (m *MockSandbox) Boot(ctx context.Context) error {
	m.record("Boot")
	m.ready.reset()
	return m.BootErr
}

func (m *MockSandbox) Mount(ctx context.Context, files FileSystemTree) error {
	m.record("Mount")
	if m.MountErr != nil {
		return m.MountErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Mounts = append(m.Mounts, files)
	return nil
}

func (m *MockSandbox) Spawn(ctx context.Context, name string, args ...string) (Process, error) {
	line := strings.Join(append([]string{name}, args...), " ")
	m.record("Spawn", line)

	m.mu.Lock()
	err := m.SpawnErrors[line]
	script := m.Processes[line]
	fireReady := line == m.ReadyOn
	port, url := m.ReadyPort, m.ReadyURL
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if script == nil {
		script = &MockProcess{}
	}
	p := &mockProcess{ctx: ctx, script: script, r: strings.NewReader(script.Output)}
	if fireReady {
		p.onEOF = func() { m.ready.notify(port, url) }
	}
	return p, nil
}

func (m *MockSandbox) OnServerReady(fn ReadyFunc) { m.ready.add(fn) }

func (m *MockSandbox) Publish(ports []int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append([]int(nil), ports...)
}

// PublishedPorts returns the ports from the last Publish call.
func (m *MockSandbox) PublishedPorts() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.Published...)
}

// Calls returns a copy of the call log.
func (m *MockSandbox) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.CallLog...)
}

// Spawned returns the command lines spawned so far, in order.
func (m *MockSandbox) Spawned() []string {
	var out []string
	for _, c := range m.Calls() {
		if c.Method == "Spawn" {
			out = append(out, c.Args[0])
		}
	}
	return out
}

// MountCount returns the number of successful mounts.
func (m *MockSandbox) MountCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Mounts)
}

// LastMount returns the most recent snapshot.
func (m *MockSandbox) LastMount() (FileSystemTree, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Mounts) == 0 {
		return nil, fmt.Errorf("nothing mounted")
	}
	return m.Mounts[len(m.Mounts)-1], nil
}

type mockProcess struct {
	ctx    context.Context
	script *MockProcess
	r      io.Reader
	once   sync.Once
	onEOF  func()
}

func (p *mockProcess) Output() io.Reader { return p }

func (p *mockProcess) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if err == io.EOF && p.onEOF != nil {
		p.once.Do(p.onEOF)
	}
	return n, err
}

func (p *mockProcess) Wait() (int, error) {
	if p.script.KeepAlive {
		<-p.ctx.Done()
		return -1, p.ctx.Err()
	}
	return p.script.ExitCode, p.script.WaitErr
}

var (
	_ Sandbox       = (*MockSandbox)(nil)
	_ PortPublisher = (*MockSandbox)(nil)
)
