package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/zpdzap/sitebuilder/internal/console"
	"github.com/zpdzap/sitebuilder/internal/logging"
	"github.com/zpdzap/sitebuilder/internal/tree"
)

// Default lifecycle commands.
const (
	DefaultInstall = "npm install"
	DefaultRun     = "npm run dev"
)

// Options configures an Orchestrator.
type Options struct {
	Install string
	Run     string

	// Progress, if set, is called after every state change.
	Progress ProgressFunc
}

// ProgressFunc is called with a snapshot after each state transition.
type ProgressFunc func(s Session)

type eventKind int

const (
	evBooted eventKind = iota
	evInstallExited
	evReady
	evFailed
)

type event struct {
	kind eventKind
	code int
	port int
	url  string
	err  error
}

// Orchestrator drives a Sandbox through boot, install, run and ready. Each
// lifecycle step is an event handled on the Run loop; process output is
// pumped into the console as it arrives.
//
// Install failing does not stop the run step: the dev server is started
// whatever the install exit code. Only boot and spawn failures are fatal.
type Orchestrator struct {
	sb       Sandbox
	console  *console.Console
	install  []string
	run      []string
	progress ProgressFunc

	mu      sync.Mutex
	session Session
	err     error
	booted  bool
	started bool
	pending *tree.Tree

	mountMu sync.Mutex
	mounted string

	events chan event
	done   chan struct{}
}

// NewOrchestrator returns an orchestrator for sb that logs into c.
func NewOrchestrator(sb Sandbox, c *console.Console, opts Options) (*Orchestrator, error) {
	if opts.Install == "" {
		opts.Install = DefaultInstall
	}
	if opts.Run == "" {
		opts.Run = DefaultRun
	}
	install, err := ParseCommand(opts.Install)
	if err != nil {
		return nil, fmt.Errorf("install command: %w", err)
	}
	run, err := ParseCommand(opts.Run)
	if err != nil {
		return nil, fmt.Errorf("run command: %w", err)
	}

	o := &Orchestrator{
		sb:       sb,
		console:  c,
		install:  install,
		run:      run,
		progress: opts.Progress,
		session:  Session{State: StateBooting, Status: statusText(StateBooting, "")},
		events:   make(chan event, 16),
		done:     make(chan struct{}),
	}
	sb.OnServerReady(func(port int, url string) {
		o.post(event{kind: evReady, port: port, url: url})
	})
	return o, nil
}

func (o *Orchestrator) post(ev event) {
	select {
	case o.events <- ev:
	case <-o.done:
	}
}

// Run boots the sandbox and handles lifecycle events until the server is
// ready (nil), a step fails (the *LifecycleError), or ctx ends. Processes
// keep running after Run returns; they are bound to ctx.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return errors.New("orchestrator already started")
	}
	o.started = true
	o.mu.Unlock()
	defer close(o.done)

	o.setState(StateBooting, "")
	o.console.Append("Booting sandbox environment...")
	go func() {
		if err := o.sb.Boot(ctx); err != nil {
			o.post(event{kind: evFailed, err: &LifecycleError{Phase: StateBooting, Err: err}})
			return
		}
		o.post(event{kind: evBooted})
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-o.events:
			o.handle(ctx, ev)
		}
		switch s := o.Session(); s.State {
		case StateReady:
			return nil
		case StateFailed:
			return o.Err()
		}
	}
}

func (o *Orchestrator) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case evBooted:
		o.onBooted(ctx)
	case evInstallExited:
		o.onInstallExited(ctx, ev.code)
	case evReady:
		o.onReady(ev.port, ev.url)
	case evFailed:
		o.fail(ev.err)
	}
}

func (o *Orchestrator) onBooted(ctx context.Context) {
	o.mu.Lock()
	o.booted = true
	o.mu.Unlock()

	o.console.Append("Environment ready, setting up project files...")
	if err := o.flush(ctx); err != nil {
		o.fail(&LifecycleError{Phase: StateBooting, Err: err})
		return
	}

	o.setState(StateInstalling, "")
	proc, err := o.spawn(ctx, o.install)
	if err != nil {
		o.fail(&LifecycleError{Phase: StateInstalling, Err: err})
		return
	}
	go func() {
		pump(proc.Output(), o.console)
		code, err := proc.Wait()
		if err != nil {
			o.post(event{kind: evFailed, err: &LifecycleError{Phase: StateInstalling, Err: err}})
			return
		}
		o.post(event{kind: evInstallExited, code: code})
	}()
}

func (o *Orchestrator) onInstallExited(ctx context.Context, code int) {
	o.console.Append(fmt.Sprintf("%s exited with code %d", JoinCommand(o.install), code))
	if code != 0 {
		logging.Warn("install exited with non-zero code", "code", code)
	}

	o.setState(StateStarting, "")
	proc, err := o.spawn(ctx, o.run)
	if err != nil {
		o.fail(&LifecycleError{Phase: StateStarting, Err: err})
		return
	}
	go func() {
		pump(proc.Output(), o.console)
		code, err := proc.Wait()
		if err != nil {
			logging.Debug("dev server wait", "error", err)
			return
		}
		o.console.Append(fmt.Sprintf("%s exited with code %d", JoinCommand(o.run), code))
		logging.Info("dev server exited", "code", code)
	}()
}

func (o *Orchestrator) onReady(port int, url string) {
	if o.Session().State != StateStarting {
		logging.Debug("ignoring server-ready", "state", o.Session().State, "port", port)
		return
	}
	o.mu.Lock()
	o.session.Port = port
	o.mu.Unlock()
	o.setState(StateReady, url)
	o.console.Append(fmt.Sprintf("Server ready at %s (port %d)", url, port))
}

func (o *Orchestrator) fail(err error) {
	o.mu.Lock()
	o.err = err
	o.mu.Unlock()
	o.console.Append("Error: " + err.Error())
	logging.Error("sandbox lifecycle failed", "error", err)

	o.mu.Lock()
	o.session = Session{State: StateFailed, Status: err.Error()}
	s := o.session
	o.mu.Unlock()
	o.report(s)
}

func (o *Orchestrator) spawn(ctx context.Context, argv []string) (Process, error) {
	o.console.Append("$ " + JoinCommand(argv))
	return o.sb.Spawn(ctx, argv[0], argv[1:]...)
}

func (o *Orchestrator) setState(s State, address string) {
	o.mu.Lock()
	o.session.State = s
	o.session.Address = address
	if s != StateReady {
		o.session.Port = 0
	}
	o.session.Status = statusText(s, address)
	snap := o.session
	o.mu.Unlock()

	logging.Debug("sandbox state", "state", s)
	o.report(snap)
}

func (o *Orchestrator) report(s Session) {
	if o.progress != nil {
		o.progress(s)
	}
}

// Mount hands a new project snapshot to the sandbox. Before boot completes
// the latest snapshot is held and mounted once the environment is up. A
// snapshot identical to the last mounted one is skipped.
func (o *Orchestrator) Mount(ctx context.Context, t *tree.Tree) error {
	o.mu.Lock()
	o.pending = t
	booted := o.booted
	o.mu.Unlock()
	if !booted {
		return nil
	}
	return o.flush(ctx)
}

// flush mounts the newest held snapshot, if any. Whichever caller gets
// mountMu last sees the newest pending tree, so an older snapshot never
// lands after a newer one.
func (o *Orchestrator) flush(ctx context.Context) error {
	o.mountMu.Lock()
	defer o.mountMu.Unlock()

	o.mu.Lock()
	t := o.pending
	o.pending = nil
	o.mu.Unlock()
	if t == nil {
		return nil
	}

	fp := t.Fingerprint()
	if fp == o.mounted {
		return nil
	}
	fst := ToFileSystemTree(t)
	if err := o.sb.Mount(ctx, fst); err != nil {
		return fmt.Errorf("mounting project: %w", err)
	}
	o.mounted = fp
	files, dirs := fst.Count()
	logging.Debug("mounted project", "files", files, "dirs", dirs)
	return nil
}

// Session returns a snapshot of the lifecycle state.
func (o *Orchestrator) Session() Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session
}

// Err returns the failure that moved the orchestrator to StateFailed.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// pump forwards r into c chunk by chunk until EOF.
func pump(r io.Reader, c *console.Console) {
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			c.Ingest(string(buf[:n]))
		}
		if err != nil {
			if err != io.EOF {
				logging.Debug("output stream closed", "error", err)
			}
			return
		}
	}
}
