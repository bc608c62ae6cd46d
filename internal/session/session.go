// Package session owns the state of one site-building session: the step
// list, the materialized project tree, the console and the sandbox
// orchestration. Every UI surface reads and mutates state through it.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/zpdzap/sitebuilder/internal/agent"
	"github.com/zpdzap/sitebuilder/internal/archive"
	"github.com/zpdzap/sitebuilder/internal/config"
	"github.com/zpdzap/sitebuilder/internal/console"
	"github.com/zpdzap/sitebuilder/internal/logging"
	"github.com/zpdzap/sitebuilder/internal/sandbox"
	"github.com/zpdzap/sitebuilder/internal/steps"
	"github.com/zpdzap/sitebuilder/internal/tree"
)

// ErrNotStarted is returned when sandbox state is requested before Start.
var ErrNotStarted = errors.New("sandbox not started")

type Options struct {
	Config  *config.Config
	Sandbox sandbox.Sandbox
	Source  agent.Source
	Console *console.Console

	// OnChange, if set, is called after steps, tree or sandbox state change.
	OnChange func()
}

type Session struct {
	cfg      *config.Config
	sb       sandbox.Sandbox
	source   agent.Source
	console  *console.Console
	onChange func()

	// mountMu is taken before mu and held across orchestrator mounts, so
	// snapshots reach the sandbox in the order they were materialized.
	mountMu sync.Mutex

	mu      sync.Mutex
	steps   []steps.BuildStep
	tree    *tree.Tree
	orch    *sandbox.Orchestrator
	history []agent.Message
}

// New returns an empty session.
func New(opts Options) *Session {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default("site")
	}
	c := opts.Console
	if c == nil {
		c = console.New(cfg.Console.MaxLines)
	}
	return &Session{
		cfg:      cfg,
		sb:       opts.Sandbox,
		source:   opts.Source,
		console:  c,
		onChange: opts.OnChange,
		tree:     tree.New(),
	}
}

func (s *Session) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}

// AddSteps appends a batch, materializes it into the tree and, when the
// tree changed, mounts the new snapshot. It returns the number of steps
// added.
func (s *Session) AddSteps(ctx context.Context, batch []steps.BuildStep) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	s.mountMu.Lock()
	defer s.mountMu.Unlock()

	s.mu.Lock()
	next := steps.Continue(s.steps, batch)
	all := make([]steps.BuildStep, 0, len(s.steps)+len(next))
	all = append(all, s.steps...)
	all = append(all, next...)
	t, done, changed := steps.Materialize(all, s.tree)
	s.steps = done
	s.tree = t
	orch := s.orch
	s.mu.Unlock()

	logging.Debug("steps added", "count", len(next), "files", len(t.Files()))
	defer s.notify()

	if changed && orch != nil {
		if err := orch.Mount(ctx, t); err != nil {
			s.console.Append("Error: " + err.Error())
			return len(next), err
		}
	}
	return len(next), nil
}

// LoadSteps reads step batches from files and adds them in order.
func (s *Session) LoadSteps(ctx context.Context, paths ...string) (int, error) {
	total := 0
	for _, p := range paths {
		batch, err := steps.Load(p)
		if err != nil {
			return total, err
		}
		n, err := s.AddSteps(ctx, batch)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Prompt sends text to the instruction source and applies the steps it
// returns. The reply is recorded in the conversation history.
func (s *Session) Prompt(ctx context.Context, text string) (string, int, error) {
	if s.source == nil {
		return "", 0, agent.ErrNotConfigured
	}

	s.mu.Lock()
	s.history = append(s.history, agent.Message{Role: agent.RoleUser, Content: text})
	history := append([]agent.Message(nil), s.history...)
	s.mu.Unlock()

	batch, reply, err := s.source.Steps(ctx, history)
	if err != nil {
		return "", 0, fmt.Errorf("requesting steps: %w", err)
	}
	if reply == "" {
		reply = fmt.Sprintf("%d steps", len(batch))
	}

	s.mu.Lock()
	s.history = append(s.history, agent.Message{Role: agent.RoleAssistant, Content: reply})
	s.mu.Unlock()

	n, err := s.AddSteps(ctx, batch)
	return reply, n, err
}

// Start runs the sandbox lifecycle for the current tree. It blocks until the
// dev server is ready, a step fails or ctx ends. Calling Start again after a
// failure re-runs the whole flow.
func (s *Session) Start(ctx context.Context) error {
	if s.sb == nil {
		return errors.New("no sandbox configured")
	}

	s.mountMu.Lock()
	s.mu.Lock()
	if s.orch != nil && s.orch.Session().State != sandbox.StateFailed {
		s.mu.Unlock()
		s.mountMu.Unlock()
		return errors.New("sandbox already started")
	}
	cfg := *s.cfg
	cfg.Apply(config.Detect(s.tree))
	if p, ok := s.sb.(sandbox.PortPublisher); ok && len(cfg.Sandbox.Ports) > 0 {
		p.Publish(cfg.Sandbox.Ports)
	}
	orch, err := sandbox.NewOrchestrator(s.sb, s.console, sandbox.Options{
		Install:  cfg.Sandbox.Install,
		Run:      cfg.Sandbox.Run,
		Progress: func(sandbox.Session) { s.notify() },
	})
	if err != nil {
		s.mu.Unlock()
		s.mountMu.Unlock()
		return err
	}
	s.orch = orch
	t := s.tree
	s.mu.Unlock()

	err = orch.Mount(ctx, t)
	s.mountMu.Unlock()
	if err != nil {
		return err
	}
	return orch.Run(ctx)
}

// Sandbox returns the orchestration state.
func (s *Session) Sandbox() (sandbox.Session, error) {
	s.mu.Lock()
	orch := s.orch
	s.mu.Unlock()
	if orch == nil {
		return sandbox.Session{}, ErrNotStarted
	}
	return orch.Session(), nil
}

// Steps returns a copy of the step list.
func (s *Session) Steps() []steps.BuildStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]steps.BuildStep(nil), s.steps...)
}

// Tree returns the current project tree. Trees are replaced, never mutated,
// so the result stays valid; callers must not modify it.
func (s *Session) Tree() *tree.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree
}

// History returns a copy of the conversation.
func (s *Session) History() []agent.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]agent.Message(nil), s.history...)
}

func (s *Session) Console() *console.Console { return s.console }

func (s *Session) Config() *config.Config { return s.cfg }

// Export writes the project archive. Empty dir and name fall back to the
// configured archive settings.
func (s *Session) Export(dir, name string) (string, bool) {
	if dir == "" {
		dir = s.cfg.Archive.Dir
	}
	if name == "" {
		name = s.cfg.Archive.Name
	}
	path, ok := archive.Save(s.Tree(), dir, name)
	if ok {
		s.console.Append(fmt.Sprintf("Exported project to %s", path))
	} else {
		s.console.Append("Error: export failed")
	}
	return path, ok
}
