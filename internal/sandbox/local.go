package sandbox

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/zpdzap/sitebuilder/internal/logging"
)

// Local runs the project directly on the host, in Dir.
type Local struct {
	Dir string
	Env []string

	ready readyNotifier
}

// NewLocal returns a host sandbox rooted at dir. An empty dir selects a
// fresh temporary directory at boot.
func NewLocal(dir string) *Local {
	return &Local{Dir: dir}
}

func (l *Local) Boot(ctx context.Context) error {
	l.ready.reset()
	if l.Dir == "" {
		dir, err := os.MkdirTemp("", "sitebuilder-*")
		if err != nil {
			return fmt.Errorf("creating workdir: %w", err)
		}
		l.Dir = dir
	}
	abs, err := filepath.Abs(l.Dir)
	if err != nil {
		return fmt.Errorf("resolving workdir: %w", err)
	}
	l.Dir = abs
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return fmt.Errorf("creating workdir: %w", err)
	}
	logging.Debug("local sandbox booted", "dir", l.Dir)
	return nil
}

// Mount writes the snapshot into Dir. Existing files not in the snapshot
// are left alone so installed dependencies survive remounts.
func (l *Local) Mount(ctx context.Context, files FileSystemTree) error {
	if l.Dir == "" {
		return fmt.Errorf("sandbox not booted")
	}
	return writeTree(l.Dir, "", files)
}

func writeTree(root, prefix string, files FileSystemTree) error {
	for name, e := range files {
		rel := path.Join(prefix, name)
		target, err := securejoin.SecureJoin(root, rel)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", rel, err)
		}
		if e.IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", rel, err)
			}
			if err := writeTree(root, rel, e.Directory); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating parent of %s: %w", rel, err)
		}
		if err := os.WriteFile(target, []byte(e.File.Contents), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", rel, err)
		}
	}
	return nil
}

func (l *Local) Spawn(ctx context.Context, name string, args ...string) (Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = l.Dir
	cmd.Env = append(os.Environ(), l.Env...)

	p, err := startProcess(cmd, func(line string) {
		if port, url, ok := DetectServerURL(line); ok {
			l.ready.notify(port, url)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("starting %s: %w", name, err)
	}
	logging.Debug("spawned", "cmd", JoinCommand(append([]string{name}, args...)), "dir", l.Dir)
	return p, nil
}

func (l *Local) OnServerReady(fn ReadyFunc) { l.ready.add(fn) }

var _ Sandbox = (*Local)(nil)
