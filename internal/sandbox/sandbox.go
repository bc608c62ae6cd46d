// Package sandbox drives an execution sandbox through the install → run →
// ready lifecycle of a generated project.
//
// The sandbox itself is an external collaborator behind the Sandbox
// interface: it accepts a filesystem snapshot, spawns processes and reports
// when a dev server is reachable. Local runs processes on the host, Docker
// runs them in a container, and MockSandbox scripts them for tests.
package sandbox

import (
	"context"
	"fmt"
	"io"
)

// ReadyFunc receives a server-ready notification.
type ReadyFunc func(port int, url string)

// Sandbox is the execution environment contract.
type Sandbox interface {
	// Boot acquires the environment. It is called once before anything else.
	Boot(ctx context.Context) error

	// Mount replaces the project files with the given snapshot.
	Mount(ctx context.Context, files FileSystemTree) error

	// Spawn starts a process in the project directory.
	Spawn(ctx context.Context, name string, args ...string) (Process, error)

	// OnServerReady registers fn for dev-server readiness notifications.
	OnServerReady(fn ReadyFunc)
}

// PortPublisher is implemented by sandboxes that must be told, before boot,
// which ports the dev server will listen on.
type PortPublisher interface {
	Publish(ports []int)
}

// Process is a spawned sandbox process. Output must be drained for the
// process to make progress.
type Process interface {
	// Output returns the merged stdout/stderr stream. It reaches EOF when the
	// process exits.
	Output() io.Reader

	// Wait blocks until the process exits and returns its exit code. A
	// non-zero exit is not an error; err reports that the exit could not be
	// observed at all.
	Wait() (int, error)
}

// LifecycleError records which lifecycle phase failed.
type LifecycleError struct {
	Phase State
	Err   error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *LifecycleError) Unwrap() error { return e.Err }
