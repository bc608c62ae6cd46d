// Package agent talks to the instruction source that turns a conversation
// into build steps.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	shellquote "github.com/kballard/go-shellquote"

	"github.com/zpdzap/sitebuilder/internal/logging"
	"github.com/zpdzap/sitebuilder/internal/steps"
)

// ErrNotConfigured is returned when no instruction source command is set.
var ErrNotConfigured = errors.New("no agent command configured")

// Role is a conversation participant.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Source produces the next batch of build steps for a conversation.
type Source interface {
	Steps(ctx context.Context, history []Message) ([]steps.BuildStep, string, error)
}

// Command runs an external program as the instruction source. The
// conversation is written to its stdin as JSON; stdout is a step batch in
// any format steps.Parse accepts, optionally wrapped with a reply:
//
//	{"reply": "Added a landing page", "steps": [...]}
type Command struct {
	Line string
	Dir  string
}

type request struct {
	Messages []Message `json:"messages"`
}

type response struct {
	Reply string `json:"reply" yaml:"reply"`
}

func (c *Command) Steps(ctx context.Context, history []Message) ([]steps.BuildStep, string, error) {
	if strings.TrimSpace(c.Line) == "" {
		return nil, "", ErrNotConfigured
	}
	argv, err := shellquote.Split(c.Line)
	if err != nil {
		return nil, "", fmt.Errorf("parsing agent command: %w", err)
	}
	if len(argv) == 0 {
		return nil, "", ErrNotConfigured
	}

	in, err := json.Marshal(request{Messages: history})
	if err != nil {
		return nil, "", fmt.Errorf("encoding conversation: %w", err)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = c.Dir
	cmd.Stdin = bytes.NewReader(in)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, "", fmt.Errorf("agent command failed: %s: %w", strings.TrimSpace(stderr.String()), err)
	}
	logging.Debug("agent replied", "bytes", stdout.Len())

	list, err := steps.Parse(stdout.Bytes(), steps.FormatAuto)
	if err != nil {
		return nil, "", fmt.Errorf("parsing agent output: %w", err)
	}
	return list, reply(stdout.Bytes()), nil
}

// reply extracts the optional reply text from an object-shaped response.
func reply(out []byte) string {
	var r response
	if err := steps.DecodeObject(out, &r); err != nil {
		return ""
	}
	return r.Reply
}

// Replay serves pre-recorded batches in order, one per call.
type Replay struct {
	Batches [][]steps.BuildStep
	next    int
}

func (r *Replay) Steps(ctx context.Context, history []Message) ([]steps.BuildStep, string, error) {
	if r.next >= len(r.Batches) {
		return nil, "", nil
	}
	b := r.Batches[r.next]
	r.next++
	return b, fmt.Sprintf("Applied batch %d of %d", r.next, len(r.Batches)), nil
}
