// Package steps models build steps and folds them into a project tree.
package steps

import "fmt"

// Kind is the action a build step performs.
type Kind string

const (
	CreateFile   Kind = "create-file"
	CreateFolder Kind = "create-folder"
	EditFile     Kind = "edit-file"
	DeleteFile   Kind = "delete-file"
	RunScript    Kind = "run-script"
)

// Valid reports whether k is a known step kind.
func (k Kind) Valid() bool {
	switch k {
	case CreateFile, CreateFolder, EditFile, DeleteFile, RunScript:
		return true
	}
	return false
}

// Status is a step's lifecycle position. Steps start Pending and become
// Completed when a materialization pass folds their batch; they never revert.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// BuildStep is one instruction of a generated plan.
type BuildStep struct {
	ID          int    `json:"id" yaml:"id"`
	Kind        Kind   `json:"kind" yaml:"kind"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Path        string `json:"path,omitempty" yaml:"path,omitempty"`
	Payload     string `json:"payload,omitempty" yaml:"payload,omitempty"`
	Status      Status `json:"status,omitempty" yaml:"status,omitempty"`
}

// Label returns the step title, falling back to a description of the action.
func (s BuildStep) Label() string {
	if s.Title != "" {
		return s.Title
	}
	if s.Path != "" {
		return fmt.Sprintf("%s %s", s.Kind, s.Path)
	}
	return string(s.Kind)
}

// MaxID returns the largest step id in list, or 0 for an empty list.
func MaxID(list []BuildStep) int {
	highest := 0
	for _, s := range list {
		if s.ID > highest {
			highest = s.ID
		}
	}
	return highest
}

// Continue numbers a new batch after the existing steps and marks every step
// of the batch Pending. The batch slice is not modified.
func Continue(existing, batch []BuildStep) []BuildStep {
	next := MaxID(existing) + 1
	out := make([]BuildStep, len(batch))
	for i, s := range batch {
		s.ID = next + i
		s.Status = StatusPending
		out[i] = s
	}
	return out
}

// Counts tallies steps by status.
func Counts(list []BuildStep) map[Status]int {
	counts := make(map[Status]int, 3)
	for _, s := range list {
		counts[s.Status]++
	}
	return counts
}
