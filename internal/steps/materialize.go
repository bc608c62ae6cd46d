package steps

import (
	"github.com/zpdzap/sitebuilder/internal/logging"
	"github.com/zpdzap/sitebuilder/internal/tree"
)

// Materialize folds every Pending step of list into a copy of t, in list
// order, and marks every step of the list Completed. It returns the new tree,
// the updated list and whether anything was pending.
//
// When nothing is pending it returns t itself and list unchanged, so calling
// it again without new steps is a no-op.
//
// Steps whose path is missing or malformed are skipped for mutation but are
// still completed with the rest of the batch. DeleteFile and RunScript do not
// touch the tree.
func Materialize(list []BuildStep, t *tree.Tree) (*tree.Tree, []BuildStep, bool) {
	if t == nil {
		t = tree.New()
	}

	pending := false
	for _, s := range list {
		if s.Status == StatusPending {
			pending = true
			break
		}
	}
	if !pending {
		return t, list, false
	}

	next := t.Clone()
	for _, s := range list {
		if s.Status != StatusPending {
			continue
		}
		apply(next, s)
	}

	out := make([]BuildStep, len(list))
	for i, s := range list {
		s.Status = StatusCompleted
		out[i] = s
	}
	return next, out, true
}

func apply(t *tree.Tree, s BuildStep) {
	var kind tree.Kind
	switch s.Kind {
	case CreateFile, EditFile:
		kind = tree.KindFile
	case CreateFolder:
		kind = tree.KindFolder
	default:
		logging.Debug("step kind not applied to tree", "id", s.ID, "kind", s.Kind, "path", s.Path)
		return
	}

	if s.Path == "" {
		logging.Debug("skipping step without path", "id", s.ID, "kind", s.Kind)
		return
	}
	if err := t.Upsert(s.Path, kind, s.Payload); err != nil {
		logging.Debug("skipping step", "id", s.ID, "path", s.Path, "error", err)
	}
}
