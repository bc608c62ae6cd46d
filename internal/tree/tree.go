// Package tree holds the in-memory project tree that build steps are
// materialized into. Nodes are keyed by their canonical slash-prefixed path
// ("/src/App.tsx"); a path is either a file or a folder, never both.
package tree

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
)

// ErrInvalidPath is returned for paths with no usable segments or with ".."
// segments.
var ErrInvalidPath = errors.New("invalid path")

// Kind distinguishes files from folders.
type Kind int

const (
	KindFile Kind = iota
	KindFolder
)

func (k Kind) String() string {
	if k == KindFolder {
		return "folder"
	}
	return "file"
}

// Node is a single file or folder. Content is only meaningful for files and
// Children only for folders.
type Node struct {
	Kind     Kind
	Name     string
	Path     string
	Content  string
	Children []*Node
}

// IsDir reports whether the node is a folder.
func (n *Node) IsDir() bool { return n.Kind == KindFolder }

// child returns the direct child with the given canonical path.
func (n *Node) child(path string) (int, *Node) {
	for i, c := range n.Children {
		if c.Path == path {
			return i, c
		}
	}
	return -1, nil
}

// Sorted returns the children in display order: folders before files, then
// by name. The underlying slice keeps insertion order.
func (n *Node) Sorted() []*Node {
	out := make([]*Node, len(n.Children))
	copy(out, n.Children)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsDir() != out[j].IsDir() {
			return out[i].IsDir()
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (n *Node) clone() *Node {
	c := &Node{Kind: n.Kind, Name: n.Name, Path: n.Path, Content: n.Content}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.clone()
		}
	}
	return c
}

// Tree is a project tree rooted at an unnamed folder.
type Tree struct {
	root *Node
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{root: &Node{Kind: KindFolder}}
}

// Root returns the unnamed root folder. Its children are the top-level
// entries of the project.
func (t *Tree) Root() *Node { return t.root }

// Segments splits a path into its canonical segments. Empty and "." segments
// are dropped; ".." is rejected.
func Segments(path string) ([]string, error) {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		switch s {
		case "", ".":
			continue
		case "..":
			return nil, ErrInvalidPath
		}
		segs = append(segs, s)
	}
	if len(segs) == 0 {
		return nil, ErrInvalidPath
	}
	return segs, nil
}

// Canonical returns the slash-prefixed form of path.
func Canonical(path string) (string, error) {
	segs, err := Segments(path)
	if err != nil {
		return "", err
	}
	return "/" + strings.Join(segs, "/"), nil
}

// Upsert creates or updates the node at path. Missing intermediate folders
// are created. A file upsert replaces the content; a folder upsert on an
// existing folder is a no-op. When the existing node has the other kind it is
// replaced, subtree included.
func (t *Tree) Upsert(path string, kind Kind, content string) error {
	segs, err := Segments(path)
	if err != nil {
		return err
	}

	dir := t.root
	current := ""
	for i, name := range segs {
		current += "/" + name
		last := i == len(segs)-1

		idx, existing := dir.child(current)
		if !last {
			if existing == nil || !existing.IsDir() {
				folder := &Node{Kind: KindFolder, Name: name, Path: current}
				if idx >= 0 {
					dir.Children[idx] = folder
				} else {
					dir.Children = append(dir.Children, folder)
				}
				existing = folder
			}
			dir = existing
			continue
		}

		switch {
		case existing == nil:
			n := &Node{Kind: kind, Name: name, Path: current}
			if kind == KindFile {
				n.Content = content
			}
			dir.Children = append(dir.Children, n)
		case existing.Kind != kind:
			n := &Node{Kind: kind, Name: name, Path: current}
			if kind == KindFile {
				n.Content = content
			}
			dir.Children[idx] = n
		case kind == KindFile:
			existing.Content = content
		}
	}
	return nil
}

// Lookup returns the node at path.
func (t *Tree) Lookup(path string) (*Node, bool) {
	segs, err := Segments(path)
	if err != nil {
		return nil, false
	}
	n := t.root
	current := ""
	for _, name := range segs {
		current += "/" + name
		_, next := n.child(current)
		if next == nil {
			return nil, false
		}
		n = next
	}
	return n, true
}

// WalkFunc is called for every node in depth-first display order. depth is 0
// for top-level entries.
type WalkFunc func(n *Node, depth int) error

// Walk visits every node depth-first in display order. A non-nil error from
// fn stops the walk and is returned.
func (t *Tree) Walk(fn WalkFunc) error {
	return walk(t.root, 0, fn)
}

func walk(dir *Node, depth int, fn WalkFunc) error {
	for _, n := range dir.Sorted() {
		if err := fn(n, depth); err != nil {
			return err
		}
		if n.IsDir() {
			if err := walk(n, depth+1, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// Files returns every file node in display order.
func (t *Tree) Files() []*Node {
	var files []*Node
	t.Walk(func(n *Node, _ int) error {
		if !n.IsDir() {
			files = append(files, n)
		}
		return nil
	})
	return files
}

// Len returns the number of nodes, folders included.
func (t *Tree) Len() int {
	count := 0
	t.Walk(func(*Node, int) error {
		count++
		return nil
	})
	return count
}

// Empty reports whether the tree has no entries.
func (t *Tree) Empty() bool { return len(t.root.Children) == 0 }

// Clone returns a deep copy.
func (t *Tree) Clone() *Tree {
	return &Tree{root: t.root.clone()}
}

// Merge folds other into t depth-first. Nodes from other win on conflicts,
// including kind conflicts.
func (t *Tree) Merge(other *Tree) {
	other.Walk(func(n *Node, _ int) error {
		t.Upsert(n.Path, n.Kind, n.Content)
		return nil
	})
}

// Fingerprint returns a BLAKE3 digest of the tree's structure and contents.
// Two trees with the same paths, kinds and contents have the same
// fingerprint regardless of insertion order.
func (t *Tree) Fingerprint() string {
	h := blake3.New()
	field := func(s string) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}
	t.Walk(func(n *Node, _ int) error {
		field(n.Kind.String())
		field(n.Path)
		if !n.IsDir() {
			field(n.Content)
		} else {
			field("")
		}
		return nil
	})
	return hex.EncodeToString(h.Sum(nil))
}
