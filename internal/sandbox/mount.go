package sandbox

import (
	"encoding/json"

	"github.com/zpdzap/sitebuilder/internal/tree"
)

// FileSystemTree is the nested mount snapshot handed to a sandbox, keyed by
// entry name. Its JSON form is the browser sandbox mount format:
//
//	{"src": {"directory": {"main.ts": {"file": {"contents": "..."}}}}}
type FileSystemTree map[string]Entry

// Entry is a directory or a file. File is nil for directories.
type Entry struct {
	Directory FileSystemTree
	File      *FileContents
}

// FileContents holds a file's text.
type FileContents struct {
	Contents string `json:"contents"`
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return e.File == nil }

func (e Entry) MarshalJSON() ([]byte, error) {
	if e.File != nil {
		return json.Marshal(struct {
			File *FileContents `json:"file"`
		}{e.File})
	}
	dir := e.Directory
	if dir == nil {
		dir = FileSystemTree{}
	}
	return json.Marshal(struct {
		Directory FileSystemTree `json:"directory"`
	}{dir})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Directory FileSystemTree `json:"directory"`
		File      *FileContents  `json:"file"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.File = raw.File
	e.Directory = raw.Directory
	if e.File == nil && e.Directory == nil {
		e.Directory = FileSystemTree{}
	}
	return nil
}

// ToFileSystemTree converts a project tree into a mount snapshot. Every
// folder becomes a directory entry and every file a file entry, at any depth.
func ToFileSystemTree(t *tree.Tree) FileSystemTree {
	return convert(t.Root())
}

func convert(dir *tree.Node) FileSystemTree {
	out := make(FileSystemTree, len(dir.Children))
	for _, n := range dir.Children {
		if n.IsDir() {
			out[n.Name] = Entry{Directory: convert(n)}
		} else {
			out[n.Name] = Entry{File: &FileContents{Contents: n.Content}}
		}
	}
	return out
}

// Count returns the number of files and directories in the snapshot.
func (f FileSystemTree) Count() (files, dirs int) {
	for _, e := range f {
		if e.IsDir() {
			dirs++
			sf, sd := e.Directory.Count()
			files += sf
			dirs += sd
		} else {
			files++
		}
	}
	return files, dirs
}
