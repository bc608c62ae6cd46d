package tui

import (
	"strings"

	"github.com/zpdzap/sitebuilder/internal/tree"
)

// fileRow is one rendered line of the file tree.
type fileRow struct {
	node   *tree.Node
	prefix string // connector text before the name
}

// fileRows flattens t into display rows: folders first, then files, each
// level sorted by name, with ├── └── │ connectors.
func fileRows(t *tree.Tree) []fileRow {
	var rows []fileRow
	appendRows(&rows, t.Root(), "")
	return rows
}

func appendRows(rows *[]fileRow, dir *tree.Node, prefix string) {
	children := dir.Sorted()
	for i, n := range children {
		isLast := i == len(children)-1
		connector := "├── "
		childPrefix := "│   "
		if isLast {
			connector = "└── "
			childPrefix = "    "
		}
		*rows = append(*rows, fileRow{node: n, prefix: prefix + connector})
		if n.IsDir() {
			appendRows(rows, n, prefix+childPrefix)
		}
	}
}

// renderFileTree renders rows[offset:offset+height], marking the cursor row.
func renderFileTree(rows []fileRow, cursor, offset, height int, focused bool) []string {
	var out []string
	for i := offset; i < len(rows) && i < offset+height; i++ {
		r := rows[i]
		name := r.node.Name
		style := treeFileStyle
		if r.node.IsDir() {
			name += "/"
			style = treeDirStyle
		}
		if focused && i == cursor {
			style = treeCursorStyle
		}
		out = append(out, treeBranchStyle.Render(r.prefix)+style.Render(name))
	}
	return out
}

// PlainFileTree renders t as unstyled connector text.
func PlainFileTree(t *tree.Tree) string {
	var b strings.Builder
	b.WriteString("/\n")
	for _, r := range fileRows(t) {
		b.WriteString(r.prefix)
		b.WriteString(r.node.Name)
		if r.node.IsDir() {
			b.WriteString("/")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
