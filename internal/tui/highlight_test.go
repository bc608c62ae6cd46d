package tui

import (
	"strings"
	"testing"

	"github.com/muesli/termenv"

	"github.com/zpdzap/sitebuilder/internal/tree"
)

func TestHighlight(t *testing.T) {
	src := "package main\n\nfunc main() {}\n"

	if got := Highlight("main.go", src, termenv.Ascii); got != src {
		t.Errorf("Ascii profile should leave content unchanged, got %q", got)
	}
	if got := Highlight("notes.unknownext", src, termenv.TrueColor); got != src {
		t.Errorf("unknown language should leave content unchanged, got %q", got)
	}

	got := Highlight("main.go", src, termenv.TrueColor)
	if !strings.Contains(got, "\x1b[") {
		t.Errorf("expected escape sequences in highlighted output, got %q", got)
	}
}

func TestPlainFileTree(t *testing.T) {
	tr := tree.New()
	tr.Upsert("/src/main.ts", tree.KindFile, "")
	tr.Upsert("/src/lib/util.ts", tree.KindFile, "")
	tr.Upsert("/index.html", tree.KindFile, "")
	tr.Upsert("/assets", tree.KindFolder, "")

	want := strings.Join([]string{
		"/",
		"├── assets/",
		"├── src/",
		"│   ├── lib/",
		"│   │   └── util.ts",
		"│   └── main.ts",
		"└── index.html",
		"",
	}, "\n")
	if got := PlainFileTree(tr); got != want {
		t.Errorf("PlainFileTree =\n%s\nwant\n%s", got, want)
	}
}
