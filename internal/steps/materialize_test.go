package steps

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/zpdzap/sitebuilder/internal/tree"
)

func pending(list ...BuildStep) []BuildStep {
	return Continue(nil, list)
}

func TestMaterializeCreatesFiles(t *testing.T) {
	list := pending(
		BuildStep{Kind: CreateFile, Path: "a/b/c", Payload: "hello"},
	)

	tr, out, changed := Materialize(list, tree.New())
	if !changed {
		t.Fatal("changed = false, want true")
	}
	n, ok := tr.Lookup("a/b/c")
	if !ok || n.Content != "hello" {
		t.Fatalf("a/b/c = %+v, want file with content hello", n)
	}
	for _, s := range out {
		if s.Status != StatusCompleted {
			t.Errorf("step %d status = %q, want %q", s.ID, s.Status, StatusCompleted)
		}
	}
}

func TestMaterializeIdempotent(t *testing.T) {
	list := pending(
		BuildStep{Kind: CreateFile, Path: "index.html", Payload: "<html>"},
		BuildStep{Kind: CreateFolder, Path: "public"},
	)

	first, afterFirst, _ := Materialize(list, tree.New())
	second, afterSecond, changed := Materialize(afterFirst, first)

	if changed {
		t.Error("second pass reported a change")
	}
	if second != first {
		t.Error("second pass returned a different tree")
	}
	if !reflect.DeepEqual(afterFirst, afterSecond) {
		t.Errorf("statuses changed on second pass: %+v vs %+v", afterFirst, afterSecond)
	}
}

func TestMaterializeDoesNotMutateInput(t *testing.T) {
	base := tree.New()
	base.Upsert("index.html", tree.KindFile, "old")

	list := pending(BuildStep{Kind: EditFile, Path: "index.html", Payload: "new"})
	next, _, _ := Materialize(list, base)

	if n, _ := base.Lookup("index.html"); n.Content != "old" {
		t.Errorf("input tree mutated: %q", n.Content)
	}
	if n, _ := next.Lookup("index.html"); n.Content != "new" {
		t.Errorf("new tree content = %q, want %q", n.Content, "new")
	}
}

func TestMaterializeLaterStepWins(t *testing.T) {
	list := pending(
		BuildStep{Kind: CreateFile, Path: "src/main.ts", Payload: "v1"},
		BuildStep{Kind: EditFile, Path: "src/main.ts", Payload: "v2"},
	)
	tr, _, _ := Materialize(list, nil)

	src, _ := tr.Lookup("src")
	if len(src.Children) != 1 {
		t.Fatalf("src has %d children, want 1", len(src.Children))
	}
	if src.Children[0].Content != "v2" {
		t.Errorf("content = %q, want %q", src.Children[0].Content, "v2")
	}
}

func TestMaterializeArrivalOrderIndependent(t *testing.T) {
	one := BuildStep{Kind: CreateFile, Path: "x/1.txt", Payload: "1"}
	two := BuildStep{Kind: CreateFile, Path: "x/2.txt", Payload: "2"}

	a, _, _ := Materialize(pending(one, two), nil)
	b, _, _ := Materialize(pending(two, one), nil)

	for _, tr := range []*tree.Tree{a, b} {
		x, ok := tr.Lookup("x")
		if !ok {
			t.Fatal("folder x missing")
		}
		if len(x.Children) != 2 {
			t.Errorf("x has %d children, want 2", len(x.Children))
		}
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("trees differ by arrival order")
	}
}

func TestMaterializeMarksAllCompleted(t *testing.T) {
	list := []BuildStep{
		{ID: 1, Kind: CreateFile, Path: "a.txt", Status: StatusInProgress},
		{ID: 2, Kind: CreateFile, Path: "b.txt", Status: StatusPending},
	}
	tr, out, _ := Materialize(list, nil)

	for _, s := range out {
		if s.Status != StatusCompleted {
			t.Errorf("step %d status = %q, want completed", s.ID, s.Status)
		}
	}
	if _, ok := tr.Lookup("a.txt"); ok {
		t.Error("non-pending step should not be applied")
	}
	if _, ok := tr.Lookup("b.txt"); !ok {
		t.Error("pending step should be applied")
	}
}

func TestMaterializeSkipsBadSteps(t *testing.T) {
	list := pending(
		BuildStep{Kind: CreateFile},
		BuildStep{Kind: CreateFile, Path: "../escape.txt"},
		BuildStep{Kind: DeleteFile, Path: "keep.txt"},
		BuildStep{Kind: RunScript, Payload: "npm test"},
		BuildStep{Kind: CreateFile, Path: "ok.txt", Payload: "ok"},
	)
	base := tree.New()
	base.Upsert("keep.txt", tree.KindFile, "still here")

	tr, out, _ := Materialize(list, base)

	if _, ok := tr.Lookup("keep.txt"); !ok {
		t.Error("DeleteFile should not remove nodes")
	}
	if _, ok := tr.Lookup("ok.txt"); !ok {
		t.Error("valid step after bad ones was not applied")
	}
	if tr.Len() != 2 {
		t.Errorf("Len = %d, want 2", tr.Len())
	}
	for _, s := range out {
		if s.Status != StatusCompleted {
			t.Errorf("step %d status = %q, want completed", s.ID, s.Status)
		}
	}
}

func TestContinueNumbersFromMax(t *testing.T) {
	existing := []BuildStep{{ID: 3}, {ID: 7}, {ID: 5}}
	batch := []BuildStep{{ID: 1, Status: StatusCompleted}, {ID: 1}}

	got := Continue(existing, batch)
	if got[0].ID != 8 || got[1].ID != 9 {
		t.Errorf("ids = %d, %d, want 8, 9", got[0].ID, got[1].ID)
	}
	for _, s := range got {
		if s.Status != StatusPending {
			t.Errorf("status = %q, want pending", s.Status)
		}
	}
	if batch[0].ID != 1 {
		t.Error("Continue modified its input")
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
		want   int
	}{
		{"json list", `[{"kind":"create-file","path":"a.txt","payload":"x"}]`, FormatJSON, 1},
		{"json object", `{"steps":[{"kind":"create-folder","path":"src"},{"kind":"run-script","payload":"npm i"}]}`, FormatJSON, 2},
		{"jsonc", "[\n// comment\n{\"kind\":\"create-file\",\"path\":\"a\",},\n]", FormatAuto, 1},
		{"yaml list", "- kind: create-file\n  path: index.html\n  payload: |\n    <html></html>\n", FormatYAML, 1},
		{"yaml object", "steps:\n  - kind: edit-file\n    path: a.txt\n", FormatAuto, 1},
		{"empty", "", FormatAuto, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestParseRejectsUnknownKind(t *testing.T) {
	if _, err := Parse([]byte(`[{"kind":"shell"}]`), FormatJSON); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batch.yaml")
	data := "- kind: create-file\n  path: src/App.tsx\n  payload: export {}\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 1 || got[0].Path != "src/App.tsx" {
		t.Errorf("Load = %+v", got)
	}
	if got[0].Payload != "export {}" {
		t.Errorf("Payload = %q, want %q", got[0].Payload, "export {}")
	}
}
