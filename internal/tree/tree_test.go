package tree

import (
	"errors"
	"testing"
)

func TestUpsertCreatesIntermediateFolders(t *testing.T) {
	tr := New()
	if err := tr.Upsert("a/b/c", KindFile, "hello"); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	for _, p := range []string{"/a", "/a/b"} {
		n, ok := tr.Lookup(p)
		if !ok {
			t.Fatalf("Lookup(%q) not found", p)
		}
		if !n.IsDir() {
			t.Errorf("%s kind = %v, want folder", p, n.Kind)
		}
	}

	f, ok := tr.Lookup("a/b/c")
	if !ok {
		t.Fatal("file a/b/c not found")
	}
	if f.IsDir() {
		t.Error("a/b/c should be a file")
	}
	if f.Path != "/a/b/c" {
		t.Errorf("Path = %q, want %q", f.Path, "/a/b/c")
	}
	if f.Name != "c" {
		t.Errorf("Name = %q, want %q", f.Name, "c")
	}
	if f.Content != "hello" {
		t.Errorf("Content = %q, want %q", f.Content, "hello")
	}
}

func TestUpsertOverwritesWithoutDuplicating(t *testing.T) {
	tr := New()
	tr.Upsert("a/b/c", KindFile, "one")
	tr.Upsert("/a/b/c", KindFile, "two")

	b, _ := tr.Lookup("a/b")
	if len(b.Children) != 1 {
		t.Fatalf("a/b has %d children, want 1", len(b.Children))
	}
	if b.Children[0].Content != "two" {
		t.Errorf("Content = %q, want %q", b.Children[0].Content, "two")
	}
	if tr.Len() != 3 {
		t.Errorf("Len = %d, want 3", tr.Len())
	}
}

func TestUpsertFolderIsIdempotent(t *testing.T) {
	tr := New()
	tr.Upsert("src/components", KindFolder, "")
	tr.Upsert("src/components/App.tsx", KindFile, "x")
	tr.Upsert("src/components", KindFolder, "")

	n, ok := tr.Lookup("src/components")
	if !ok || !n.IsDir() {
		t.Fatal("src/components should be a folder")
	}
	if len(n.Children) != 1 {
		t.Errorf("re-creating a folder dropped children: %d", len(n.Children))
	}
}

func TestUpsertKindConflictLastWriterWins(t *testing.T) {
	tr := New()
	tr.Upsert("x/y.txt", KindFile, "data")
	tr.Upsert("x", KindFile, "now a file")

	n, _ := tr.Lookup("x")
	if n.IsDir() {
		t.Fatal("x should have become a file")
	}
	if _, ok := tr.Lookup("x/y.txt"); ok {
		t.Error("x/y.txt should be gone after x became a file")
	}

	tr.Upsert("x/z.txt", KindFile, "again")
	n, _ = tr.Lookup("x")
	if !n.IsDir() {
		t.Error("x should be a folder again after a nested upsert")
	}
}

func TestUpsertInvalidPaths(t *testing.T) {
	tr := New()
	for _, p := range []string{"", "/", "./", "a/../b"} {
		if err := tr.Upsert(p, KindFile, ""); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("Upsert(%q) err = %v, want ErrInvalidPath", p, err)
		}
	}
	if !tr.Empty() {
		t.Error("invalid upserts should not mutate the tree")
	}
}

func TestOrderIndependence(t *testing.T) {
	a := New()
	a.Upsert("x/1.txt", KindFile, "1")
	a.Upsert("x/2.txt", KindFile, "2")

	b := New()
	b.Upsert("x/2.txt", KindFile, "2")
	b.Upsert("x/1.txt", KindFile, "1")

	xa, _ := a.Lookup("x")
	xb, _ := b.Lookup("x")
	if len(xa.Children) != 2 || len(xb.Children) != 2 {
		t.Fatalf("children = %d / %d, want 2 / 2", len(xa.Children), len(xb.Children))
	}
	sa, sb := xa.Sorted(), xb.Sorted()
	for i := range sa {
		if sa[i].Path != sb[i].Path {
			t.Errorf("sorted[%d] = %q vs %q", i, sa[i].Path, sb[i].Path)
		}
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("fingerprints differ for the same content")
	}
}

func TestSortedFoldersFirst(t *testing.T) {
	tr := New()
	tr.Upsert("b.txt", KindFile, "")
	tr.Upsert("a.txt", KindFile, "")
	tr.Upsert("src/main.ts", KindFile, "")
	tr.Upsert("public", KindFolder, "")

	var got []string
	for _, n := range tr.Root().Sorted() {
		got = append(got, n.Name)
	}
	want := []string{"public", "src", "a.txt", "b.txt"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sorted[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	tr := New()
	tr.Upsert("index.html", KindFile, "v1")

	c := tr.Clone()
	c.Upsert("index.html", KindFile, "v2")
	c.Upsert("extra.css", KindFile, "")

	n, _ := tr.Lookup("index.html")
	if n.Content != "v1" {
		t.Errorf("original mutated through clone: %q", n.Content)
	}
	if tr.Len() != 1 {
		t.Errorf("original Len = %d, want 1", tr.Len())
	}
}

func TestMerge(t *testing.T) {
	base := New()
	base.Upsert("src/a.ts", KindFile, "a")
	base.Upsert("src/b.ts", KindFile, "old")

	other := New()
	other.Upsert("src/b.ts", KindFile, "new")
	other.Upsert("docs", KindFolder, "")

	base.Merge(other)

	if n, _ := base.Lookup("src/b.ts"); n.Content != "new" {
		t.Errorf("src/b.ts = %q, want %q", n.Content, "new")
	}
	if _, ok := base.Lookup("src/a.ts"); !ok {
		t.Error("src/a.ts lost in merge")
	}
	if n, ok := base.Lookup("docs"); !ok || !n.IsDir() {
		t.Error("docs folder missing after merge")
	}
}

func TestFingerprintChangesWithContent(t *testing.T) {
	tr := New()
	tr.Upsert("a.txt", KindFile, "1")
	before := tr.Fingerprint()
	tr.Upsert("a.txt", KindFile, "1")
	if tr.Fingerprint() != before {
		t.Error("fingerprint changed on identical overwrite")
	}
	tr.Upsert("a.txt", KindFile, "2")
	if tr.Fingerprint() == before {
		t.Error("fingerprint unchanged after content change")
	}
}

func TestFingerprintFieldBoundaries(t *testing.T) {
	a := New()
	a.Upsert("a", KindFile, "x\x00\x00file\x00/b\x00y")
	b := New()
	b.Upsert("a", KindFile, "x")
	b.Upsert("b", KindFile, "y")
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("trees with NUL-laden content and split files share a fingerprint")
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"src/App.tsx", "/src/App.tsx"},
		{"/src//App.tsx", "/src/App.tsx"},
		{"./package.json", "/package.json"},
		{"my docs /read me.md", "/my docs /read me.md"},
	}
	for _, tt := range tests {
		got, err := Canonical(tt.in)
		if err != nil {
			t.Fatalf("Canonical(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
