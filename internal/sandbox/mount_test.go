package sandbox

import (
	"encoding/json"
	"testing"

	"github.com/zpdzap/sitebuilder/internal/tree"
)

func TestToFileSystemTree(t *testing.T) {
	tr := tree.New()
	tr.Upsert("/package.json", tree.KindFile, "{}")
	tr.Upsert("/src/components/App.tsx", tree.KindFile, "export default 1")
	tr.Upsert("/public", tree.KindFolder, "")

	fst := ToFileSystemTree(tr)

	if got := fst["package.json"].File.Contents; got != "{}" {
		t.Errorf("package.json = %q", got)
	}
	app := fst["src"].Directory["components"].Directory["App.tsx"]
	if app.IsDir() || app.File.Contents != "export default 1" {
		t.Errorf("App.tsx entry = %+v", app)
	}
	if pub := fst["public"]; !pub.IsDir() || len(pub.Directory) != 0 {
		t.Errorf("public entry = %+v", pub)
	}
	if files, dirs := fst.Count(); files != 2 || dirs != 3 {
		t.Errorf("Count = %d files, %d dirs; want 2, 3", files, dirs)
	}
}

func TestFileSystemTreeJSON(t *testing.T) {
	tr := tree.New()
	tr.Upsert("/docs", tree.KindFolder, "")
	tr.Upsert("/src/main.ts", tree.KindFile, "go()")

	data, err := json.Marshal(ToFileSystemTree(tr))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"docs":{"directory":{}},"src":{"directory":{"main.ts":{"file":{"contents":"go()"}}}}}`
	if string(data) != want {
		t.Errorf("json = %s\nwant   %s", data, want)
	}

	var back FileSystemTree
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back["docs"].IsDir() || back["src"].Directory["main.ts"].File.Contents != "go()" {
		t.Errorf("decoded = %+v", back)
	}
}
