// Package archive exports the project tree as a zip file.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/zpdzap/sitebuilder/internal/logging"
	"github.com/zpdzap/sitebuilder/internal/tree"
)

// DefaultName is the archive base name when none is configured.
const DefaultName = "website-project"

// Write streams t as a zip archive to w. Every file becomes one entry at its
// path without the leading slash. Folders get no entries of their own, so an
// empty folder does not appear in the archive.
func Write(t *tree.Tree, w io.Writer) error {
	zw := zip.NewWriter(w)
	now := time.Now()
	for _, f := range t.Files() {
		hdr := &zip.FileHeader{
			Name:     strings.TrimPrefix(f.Path, "/"),
			Method:   zip.Deflate,
			Modified: now,
		}
		hdr.SetMode(0o644)
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("adding %s: %w", f.Path, err)
		}
		if _, err := io.WriteString(fw, f.Content); err != nil {
			return fmt.Errorf("writing %s: %w", f.Path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing archive: %w", err)
	}
	return nil
}

// Build returns the archive bytes for t.
func Build(t *tree.Tree) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(t, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileName returns the archive file name for name, defaulting to
// DefaultName and ensuring a .zip suffix.
func FileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	if !strings.HasSuffix(strings.ToLower(name), ".zip") {
		name += ".zip"
	}
	return name
}

// Save writes the archive for t into dir and returns its path. Failures are
// logged and reported as ok == false; nothing partial is left behind.
func Save(t *tree.Tree, dir, name string) (path string, ok bool) {
	if dir == "" {
		dir = "."
	}
	path = filepath.Join(dir, FileName(name))

	if err := save(t, path); err != nil {
		logging.Error("export failed", "path", path, "error", err)
		return "", false
	}
	logging.Info("exported project", "path", path, "files", len(t.Files()))
	return path, true
}

func save(t *tree.Tree, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Write(t, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
