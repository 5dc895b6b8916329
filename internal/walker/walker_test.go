package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sortomatic/sortomatic/internal/catalog"
	"github.com/sortomatic/sortomatic/internal/config"
)

func collect(t *testing.T, w *Walker, root string) []Entry {
	t.Helper()
	var out []Entry
	for e, err := range w.Walk(root) {
		if err != nil {
			t.Fatalf("walk error: %v", err)
		}
		out = append(out, e)
	}
	return out
}

func TestWalkPlainFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "hi")
	os.MkdirAll(filepath.Join(root, "dir"), 0o755)
	writeFile(t, filepath.Join(root, "dir", "b.jpg"), "fake")

	w := New(config.Default())
	entries := collect(t, w, root)

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %v", len(entries), entries)
	}
	for _, e := range entries {
		if e.Type != catalog.File {
			t.Fatalf("expected File type, got %v for %s", e.Type, e.Path)
		}
	}
}

// S3: a directory containing .git plus nested files collapses to one bundle
// row, with no descendant path appearing in the index (invariant 5).
func TestWalkCollapsesBundle(t *testing.T) {
	root := t.TempDir()
	repo := filepath.Join(root, "repo")
	os.MkdirAll(filepath.Join(repo, ".git"), 0o755)
	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(repo, "file", "nested.txt"), "x")
	}
	writeFile(t, filepath.Join(repo, "main.go"), "package main")

	w := New(config.Default())
	entries := collect(t, w, root)

	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 entry (the bundle), got %d: %v", len(entries), entries)
	}
	if entries[0].Path != repo || entries[0].Type != catalog.Bundle {
		t.Fatalf("expected bundle at %s, got %+v", repo, entries[0])
	}
}

func TestWalkHonorsIgnorePatterns(t *testing.T) {
	root := t.TempDir()
	os.MkdirAll(filepath.Join(root, ".git"), 0o755)
	writeFile(t, filepath.Join(root, ".git", "config"), "x")
	writeFile(t, filepath.Join(root, "keep.txt"), "x")

	s := config.Default()
	s.AtomicMarkers = nil // disable bundle collapse so we're testing ignore, not markers
	w := New(s)
	entries := collect(t, w, root)

	for _, e := range entries {
		if filepath.Base(filepath.Dir(e.Path)) == ".git" {
			t.Fatalf("expected .git contents to be ignored, found %s", e.Path)
		}
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
