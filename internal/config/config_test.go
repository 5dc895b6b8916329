package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMaterializesDefaultsOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	settings, sources, err := Load(dir, Overrides{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, name := range []string{"settings.toml", "filetypes.toml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s to be materialized: %v", name, err)
		}
	}
	if settings.BatchSize != 1000 {
		t.Fatalf("expected default batch_size 1000, got %d", settings.BatchSize)
	}
	if sources["batch_size"] != SourceFile {
		t.Fatalf("expected batch_size sourced from file (it's set in the embedded default), got %s", sources["batch_size"])
	}
}

func TestLoadAppliesFileOverrideAndCLIOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "settings.toml"), []byte("batch_size = 42\n"), 0o644); err != nil {
		t.Fatalf("write settings.toml: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "filetypes.toml"), []byte(""), 0o644); err != nil {
		t.Fatalf("write filetypes.toml: %v", err)
	}

	workers := 7
	settings, sources, err := Load(dir, Overrides{MaxWorkers: &workers})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.BatchSize != 42 {
		t.Fatalf("expected file override batch_size=42, got %d", settings.BatchSize)
	}
	if settings.MaxWorkers != 7 {
		t.Fatalf("expected CLI override max_workers=7, got %d", settings.MaxWorkers)
	}
	if sources["max_workers"] != SourceFlag {
		t.Fatalf("expected max_workers sourced from flag, got %s", sources["max_workers"])
	}
}

func TestGetCategory(t *testing.T) {
	s := Default()
	idx := s.BuildExtensionIndex()
	if got := idx.GetCategory(".JPG"); got != "Image" {
		t.Fatalf("expected Image for .JPG, got %s", got)
	}
	if got := idx.GetCategory("unknownext"); got != "Other" {
		t.Fatalf("expected Other for unknown extension, got %s", got)
	}
}

func TestIgnoreMatcher(t *testing.T) {
	m := NewIgnoreMatcher([]string{".git", "*.tmp"})
	if !m.Matches(".git") {
		t.Fatalf("expected .git to be ignored")
	}
	if !m.Matches("foo.tmp") {
		t.Fatalf("expected *.tmp glob to match foo.tmp")
	}
	if m.Matches("keep.txt") {
		t.Fatalf("did not expect keep.txt to be ignored")
	}
}

func TestAtomicMarkerSet(t *testing.T) {
	set := NewAtomicMarkerSet([]string{".git", "Makefile"})
	if !set.Intersects([]string{"README.md", ".git"}) {
		t.Fatalf("expected intersection on .git")
	}
	if set.Intersects([]string{"README.md"}) {
		t.Fatalf("did not expect intersection")
	}
}
