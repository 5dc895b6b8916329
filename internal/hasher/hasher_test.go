package hasher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	sstrings "github.com/sortomatic/sortomatic/internal/strings"
)

func writeFile(t *testing.T, path, contents string) time.Time {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	return info.ModTime()
}

// S2: two files with identical bytes at different paths produce equal
// full_hash and fast_hash values.
func TestHashIdenticalContentProducesEqualHashes(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.txt")
	pathB := filepath.Join(dir, "b.txt")
	contents := "the quick brown fox jumps over the lazy dog"
	mtimeA := writeFile(t, pathA, contents)
	mtimeB := writeFile(t, pathB, contents)

	h := New(1<<20, 4<<10, time.Second, nil)
	scA := h.Hash(context.Background(), &Context{Path: pathA, IsFile: true, Size: int64(len(contents)), ModTime: mtimeA})
	scB := h.Hash(context.Background(), &Context{Path: pathB, IsFile: true, Size: int64(len(contents)), ModTime: mtimeB})

	if scA.FullHash == "" || scA.FullHash != scB.FullHash {
		t.Fatalf("expected equal non-empty full hashes, got %q vs %q", scA.FullHash, scB.FullHash)
	}
	if scA.FastHash == "" || scA.FastHash != scB.FastHash {
		t.Fatalf("expected equal non-empty fast hashes, got %q vs %q", scA.FastHash, scB.FastHash)
	}
}

// S5: a zero-size file completes without crashing; full_hash may be empty
// but the call must not raise, and the fast-hash step is skipped so
// fast_hash stays empty.
func TestHashZeroSizeFileDoesNotCrash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	mtime := writeFile(t, path, "")

	h := New(1<<20, 4<<10, time.Second, nil)
	sc := h.Hash(context.Background(), &Context{Path: path, IsFile: true, Size: 0, ModTime: mtime})

	if sc.FastHash != "" {
		t.Fatalf("expected no fast hash for zero-size file, got %q", sc.FastHash)
	}
}

func TestHashNonFileUntouched(t *testing.T) {
	h := New(1<<20, 4<<10, time.Second, nil)
	sc := h.Hash(context.Background(), &Context{Path: "/does/not/matter", IsFile: false})
	if sc.FullHash != "" || sc.FastHash != "" {
		t.Fatalf("expected untouched context for non-file, got %+v", sc)
	}
}

func TestHashDifferentContentProducesDifferentHashes(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.txt")
	pathB := filepath.Join(dir, "b.txt")
	mtimeA := writeFile(t, pathA, "content one")
	mtimeB := writeFile(t, pathB, "content two, longer")

	h := New(1<<20, 4<<10, time.Second, nil)
	scA := h.Hash(context.Background(), &Context{Path: pathA, IsFile: true, Size: 11, ModTime: mtimeA})
	scB := h.Hash(context.Background(), &Context{Path: pathB, IsFile: true, Size: 19, ModTime: mtimeB})

	if scA.FullHash == scB.FullHash {
		t.Fatalf("expected different full hashes for different content")
	}
}

func TestHashPerceptualOnlyForImageCategory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	mtime := writeFile(t, path, "not an image")

	h := New(1<<20, 4<<10, time.Second, nil)
	sc := h.Hash(context.Background(), &Context{Path: path, IsFile: true, Category: sstrings.CatDocument, Size: 12, ModTime: mtime})

	if sc.PerceptualHash != "" {
		t.Fatalf("expected no perceptual hash for non-image category, got %q", sc.PerceptualHash)
	}
}
