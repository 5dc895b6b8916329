// Package walker yields (path, entry_type) tuples for a directory tree,
// collapsing atomic bundles and honoring ignore patterns.
//
// The traversal algorithm is ported from original_source's smart_walk:
// pre-order, marker-based bundle collapse checked before ignore filtering,
// recursion pruned at a bundle boundary. The package-level shape (a small
// value type walking one directory at a time, no goroutine fan-out) departs
// from dupedog's scanner.go, whose concurrent walkDirectory fan-out exists
// to parallelize I/O across many goroutines; here the walk is a single
// lazy sequence consumed by the PassExecutor, which is itself the
// concurrency layer (spec.md §4.2 requires a lazy, non-restartable
// sequence, not a pre-parallelized one) — the goroutine/semaphore texture
// dupedog uses is reused instead inside internal/executor, which is the
// component this module's equivalent of dupedog's fan-out actually lives
// in.
package walker

import (
	"io"
	"iter"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sortomatic/sortomatic/internal/catalog"
	"github.com/sortomatic/sortomatic/internal/config"
)

// Entry is one yielded tuple.
type Entry struct {
	Path string
	Type catalog.EntryType
}

// Walker walks a single root, configured with the atomic-marker set and
// ignore-glob matcher taken from the loaded Settings.
type Walker struct {
	markers config.AtomicMarkerSet
	ignore  *config.IgnoreMatcher
	log     *slog.Logger
}

// New builds a Walker from a Settings value.
func New(settings config.Settings) *Walker {
	return &Walker{
		markers: config.NewAtomicMarkerSet(settings.AtomicMarkers),
		ignore:  config.NewIgnoreMatcher(settings.Ignore),
		log:     slog.Default().With("component", "walker"),
	}
}

// Walk returns a finite, lazy sequence of Entry over the tree rooted at
// root. Not restartable mid-stream: a caller that wants to retry re-invokes
// Walk. Symbolic-link cycles are not detected by this package — the OS's
// own traversal order is relied upon, per spec.md §4.2's edge cases.
func (w *Walker) Walk(root string) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		w.walkDir(root, yield)
	}
}

// walkDir implements one step of the pre-order traversal described in
// spec.md §4.2:
//  1. read the directory's immediate entries
//  2. if they intersect the atomic-marker set, yield (dir, bundle) and stop
//  3. otherwise filter by the ignore-glob set, yield surviving files, and
//     recurse into surviving subdirectories
//
// Returns false if the caller's yield asked to stop iterating.
func (w *Walker) walkDir(dir string, yield func(Entry, error) bool) bool {
	dirNames, fileNames, err := readDirNames(dir)
	if err != nil {
		w.log.Debug("walk error", "path", dir, "error", err)
		return true // never abort the walk on a single directory's I/O error
	}

	allNames := make([]string, 0, len(dirNames)+len(fileNames))
	allNames = append(allNames, dirNames...)
	allNames = append(allNames, fileNames...)
	if w.markers.Intersects(allNames) {
		return yield(Entry{Path: dir, Type: catalog.Bundle}, nil)
	}

	for _, name := range fileNames {
		if w.ignore.Matches(name) {
			continue
		}
		if !yield(Entry{Path: filepath.Join(dir, name), Type: catalog.File}, nil) {
			return false
		}
	}

	for _, name := range dirNames {
		if w.ignore.Matches(name) {
			continue
		}
		if !w.walkDir(filepath.Join(dir, name), yield) {
			return false
		}
	}

	return true
}

// readDirNames reads the directory in ReadDir batches of 1000 entries
// (dupedog's own batching constant) and splits entries into subdirectory
// and file basenames; all names are collected before it returns.
func readDirNames(dir string) (dirNames, fileNames []string, err error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	const batchSize = 1000
	for {
		entries, readErr := f.ReadDir(batchSize)
		for _, e := range entries {
			if e.IsDir() {
				dirNames = append(dirNames, e.Name())
			} else {
				fileNames = append(fileNames, e.Name())
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return dirNames, fileNames, readErr
		}
		if len(entries) == 0 {
			break
		}
	}
	return dirNames, fileNames, nil
}
