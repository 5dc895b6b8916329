// Package pipeline is the thin composer described in spec.md §4.6: it
// exposes the four run_* entry points a CLI front-end calls, wiring
// internal/walker / internal/catalog as producers, internal/categorizer
// and internal/hasher as workers, and internal/executor as the dispatch
// layer. Grounded on manager.py's Manager class for the pass shapes
// (index/categorize/hash/full) and on Harvx's discovery.walker.go for the
// progress-bar + structured-logging texture around a long scan.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/sortomatic/sortomatic/internal/catalog"
	"github.com/sortomatic/sortomatic/internal/categorizer"
	"github.com/sortomatic/sortomatic/internal/config"
	"github.com/sortomatic/sortomatic/internal/executor"
	"github.com/sortomatic/sortomatic/internal/hasher"
	"github.com/sortomatic/sortomatic/internal/progress"
	sstrings "github.com/sortomatic/sortomatic/internal/strings"
	"github.com/sortomatic/sortomatic/internal/walker"
)

// Manager composes the four passes over one open Catalog.
type Manager struct {
	cat      *catalog.Catalog
	settings config.Settings
	walker   *walker.Walker
	cats     *categorizer.Categorizer
	hash     *hasher.Hasher
	ex       *executor.Executor
	progress bool
	log      *slog.Logger
}

// New builds a Manager bound to an already-open Catalog. hashCache may be
// nil to disable byte-range memoization.
func New(cat *catalog.Catalog, settings config.Settings, hashCache hasher.Cache, showProgress bool) *Manager {
	return &Manager{
		cat:      cat,
		settings: settings,
		walker:   walker.New(settings),
		cats:     categorizer.New(settings),
		hash:     hasher.New(settings.HashingChunkSize, settings.FastHashSize, settings.HashingTimeout, hashCache),
		ex:       executor.New(settings.MaxWorkers, settings.BatchSize),
		progress: showProgress,
		log:      slog.Default().With("component", "pipeline"),
	}
}

// indexRecord stats path and synthesizes a full catalog.Entry with null
// analytical fields, or category=Project/Bundle for bundles — spec.md
// §4.6's index-pass worker.
func indexRecord(e walker.Entry) (catalog.Entry, bool) {
	info, err := os.Stat(e.Path)
	if err != nil {
		return catalog.Entry{}, false
	}

	entry := catalog.Entry{
		Path:       e.Path,
		Filename:   filepath.Base(e.Path),
		Extension:  strings.ToLower(filepath.Ext(e.Path)),
		SizeBytes:  info.Size(),
		ModifiedAt: info.ModTime(),
		EntryType:  e.Type,
	}
	if e.Type == catalog.Bundle {
		entry.Category.String = sstrings.CatBundle
		entry.Category.Valid = true
		entry.Extension = ""
		entry.SizeBytes = 0
	}
	return entry, true
}

// entrySize stats path and returns its size, or 0 if it cannot be statted —
// used only to feed the executor's byte-count accumulator, never to fail a
// pass (spec.md §7's transient-per-file error policy).
func entrySize(path string) int64 {
	info, err := os.Lstat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// RunIndex walks root and inserts one row per discovered file or bundle.
func (m *Manager) RunIndex(ctx context.Context, root string) (executor.Stats, error) {
	m.log.Info("index pass starting", "root", root)
	bar := progress.New(m.progress, -1)
	stats, err := executor.Run(
		ctx, m.ex,
		m.walker.Walk(root),
		func(e walker.Entry) int64 { return entrySize(e.Path) },
		func(_ context.Context, e walker.Entry) (catalog.Entry, bool) { return indexRecord(e) },
		func(batch []catalog.Entry) error { return m.cat.InsertMany(ctx, batch) },
		func(err error) { m.log.Warn("index walk error", "err", err) },
		func(count int, bytes int64) { bar.Set(uint64(count)) },
	)
	bar.Finish(summaryStringer(fmt.Sprintf("indexed %d entries", stats.Count)))
	m.log.Info("index pass done", "count", stats.Count)
	return stats, err
}

// categorizeRecord reads a row missing category, runs the Categorizer, and
// returns an update descriptor touching only category/mime_type/extension.
func (m *Manager) categorizeRecord(ctx context.Context, e catalog.Entry) (catalog.Update, bool) {
	sc := &categorizer.Context{Path: e.Path, IsFile: e.EntryType == catalog.File}
	sc = m.cats.Categorize(ctx, sc)
	if sc.Category == "" {
		return catalog.Update{}, false
	}
	return catalog.Update{
		ID: e.ID,
		Fields: map[string]any{
			"category":  sc.Category,
			"mime_type": sc.MimeType,
			"extension": sc.Extension,
		},
	}, true
}

// RunCategorize streams rows with category IS NULL and updates them.
func (m *Manager) RunCategorize(ctx context.Context) (executor.Stats, error) {
	m.log.Info("categorize pass starting")
	total, _ := m.cat.CountWhere(ctx, catalog.CategoryMissing())
	bar := progress.New(m.progress, total)
	stats, err := executor.Run(
		ctx, m.ex,
		m.cat.IterWhere(ctx, catalog.CategoryMissing()),
		func(e catalog.Entry) int64 { return e.SizeBytes },
		m.categorizeRecord,
		func(batch []catalog.Update) error { return m.cat.BulkUpdate(ctx, batch) },
		func(err error) { m.log.Warn("categorize iterate error", "err", err) },
		func(count int, bytes int64) { bar.Set(uint64(count)) },
	)
	bar.Finish(summaryStringer(fmt.Sprintf("categorized %d entries", stats.Count)))
	m.log.Info("categorize pass done", "count", stats.Count)
	return stats, err
}

// hashRecord reads a row missing full_hash, runs the Hasher, and returns an
// update descriptor with the four hash fields.
func (m *Manager) hashRecord(ctx context.Context, e catalog.Entry) (catalog.Update, bool) {
	sc := &hasher.Context{
		Path:     e.Path,
		IsFile:   e.EntryType == catalog.File,
		Category: e.Category.String,
		Size:     e.SizeBytes,
		ModTime:  e.ModifiedAt,
	}
	sc = m.hash.Hash(ctx, sc)
	return catalog.Update{
		ID: e.ID,
		Fields: map[string]any{
			"fast_hash":         nullIfEmpty(sc.FastHash),
			"full_hash":         nullIfEmpty(sc.FullHash),
			"perceptual_hash":   nullIfEmpty(sc.PerceptualHash),
			"audio_fingerprint": nullIfEmpty(sc.AudioFingerprint),
		},
	}, true
}

// RunHash streams file rows with full_hash IS NULL and updates them.
func (m *Manager) RunHash(ctx context.Context) (executor.Stats, error) {
	m.log.Info("hash pass starting")
	total, _ := m.cat.CountWhere(ctx, catalog.HashMissing())
	bar := progress.New(m.progress, total)
	stats, err := executor.Run(
		ctx, m.ex,
		m.cat.IterWhere(ctx, catalog.HashMissing()),
		func(e catalog.Entry) int64 { return e.SizeBytes },
		m.hashRecord,
		func(batch []catalog.Update) error { return m.cat.BulkUpdate(ctx, batch) },
		func(err error) { m.log.Warn("hash iterate error", "err", err) },
		func(count int, bytes int64) { bar.Set(uint64(count)) },
	)
	bar.Finish(summaryStringer(fmt.Sprintf("hashed %d entries (%s)", stats.Count, humanize.IBytes(uint64(stats.Bytes)))))
	m.log.Info("hash pass done", "count", stats.Count, "bytes", stats.Bytes)
	return stats, err
}

// fullRecord is run_all's index leg: index, then (for plain files)
// categorize and hash, merged into a single record for one insert —
// spec.md §4.6's "full pass".
func (m *Manager) fullRecord(ctx context.Context, e walker.Entry) (catalog.Entry, bool) {
	entry, ok := indexRecord(e)
	if !ok || entry.EntryType == catalog.Bundle {
		return entry, ok
	}

	sc := &categorizer.Context{Path: entry.Path, IsFile: true}
	sc = m.cats.Categorize(ctx, sc)
	entry.Category.String, entry.Category.Valid = sc.Category, sc.Category != ""
	entry.MimeType.String, entry.MimeType.Valid = sc.MimeType, sc.MimeType != ""
	entry.Extension = sc.Extension

	hc := &hasher.Context{
		Path:     entry.Path,
		IsFile:   true,
		Category: sc.Category,
		Size:     entry.SizeBytes,
		ModTime:  entry.ModifiedAt,
	}
	hc = m.hash.Hash(ctx, hc)
	entry.FastHash.String, entry.FastHash.Valid = hc.FastHash, hc.FastHash != ""
	entry.FullHash.String, entry.FullHash.Valid = hc.FullHash, hc.FullHash != ""
	entry.PerceptualHash.String, entry.PerceptualHash.Valid = hc.PerceptualHash, hc.PerceptualHash != ""
	entry.AudioFingerpr.String, entry.AudioFingerpr.Valid = hc.AudioFingerprint, hc.AudioFingerprint != ""

	return entry, true
}

// RunAll walks root and runs index+categorize+hash in one fused pass,
// logging a resume-summary first (spec.md §4.6's resumability note: safe
// to call repeatedly, idempotent on path).
func (m *Manager) RunAll(ctx context.Context, root string) (executor.Stats, error) {
	uncategorized, _ := m.cat.CountWhere(ctx, catalog.CategoryMissing())
	unhashed, _ := m.cat.CountWhere(ctx, catalog.HashMissing())
	m.log.Info("resuming scan", "uncategorized", uncategorized, "unhashed", unhashed)

	bar := progress.New(m.progress, -1)
	stats, err := executor.Run(
		ctx, m.ex,
		m.walker.Walk(root),
		func(e walker.Entry) int64 { return entrySize(e.Path) },
		m.fullRecord,
		func(batch []catalog.Entry) error { return m.cat.InsertMany(ctx, batch) },
		func(err error) { m.log.Warn("scan walk error", "err", err) },
		func(count int, bytes int64) { bar.Set(uint64(count)) },
	)
	bar.Finish(summaryStringer(fmt.Sprintf("scanned %d entries", stats.Count)))
	m.log.Info("scan done", "count", stats.Count)
	return stats, err
}

// nullIfEmpty turns an empty string into a SQL NULL at the catalog.Update
// layer (execUpdate passes values straight through to database/sql).
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type summaryStringer string

func (s summaryStringer) String() string { return string(s) }
