// Package hasher populates fast_hash, full_hash, and perceptual_hash for a
// single file under one deadline. Each step is wrapped in its own
// try/continue (spec.md §4.4) so a failure in one does not prevent later
// steps from running; the 64-bit digest family (zeebo/xxh3) mirrors the
// xxHash choice original_source/core/pipeline/passes/hashing.py makes, and
// the soft-warning-then-grace deadline shape is adapted from
// dupedog's internal/verifier worker timing, collapsed to a straight-line sequence
// since the Hasher has no progressive-elimination precondition to drive a
// worker pool of its own — that concurrency lives one layer up, in
// internal/executor.
package hasher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/sortomatic/sortomatic/internal/hasher/fingerprint"
	sstrings "github.com/sortomatic/sortomatic/internal/strings"
)

// Context is the per-file record the Hasher enriches in place.
type Context struct {
	Path             string
	IsFile           bool
	Category         string
	Size             int64
	ModTime          time.Time
	FastHash         string
	FullHash         string
	PerceptualHash   string
	AudioFingerprint string
}

// Cache is the subset of internal/cache.Cache the Hasher consults to
// memoize the expensive full-file digest across runs; satisfied by
// *cache.Cache.
type Cache interface {
	Lookup(path string, size, start, rangeSize int64, mtime time.Time) (string, bool, error)
	Store(path string, size, start, rangeSize int64, mtime time.Time, digest string) error
}

// Hasher computes content digests for one file at a time.
type Hasher struct {
	chunkSize int64
	fastSize  int64
	timeout   time.Duration
	cache     Cache
	log       *slog.Logger
}

// New builds a Hasher from the hashing settings (full-hash chunk size,
// fast-hash region size, deadline). cache may be nil to disable
// memoization.
func New(chunkSize, fastSize int64, timeout time.Duration, cache Cache) *Hasher {
	return &Hasher{
		chunkSize: chunkSize,
		fastSize:  fastSize,
		timeout:   timeout,
		cache:     cache,
		log:       slog.Default().With("component", "hasher"),
	}
}

// Hash runs the deadline-bounded step sequence and returns sc with whatever
// subset of fields completed. Never returns an error: a completely failed
// hash still yields a valid (all-null) row, per spec invariant 3.
func (h *Hasher) Hash(ctx context.Context, sc *Context) *Context {
	if !sc.IsFile {
		return sc
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.runSteps(sc)
	}()

	warn := time.Duration(float64(h.timeout) * 0.8)
	select {
	case <-done:
		return sc
	case <-time.After(warn):
		h.log.Warn("hashing is slow", "path", sc.Path, "size", sc.Size)
	case <-ctx.Done():
		return sc
	}

	select {
	case <-done:
		return sc
	case <-time.After(h.timeout - warn):
		h.log.Warn("hashing deadline exceeded, keeping partial result", "path", sc.Path, "size", sc.Size)
		return sc
	case <-ctx.Done():
		return sc
	}
}

// runSteps executes audio fingerprint (Music only), fast hash, perceptual
// hash, full hash in order, each independently recoverable.
func (h *Hasher) runSteps(sc *Context) {
	if sc.Size > 0 {
		if sc.Category == sstrings.CatMusic && fingerprint.Available() {
			if fp, err := fingerprint.Fingerprint(sc.Path); err == nil {
				sc.AudioFingerprint = fp
			} else {
				h.log.Warn("fingerprint failed, falling back to fast hash", "path", sc.Path, "err", err)
			}
		}
		if fh, err := h.fastHash(sc); err == nil {
			sc.FastHash = fh
		} else {
			h.log.Warn("fast hash failed", "path", sc.Path, "err", err)
		}
	}

	if sc.Category == sstrings.CatImage {
		if ph, err := averageHash(sc.Path); err == nil {
			sc.PerceptualHash = ph
		} else {
			h.log.Warn("perceptual hash failed", "path", sc.Path, "err", err)
		}
	}

	if fh, err := h.fullHash(sc); err == nil {
		sc.FullHash = fh
	} else if sc.Size > 0 {
		h.log.Warn("full hash failed", "path", sc.Path, "err", err)
	}
}

// fastHash digests the first and last fastSize bytes, clamped so the two
// regions never overlap on small files.
func (h *Hasher) fastHash(sc *Context) (string, error) {
	head := min(h.fastSize, sc.Size)
	tail := min(h.fastSize, sc.Size-head)

	f, err := os.Open(sc.Path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	digest := xxh3.New()
	if _, err := io.CopyN(digest, f, head); err != nil && err != io.EOF {
		return "", err
	}
	if tail > 0 {
		if _, err := f.Seek(sc.Size-tail, io.SeekStart); err != nil {
			return "", err
		}
		if _, err := io.CopyN(digest, f, tail); err != nil && err != io.EOF {
			return "", err
		}
	}
	return hex64(digest.Sum128().Lo), nil
}

// fullHash streams the entire file through xxh3 in chunkSize blocks. Keyed
// on (path, size, mtime, whole-range), a hit skips the read entirely —
// mirroring dupedog's internal/verifier cache-first-then-compute shape.
func (h *Hasher) fullHash(sc *Context) (string, error) {
	if h.cache != nil {
		if digest, ok, err := h.cache.Lookup(sc.Path, sc.Size, 0, sc.Size, sc.ModTime); err == nil && ok {
			return digest, nil
		}
	}

	f, err := os.Open(sc.Path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	digest := xxh3.New()
	buf := make([]byte, h.chunkSize)
	if _, err := io.CopyBuffer(digest, f, buf); err != nil {
		return "", err
	}
	result := hex64(digest.Sum128().Lo)

	if h.cache != nil {
		_ = h.cache.Store(sc.Path, sc.Size, 0, sc.Size, sc.ModTime, result)
	}
	return result, nil
}

func hex64(v uint64) string {
	const hexDigits = "0123456789abcdef"
	b := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		b[i] = hexDigits[v&0xf]
		v >>= 4
	}
	return string(b)
}
