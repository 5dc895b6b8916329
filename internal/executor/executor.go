// Package executor implements the sliding-window concurrent dispatch shared
// by every pass: a bounded in-flight set is kept topped up from a producer
// sequence, actual execution is capped at maxWorkers concurrent goroutines
// via a semaphore, and completed results are buffered and flushed in
// batches. The shape is ported from dupedog's internal/scanner and internal/verifier's
// goroutine/channel/semaphore texture (fan-out workers, single completion
// channel, WaitGroup-free shutdown via a running counter); the submission
// algorithm itself — fill to W, wait for any completion, top back up,
// flush at ceil(W/10) — is ported field-for-field from
// original_source/core/pipeline/executor.py's _run_fs_pipeline /
// _run_db_pipeline.
package executor

import (
	"context"
	"iter"
	"log/slog"

	"github.com/sortomatic/sortomatic/internal/types"
)

// Executor drives worker functions over producer sequences under a sliding
// window. Safe for a single Run call at a time; create a fresh one (or
// reuse across sequential passes) via New.
type Executor struct {
	maxWorkers int
	batchSize  int
	log        *slog.Logger
}

// New builds an Executor. maxWorkers bounds concurrently executing workers;
// batchSize is the target in-flight window W and drives the flush
// threshold (ceil(W/10)).
func New(maxWorkers, batchSize int) *Executor {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if batchSize < 1 {
		batchSize = 1
	}
	return &Executor{
		maxWorkers: maxWorkers,
		batchSize:  batchSize,
		log:        slog.Default().With("component", "executor"),
	}
}

// result pairs a worker's output with whether it produced one at all (a nil
// return means "skip this item", e.g. a stat failure during indexing).
type result[Out any] struct {
	value Out
	ok    bool
}

// Stats summarizes one Run call.
type Stats struct {
	Count int // items that produced a non-null result and were flushed
	Bytes int64
}

// Run drives worker over producer under the sliding-window algorithm
// described in spec.md §4.5, used for both the filesystem-producer passes
// (run_fs) and the catalog-cursor passes (run_db) — the two differ only in
// what In/Out are instantiated to, not in the dispatch algorithm itself.
//
// worker must be pure with respect to shared state: it may read immutable
// config and open file handles, but must not write to the catalog. A
// worker panic is recovered, logged, and treated as "no result" so one bad
// input cannot take down the pass.
//
// flush receives buffered results in batches of up to ceil(batchSize/10)
// and is called synchronously on the collecting goroutine (never
// concurrently with itself).
//
// progress, if non-nil, is invoked after each completed item (not each
// flush) with the running result count and the cumulative bytesOf total of
// every item pulled from the producer so far, for progress-bar rendering.
func Run[In, Out any](
	ctx context.Context,
	ex *Executor,
	producer iter.Seq2[In, error],
	bytesOf func(In) int64,
	worker func(context.Context, In) (Out, bool),
	flush func([]Out) error,
	onProducerError func(error),
	progress func(count int, bytes int64),
) (Stats, error) {
	flushAt := (ex.batchSize + 9) / 10
	if flushAt < 1 {
		flushAt = 1
	}

	next, stop := iter.Pull2(producer)
	defer stop()

	sem := types.NewSemaphore(ex.maxWorkers)
	resultsCh := make(chan result[Out], ex.batchSize)

	var stats Stats
	var buffer []Out
	inFlight := 0
	producerDone := false

	doFlush := func() error {
		if len(buffer) == 0 {
			return nil
		}
		err := flush(buffer)
		buffer = buffer[:0]
		return err
	}

	spawn := func(item In) {
		inFlight++
		go func() {
			sem.Acquire()
			defer sem.Release()
			out, ok := safeWork(ex.log, worker, ctx, item)
			resultsCh <- result[Out]{value: out, ok: ok}
		}()
	}

	fill := func() {
		for !producerDone && inFlight < ex.batchSize {
			item, err, has := next()
			if !has {
				producerDone = true
				return
			}
			if err != nil {
				if onProducerError != nil {
					onProducerError(err)
				}
				continue
			}
			stats.Bytes += bytesOf(item)
			spawn(item)
		}
	}

	fill()

	for inFlight > 0 {
		select {
		case r := <-resultsCh:
			inFlight--
			if r.ok {
				buffer = append(buffer, r.value)
				stats.Count++
				if len(buffer) >= flushAt {
					if err := doFlush(); err != nil {
						return stats, err
					}
				}
			}
			if progress != nil {
				progress(stats.Count, stats.Bytes)
			}
			fill()
		case <-ctx.Done():
			_ = doFlush()
			return stats, ctx.Err()
		}
	}

	if err := doFlush(); err != nil {
		return stats, err
	}
	return stats, nil
}

// safeWork recovers a worker panic, turning it into a logged "no result"
// rather than an executor crash — the Go equivalent of the Python
// executor's blanket except-and-log around each future's result.
func safeWork[In, Out any](log *slog.Logger, worker func(context.Context, In) (Out, bool), ctx context.Context, item In) (out Out, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("worker panicked, dropping result", "recover", r)
			ok = false
		}
	}()
	return worker(ctx, item)
}
