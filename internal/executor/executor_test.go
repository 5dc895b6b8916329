package executor

import (
	"context"
	"errors"
	"iter"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func intProducer(n int) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		for i := 0; i < n; i++ {
			if !yield(i, nil) {
				return
			}
		}
	}
}

func TestRunProcessesAllItems(t *testing.T) {
	ex := New(4, 16)
	producer := intProducer(100)

	var flushed atomic.Int64
	var mu sync.Mutex
	var all []int

	stats, err := Run(
		context.Background(),
		ex,
		producer,
		func(int) int64 { return 1 },
		func(_ context.Context, n int) (int, bool) { return n * 2, true },
		func(batch []int) error {
			flushed.Add(int64(len(batch)))
			mu.Lock()
			all = append(all, batch...)
			mu.Unlock()
			return nil
		},
		nil,
		nil,
	)
	if err != nil {
		t.Fatalf("Run errored: %v", err)
	}
	if stats.Count != 100 {
		t.Fatalf("expected count 100, got %d", stats.Count)
	}
	if flushed.Load() != 100 {
		t.Fatalf("expected 100 items flushed, got %d", flushed.Load())
	}
	if len(all) != 100 {
		t.Fatalf("expected 100 collected results, got %d", len(all))
	}
}

func TestRunSkipsNullResults(t *testing.T) {
	ex := New(2, 8)
	producer := intProducer(10)

	stats, err := Run(
		context.Background(),
		ex,
		producer,
		func(int) int64 { return 0 },
		func(_ context.Context, n int) (int, bool) { return n, n%2 == 0 },
		func([]int) error { return nil },
		nil,
		nil,
	)
	if err != nil {
		t.Fatalf("Run errored: %v", err)
	}
	if stats.Count != 5 {
		t.Fatalf("expected 5 even results, got %d", stats.Count)
	}
}

// Invariant 7: concurrent safety with many workers over many synthetic
// items — no data race on the shared buffer, every item accounted for.
func TestRunConcurrentSafetyManyWorkers(t *testing.T) {
	ex := New(16, 1000)
	producer := intProducer(5000)

	stats, err := Run(
		context.Background(),
		ex,
		producer,
		func(int) int64 { return 1 },
		func(_ context.Context, n int) (int, bool) {
			return n, true
		},
		func([]int) error { return nil },
		nil,
		nil,
	)
	if err != nil {
		t.Fatalf("Run errored: %v", err)
	}
	if stats.Count != 5000 {
		t.Fatalf("expected 5000, got %d", stats.Count)
	}
}

func TestRunWorkerPanicIsRecovered(t *testing.T) {
	ex := New(4, 8)
	producer := intProducer(20)

	stats, err := Run(
		context.Background(),
		ex,
		producer,
		func(int) int64 { return 0 },
		func(_ context.Context, n int) (int, bool) {
			if n == 5 {
				panic("boom")
			}
			return n, true
		},
		func([]int) error { return nil },
		nil,
		nil,
	)
	if err != nil {
		t.Fatalf("Run errored: %v", err)
	}
	if stats.Count != 19 {
		t.Fatalf("expected 19 surviving results (one panicked), got %d", stats.Count)
	}
}

// S6: cancellation stops the pass promptly without waiting for all
// in-flight work or the full producer to drain.
func TestRunCancellationReturnsPromptly(t *testing.T) {
	ex := New(2, 4)
	ctx, cancel := context.WithCancel(context.Background())

	producer := func(yield func(int, error) bool) {
		for i := 0; ; i++ {
			if !yield(i, nil) {
				return
			}
		}
	}

	var started atomic.Int64
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := Run(
		ctx,
		ex,
		producer,
		func(int) int64 { return 0 },
		func(_ context.Context, n int) (int, bool) {
			started.Add(1)
			time.Sleep(5 * time.Millisecond)
			return n, true
		},
		func([]int) error { return nil },
		nil,
		nil,
	)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunProducerErrorsAreReported(t *testing.T) {
	ex := New(2, 8)
	producer := func(yield func(int, error) bool) {
		if !yield(0, nil) {
			return
		}
		if !yield(0, errors.New("boom")) {
			return
		}
		if !yield(1, nil) {
			return
		}
	}

	var errs []error
	stats, err := Run(
		context.Background(),
		ex,
		producer,
		func(int) int64 { return 0 },
		func(_ context.Context, n int) (int, bool) { return n, true },
		func([]int) error { return nil },
		func(e error) { errs = append(errs, e) },
		nil,
	)
	if err != nil {
		t.Fatalf("Run errored: %v", err)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 reported producer error, got %d", len(errs))
	}
	if stats.Count != 2 {
		t.Fatalf("expected 2 successful results, got %d", stats.Count)
	}
}
