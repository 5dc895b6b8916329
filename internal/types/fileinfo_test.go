package types

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSemaphoreLimitsConcurrency(t *testing.T) {
	const limit = 3
	sem := NewSemaphore(limit)

	var current, maxSeen atomic.Int64
	done := make(chan struct{})

	for i := 0; i < 10; i++ {
		go func() {
			sem.Acquire()
			defer sem.Release()
			n := current.Add(1)
			for {
				old := maxSeen.Load()
				if n <= old || maxSeen.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			current.Add(-1)
			done <- struct{}{}
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	if got := maxSeen.Load(); got > limit {
		t.Fatalf("observed %d concurrent holders, want <= %d", got, limit)
	}
}
