package worker

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsAllTasks(t *testing.T) {
	p := New(4, nil)
	defer p.Shutdown()

	var count int64
	n := 100
	for i := 0; i < n; i++ {
		p.Enqueue(i, func() { atomic.AddInt64(&count, 1) })
	}
	p.WaitForAll()

	if got := atomic.LoadInt64(&count); got != int64(n) {
		t.Fatalf("expected %d completed tasks, got %d", n, got)
	}
}

func TestPoolTaskPanicDoesNotAbortPeers(t *testing.T) {
	var panics int64
	p := New(2, func(workerID int, r interface{}) { atomic.AddInt64(&panics, 1) })
	defer p.Shutdown()

	var count int64
	p.Enqueue(0, func() { panic("boom") })
	p.Enqueue(0, func() { atomic.AddInt64(&count, 1) })
	p.Enqueue(1, func() { atomic.AddInt64(&count, 1) })
	p.WaitForAll()

	if atomic.LoadInt64(&panics) != 1 {
		t.Fatalf("expected 1 recovered panic, got %d", panics)
	}
	if atomic.LoadInt64(&count) != 2 {
		t.Fatalf("expected both surviving tasks to run, got %d", count)
	}
}

func TestPoolDispatchByTidModNThreads(t *testing.T) {
	p := New(3, nil)
	defer p.Shutdown()

	seen := make([]int64, 3)
	for i := 0; i < 9; i++ {
		i := i
		p.Enqueue(i, func() { atomic.AddInt64(&seen[i%3], 1) })
	}
	p.WaitForAll()

	for i, c := range seen {
		if c != 3 {
			t.Fatalf("worker %d: expected 3 tasks, got %d", i, c)
		}
	}
}

// TestWaitForAllBlocksUntilTaskBodyRuns guards against the barrier
// observing an empty queue before the dequeued task is marked active: a
// slow task must still be fully run by the time WaitForAll returns, not
// just popped off its queue.
func TestWaitForAllBlocksUntilTaskBodyRuns(t *testing.T) {
	p := New(1, nil)
	defer p.Shutdown()

	var done int32
	p.Enqueue(0, func() {
		time.Sleep(20 * time.Millisecond)
		atomic.StoreInt32(&done, 1)
	})
	p.WaitForAll()

	if atomic.LoadInt32(&done) != 1 {
		t.Fatalf("WaitForAll returned before the dequeued task finished running")
	}
}
