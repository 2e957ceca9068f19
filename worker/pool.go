// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package worker implements the fixed-size worker pool of spec §4.12:
// each worker owns its own task queue and condition variable, so
// enqueue/shutdown never contend on a single shared lock the way a
// plain channel-fed pool would.
package worker

import (
	"runtime"
	"sync"
)

// Task is an opaque unit of work. A task that panics is recovered by its
// worker and logged by the caller-supplied OnPanic hook; it never aborts
// sibling workers.
type Task func()

type queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	tasks    []Task
	stop     bool
	draining bool
	active   *sync.WaitGroup
}

func newQueue(active *sync.WaitGroup) *queue {
	q := &queue{active: active}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *queue) push(t Task) {
	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()
	q.cond.Signal()
}

func (q *queue) closeForShutdown() {
	q.mu.Lock()
	q.stop = true
	q.mu.Unlock()
	q.cond.Signal()
}

// pop blocks until a task is available or the queue is stopped with no
// remaining tasks, in which case ok is false. The active count is
// incremented here, under the same lock as the dequeue, so a task is
// never observably "gone from the queue" without yet being "active" —
// the gap WaitForAll's empty-then-active.Wait() check would otherwise
// race against.
func (q *queue) pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.tasks) == 0 && !q.stop {
		q.cond.Wait()
	}
	if len(q.tasks) == 0 {
		return nil, false
	}
	t := q.tasks[0]
	q.tasks = q.tasks[1:]
	q.active.Add(1)
	return t, true
}

func (q *queue) empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks) == 0
}

// Pool is a fixed-size set of workers, each with its own task queue.
type Pool struct {
	queues  []*queue
	active  sync.WaitGroup
	allCond *sync.Cond
	allMu   sync.Mutex
	onPanic func(workerID int, recovered interface{})
	wg      sync.WaitGroup
}

// New starts n workers, each running its own queue-drain loop.
// onPanic, if non-nil, is called (from the worker's goroutine) whenever a
// task panics; the worker then continues draining its queue.
func New(n int, onPanic func(workerID int, recovered interface{})) *Pool {
	if n < 1 {
		n = 1
	}
	p := &Pool{
		queues:  make([]*queue, n),
		onPanic: onPanic,
	}
	p.allCond = sync.NewCond(&p.allMu)

	for i := 0; i < n; i++ {
		p.queues[i] = newQueue(&p.active)
		p.wg.Add(1)
		go p.run(i)
	}
	return p
}

func (p *Pool) run(workerID int) {
	defer p.wg.Done()
	q := p.queues[workerID]
	for {
		t, ok := q.pop()
		if !ok {
			return
		}
		func() {
			defer p.active.Done()
			defer func() {
				if r := recover(); r != nil && p.onPanic != nil {
					p.onPanic(workerID, r)
				}
			}()
			t()
		}()
	}
}

// NumWorkers returns the worker count n passed to New.
func (p *Pool) NumWorkers() int { return len(p.queues) }

// Enqueue pushes a task onto the named worker's queue. Per spec §5,
// `tid = i mod nthreads` within a batch is the caller's responsibility.
func (p *Pool) Enqueue(workerID int, t Task) {
	p.queues[workerID%len(p.queues)].push(t)
}

// WaitForAll blocks until every worker's queue is empty and no task is
// currently executing.
func (p *Pool) WaitForAll() {
	for {
		allEmpty := true
		for _, q := range p.queues {
			if !q.empty() {
				allEmpty = false
				break
			}
		}
		if allEmpty {
			break
		}
		runtime.Gosched()
	}
	p.active.Wait()
}

// Shutdown signals every worker to stop once its queue drains, then
// joins all worker goroutines.
func (p *Pool) Shutdown() {
	for _, q := range p.queues {
		q.closeForShutdown()
	}
	p.wg.Wait()
}
