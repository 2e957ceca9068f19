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

// Package minimizer extracts (k,w)-minimizers from a sequence with a
// monotonic ring-buffer deque, the classical sliding-window-minimum
// technique.
package minimizer

import (
	"github.com/viralign/viralign/hashenc"
	"github.com/viralign/viralign/seed"
)

type candidate struct {
	hash   uint64
	pos    int
	strand bool
}

// ringDeque is a monotonic deque of candidate k-mers over a window,
// backed by a fixed-capacity ring buffer. Push pops the tail while it
// scores worse than the incoming candidate; Expire pops the head while
// it has fallen out of the window.
type ringDeque struct {
	buf        []candidate
	head, tail int // [head, tail) is the live range, mod len(buf)
	size       int
}

func newRingDeque(capacity int) *ringDeque {
	if capacity < 1 {
		capacity = 1
	}
	return &ringDeque{buf: make([]candidate, capacity)}
}

func (d *ringDeque) pushBack(c candidate) {
	for d.size > 0 && d.buf[d.back()].hash >= c.hash {
		d.size--
	}
	d.tail = (d.head + d.size) % len(d.buf)
	d.buf[d.tail] = c
	d.size++
}

func (d *ringDeque) back() int {
	return (d.head + d.size - 1) % len(d.buf)
}

func (d *ringDeque) front() candidate {
	return d.buf[d.head]
}

func (d *ringDeque) popFrontWhile(windowStart int) {
	for d.size > 0 && d.buf[d.head].pos < windowStart {
		d.head = (d.head + 1) % len(d.buf)
		d.size--
	}
}

func (d *ringDeque) empty() bool { return d.size == 0 }

// Extract returns the minimizer hits of seq for the given k-mer size k,
// window size w (number of consecutive k-mers per window), canonical
// flag and hash seed. Consecutive duplicate (hash,pos) emissions are
// suppressed, per spec §4.3.
func Extract(seq []byte, k, w int, canonical bool, seedv uint64, rid uint32) []seed.Hit {
	n := len(seq)
	if k < 1 || k > hashenc.MaxK || n < k {
		return nil
	}

	nKmers := n - k + 1
	capacity := w
	if nKmers < capacity {
		capacity = nKmers
	}
	if capacity < 1 {
		capacity = 1
	}

	dq := newRingDeque(capacity)
	roller := hashenc.NewRoller(k)

	hits := make([]seed.Hit, 0, nKmers/w+1)

	var lastHash uint64
	var lastPos int = -1
	haveLast := false

	windowFull := func(endPos int) bool {
		// window of the last `capacity` valid k-mer end-positions is full
		// once we've seen at least `capacity` candidates since endPos-capacity+1>=0.
		return endPos-k+1 >= capacity-1
	}

	for i := 0; i < n; i++ {
		fwd, rev, ok := roller.Push(seq[i])
		if !ok {
			continue
		}

		var code uint64
		var strand bool
		if canonical {
			code = hashenc.Canonical(fwd, rev)
			strand = true
		} else {
			code = fwd
			strand = fwd <= rev
		}
		h := hashenc.Hash56(code, seedv)

		kmerEndPos := i
		kmerStartPos := i - k + 1

		windowStart := kmerStartPos - (capacity - 1)
		dq.popFrontWhile(windowStart)
		dq.pushBack(candidate{hash: h, pos: kmerStartPos, strand: strand})

		if !windowFull(kmerEndPos) {
			continue
		}

		front := dq.front()
		if haveLast && front.hash == lastHash && front.pos == lastPos {
			continue
		}

		hits = append(hits, seed.Pack(front.hash, k, rid, front.strand, uint32(front.pos)))
		lastHash, lastPos, haveLast = front.hash, front.pos, true
	}

	return hits
}
