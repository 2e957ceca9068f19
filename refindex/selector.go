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

package refindex

import (
	"container/heap"
	"sort"

	"github.com/viralign/viralign/seqio"
)

// topKItem is one candidate held by topKLongestSelector: the record plus
// its length and input order, the two fields worseThan/betterThan compare
// on (length primary, order secondary).
type topKItem struct {
	rec   seqio.Record
	order uint64
}

// topKHeap is a min-heap over topKItem ordered by worseThan, so
// topKHeap[0] is always the current worst (shortest, or shortest-and-
// latest on a length tie) of the retained candidates.
type topKHeap []topKItem

func (h topKHeap) Len() int { return len(h) }
func (h topKHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if len(a.rec.Seq) != len(b.rec.Seq) {
		return len(a.rec.Seq) < len(b.rec.Seq)
	}
	return a.order > b.order
}
func (h topKHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *topKHeap) Push(x any)        { *h = append(*h, x.(topKItem)) }
func (h *topKHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// topKLongestSelector keeps the K longest records seen across a single
// sequential scan in O(K) space and O(log K) per Consider call, breaking
// ties on length by input order (earlier wins). Grounded on
// original_source/src/consensus/selector.cpp's TopKLongestSelector, which
// this package uses ahead of majority-vote consensus construction to cap
// the candidate pool to the K longest reference records rather than
// voting over every loaded reference, including short or partial ones.
type topKLongestSelector struct {
	k     int
	order uint64
	h     topKHeap
}

// newTopKLongestSelector returns a selector retaining at most k records.
func newTopKLongestSelector(k int) *topKLongestSelector {
	s := &topKLongestSelector{k: k}
	s.h = make(topKHeap, 0, k)
	return s
}

// consider offers rec to the selector. If the heap has fewer than k
// entries, rec is kept outright; otherwise rec replaces the current
// worst entry only if rec is longer (or same length but earlier).
func (s *topKLongestSelector) consider(rec seqio.Record) {
	if s.k <= 0 {
		return
	}
	cand := topKItem{rec: rec, order: s.order}
	s.order++

	if s.h.Len() < s.k {
		heap.Push(&s.h, cand)
		return
	}
	worst := s.h[0]
	better := len(cand.rec.Seq) != len(worst.rec.Seq) && len(cand.rec.Seq) > len(worst.rec.Seq) ||
		(len(cand.rec.Seq) == len(worst.rec.Seq) && cand.order < worst.order)
	if better {
		s.h[0] = cand
		heap.Fix(&s.h, 0)
	}
}

// takeSortedDesc drains the selector and returns its retained records
// ordered by descending length, with same-length ties broken by
// ascending input order (earlier first), matching
// TopKLongestSelector::takeSortedDesc.
func (s *topKLongestSelector) takeSortedDesc() []seqio.Record {
	items := make([]topKItem, len(s.h))
	copy(items, s.h)
	s.h = s.h[:0]

	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if len(a.rec.Seq) != len(b.rec.Seq) {
			return len(a.rec.Seq) > len(b.rec.Seq)
		}
		return a.order < b.order
	})

	out := make([]seqio.Record, len(items))
	for i, it := range items {
		out[i] = it.rec
	}
	return out
}

// selectConsensusCandidates returns records unchanged when k <= 0 or the
// pool is already at most k records; otherwise it returns the k longest,
// sorted longest-first, via topKLongestSelector.
func selectConsensusCandidates(records []seqio.Record, k int) []seqio.Record {
	if k <= 0 || len(records) <= k {
		return records
	}
	sel := newTopKLongestSelector(k)
	for _, r := range records {
		sel.consider(r)
	}
	return sel.takeSortedDesc()
}
