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

// Package anchor collects and chains seed anchors between a reference and a
// query, the way lexicmap's index package intersects and chains minimizer
// substring pairs, generalized from the k-mer-index lookup case to a plain
// hash join over two sorted hit vectors.
package anchor

import (
	"sort"

	"github.com/viralign/viralign/seed"
)

// Anchor is a (reference-id, reference-position, query-id,
// query-position, span, strand) tuple produced by intersecting
// reference and query hits on a shared hash, per spec §3. RidRef/RidQry
// carry the seed.Hit rid each side of the anchor came from, so a caller
// that collects anchors across more than one reference (a
// one-query-against-all-references pass) can still tell which
// reference each anchor belongs to.
type Anchor struct {
	Hash   uint64
	RidRef uint32
	PosRef uint32
	RidQry uint32
	PosQry uint32
	Span   uint8
	IsRev  bool
}

// FilterOptions controls anchor-collection filtering, per spec §4.4. Order
// matters: filters apply before expansion so repetitive regions never
// materialize a full Cartesian product.
type FilterOptions struct {
	FTopFrac      float64 // default 2e-4
	UFloor        int     // default 10
	UCeil         int     // default 1_000_000
	QOccFrac      float64 // default 0.01
	SampleEveryBp int     // default 500
}

// DefaultFilterOptions matches spec §4.4.
var DefaultFilterOptions = FilterOptions{
	FTopFrac:      2e-4,
	UFloor:        10,
	UCeil:         1_000_000,
	QOccFrac:      0.01,
	SampleEveryBp: 500,
}

// DisabledFilterOptions turns every filter off, producing the full
// Cartesian product of per-hash occurrences (spec invariant #7).
var DisabledFilterOptions = FilterOptions{
	FTopFrac:      0,
	UFloor:        1 << 30,
	UCeil:         1 << 30,
	QOccFrac:      1,
	SampleEveryBp: 1,
}

// hashRange is the [start,count) slice of a sorted hit vector sharing a hash.
type hashRange struct {
	hash  uint64
	start int
	count int
}

// buildIndex groups sorted-by-hash hits into contiguous hash runs. hits must
// already be sorted by hash (seed.Hit's natural ordering does this).
func buildIndex(hits []seed.Hit) []hashRange {
	ranges := make([]hashRange, 0, len(hits)/4+1)
	i := 0
	for i < len(hits) {
		h := hits[i].Hash()
		j := i + 1
		for j < len(hits) && hits[j].Hash() == h {
			j++
		}
		ranges = append(ranges, hashRange{hash: h, start: i, count: j - i})
		i = j
	}
	return ranges
}

// topFractionCutoff computes the occurrence at rank floor(fTopFrac*distinct)
// over the sorted (descending) per-hash reference occurrence counts.
func topFractionCutoff(refRanges []hashRange, fTopFrac float64) int {
	distinct := len(refRanges)
	if distinct == 0 {
		return 1 << 30
	}
	rank := int(fTopFrac * float64(distinct))
	if rank == 0 {
		return 1 << 30 // infinity: no cutoff
	}
	counts := make([]int, distinct)
	for i, r := range refRanges {
		counts[i] = r.count
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))
	if rank >= len(counts) {
		rank = len(counts) - 1
	}
	return counts[rank]
}

// Collect joins refHits against qryHits on shared hashes and emits anchors,
// applying the spec §4.4 filters before expansion.
func Collect(refHits, qryHits []seed.Hit, opts FilterOptions) []Anchor {
	if len(refHits) == 0 || len(qryHits) == 0 {
		return nil
	}

	refSorted := append([]seed.Hit(nil), refHits...)
	sort.Slice(refSorted, func(i, j int) bool { return refSorted[i].Less(refSorted[j]) })
	refRanges := buildIndex(refSorted)

	refByHash := make(map[uint64]hashRange, len(refRanges))
	for _, r := range refRanges {
		refByHash[r.hash] = r
	}

	topFrac := topFractionCutoff(refRanges, opts.FTopFrac)
	cutoff := maxInt(opts.UFloor, minInt(opts.UCeil, topFrac))

	qryOccurrence := make(map[uint64]int, len(qryHits))
	for _, h := range qryHits {
		qryOccurrence[h.Hash()]++
	}
	qOccCutoff := opts.QOccFrac * float64(len(qryHits))

	anchors := make([]Anchor, 0, len(qryHits))
	for _, q := range qryHits {
		r, ok := refByHash[q.Hash()]
		if !ok {
			continue
		}
		if float64(qryOccurrence[q.Hash()]) > qOccCutoff {
			continue
		}

		sampled := r.count <= cutoff
		for k := 0; k < r.count; k++ {
			rh := refSorted[r.start+k]
			if !sampled {
				if opts.SampleEveryBp <= 0 || int(q.Pos())%opts.SampleEveryBp != 0 {
					continue
				}
			}
			span := rh.Span()
			if q.Span() < span {
				span = q.Span()
			}
			anchors = append(anchors, Anchor{
				Hash:   q.Hash(),
				RidRef: rh.Rid(),
				PosRef: rh.Pos(),
				RidQry: q.Rid(),
				PosQry: q.Pos(),
				Span:   span,
				IsRev:  rh.Strand() != q.Strand(),
			})
		}
	}
	return anchors
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
