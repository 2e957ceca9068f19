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

package anchor

import (
	"math"
	"sort"
)

// ChainOptions bounds the anchor-chaining DP, per spec §4.5. Grounded on
// lexicmap's lib-chaining.go Chainer, generalized from its quadratic
// triangular score matrix to a predecessor-bounded scan so max_iter can
// cap the work per anchor independent of n.
type ChainOptions struct {
	GapPenalty  float64
	SkipPenalty float64
	MaxDistX    int
	MaxDistY    int
	Bandwidth   int
	MaxSkip     int
	MaxIter     int
	MinCnt      int
	MinScore    float64
}

// DefaultChainOptions are reasonable defaults in the teacher's style.
var DefaultChainOptions = ChainOptions{
	GapPenalty:  0.1,
	SkipPenalty: 0.01,
	MaxDistX:    5000,
	MaxDistY:    5000,
	Bandwidth:   1000,
	MaxSkip:     25,
	MaxIter:     1000,
	MinCnt:      2,
	MinScore:    20,
}

// Chain is an ordered, co-linear subset of an anchor vector with a DP
// score. Its lifetime is a single alignment call.
type Chain struct {
	Anchors []Anchor
	Score   float64
}

func negInfFloat() float64 { return math.Inf(-1) }

// chainScore implements the spec §4.5 transition score from predecessor j
// to anchor i (i after j in the sort order).
func chainScore(a, b Anchor, opts ChainOptions) float64 {
	if a.RidRef != b.RidRef {
		return negInfFloat()
	}
	dref := int(a.PosRef) - int(b.PosRef)
	dqry := int(a.PosQry) - int(b.PosQry)
	if dref < 0 || dqry < 0 {
		return negInfFloat()
	}
	if dref > opts.MaxDistX || dqry > opts.MaxDistY {
		return negInfFloat()
	}
	diff := dref - dqry
	if diff < 0 {
		diff = -diff
	}
	if diff > opts.Bandwidth {
		return negInfFloat()
	}

	base := float64(minInt(dref, minInt(dqry, int(a.Span))))
	minDelta := dref
	if dqry < minDelta {
		minDelta = dqry
	}
	penalty := opts.GapPenalty*float64(diff) + opts.SkipPenalty*float64(minDelta) + 0.5*math.Log2(float64(diff)+1)
	return base - penalty
}

// ChainAnchors sorts the anchors and runs the classical co-linear anchor DP,
// returning surviving chains ordered by descending score.
func ChainAnchors(anchors []Anchor, opts ChainOptions) []Chain {
	n := len(anchors)
	if n == 0 {
		return nil
	}

	sorted := append([]Anchor(nil), anchors...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.RidRef != b.RidRef {
			return a.RidRef < b.RidRef
		}
		if a.IsRev != b.IsRev {
			return !a.IsRev && b.IsRev
		}
		if a.PosRef != b.PosRef {
			return a.PosRef < b.PosRef
		}
		return a.PosQry < b.PosQry
	})

	maxScore := make([]float64, n)
	prevIdx := make([]int, n)
	for i := range sorted {
		maxScore[i] = float64(sorted[i].Span)
		prevIdx[i] = i
	}

	for i := 1; i < n; i++ {
		a := sorted[i]
		lo := i - opts.MaxIter
		if lo < 0 {
			lo = 0
		}
		skipped := 0
		for j := i - 1; j >= lo; j-- {
			b := sorted[j]
			s := chainScore(a, b, opts)
			if math.IsInf(s, -1) {
				skipped++
				if skipped > opts.MaxSkip {
					break
				}
				continue
			}
			total := maxScore[j] + s
			if total > maxScore[i] {
				maxScore[i] = total
				prevIdx[i] = j
			}
		}
	}

	visited := make([]bool, n)
	var chains []Chain
	for i := n - 1; i >= 0; i-- {
		if visited[i] {
			continue
		}
		// walk the best-predecessor path starting from i backward,
		// collecting indices, then trim to where it actually begins.
		var idxs []int
		cur := i
		for {
			if visited[cur] {
				break
			}
			idxs = append(idxs, cur)
			visited[cur] = true
			if prevIdx[cur] == cur {
				break
			}
			cur = prevIdx[cur]
		}
		if len(idxs) < opts.MinCnt {
			continue
		}
		// idxs was collected tail-first; reverse for (pos_qry, pos_ref) order.
		for a, b := 0, len(idxs)-1; a < b; a, b = a+1, b-1 {
			idxs[a], idxs[b] = idxs[b], idxs[a]
		}
		score := maxScore[i]
		if score < opts.MinScore {
			continue
		}
		as := make([]Anchor, len(idxs))
		for k, idx := range idxs {
			as[k] = sorted[idx]
		}
		chains = append(chains, Chain{Anchors: as, Score: score})
	}

	sort.Slice(chains, func(i, j int) bool { return chains[i].Score > chains[j].Score })
	return chains
}
