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

// Package sketch computes bottom-k MinHash sketches of DNA sequences and
// the Jaccard/Mash-distance/ANI estimators derived from them.
package sketch

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/twotwotwo/sorts/sortutil"

	"github.com/viralign/viralign/hashenc"
)

// Sketch is a bottom-k MinHash of one sequence. Hashes is sorted and
// duplicate-free, truncated to at most SketchSize entries.
type Sketch struct {
	K          int
	SketchSize int
	Hashes     []uint64
}

// ErrKMismatch is a contract violation: jaccard between sketches built
// with different k is undefined.
var ErrKMismatch = errors.New("sketch: mismatched k between sketches")

// FromSequence walks all valid k-mers of seq, hashes them (canonically
// or not), collects, sorts, dedups and truncates to sketchSize.
//
// Per spec §4.2 it fails only on k=0 or k>31, in which case it returns
// an empty sketch rather than an error (so callers can keep iterating
// over a batch without a branch for this edge case).
func FromSequence(seq []byte, k, sketchSize int, canonical bool, seed uint64) *Sketch {
	if k <= 0 || k > hashenc.MaxK {
		return &Sketch{K: k, SketchSize: sketchSize}
	}

	roller := hashenc.NewRoller(k)
	hashes := make([]uint64, 0, len(seq))

	for i := 0; i < len(seq); i++ {
		fwd, rev, ok := roller.Push(seq[i])
		if !ok {
			continue
		}
		var code uint64
		if canonical {
			code = hashenc.Canonical(fwd, rev)
		} else {
			code = fwd
		}
		hashes = append(hashes, hashenc.Hash56(code, seed))
	}

	sortutil.Uint64s(hashes)
	hashes = uniqSortedUint64(hashes)
	if sketchSize > 0 && len(hashes) > sketchSize {
		hashes = hashes[:sketchSize]
	}

	return &Sketch{K: k, SketchSize: sketchSize, Hashes: hashes}
}

func uniqSortedUint64(s []uint64) []uint64 {
	if len(s) < 2 {
		return s
	}
	j := 1
	for i := 1; i < len(s); i++ {
		if s[i] != s[j-1] {
			s[j] = s[i]
			j++
		}
	}
	return s[:j]
}

// Jaccard computes the Jaccard index between two sorted, duplicate-free
// sketches via a linear merge. Two empty sketches are defined to be
// identical (jaccard=1); one empty and one non-empty are disjoint
// (jaccard=0).
func Jaccard(a, b *Sketch) (float64, error) {
	if a.K != b.K {
		return 0, errors.Wrapf(ErrKMismatch, "k=%d vs k=%d", a.K, b.K)
	}

	if len(a.Hashes) == 0 && len(b.Hashes) == 0 {
		return 1.0, nil
	}
	if len(a.Hashes) == 0 || len(b.Hashes) == 0 {
		return 0.0, nil
	}

	var i, j, inter int
	for i < len(a.Hashes) && j < len(b.Hashes) {
		switch {
		case a.Hashes[i] == b.Hashes[j]:
			inter++
			i++
			j++
		case a.Hashes[i] < b.Hashes[j]:
			i++
		default:
			j++
		}
	}
	union := len(a.Hashes) + len(b.Hashes) - inter
	if union == 0 {
		return 1.0, nil
	}
	return float64(inter) / float64(union), nil
}

// MashDistance estimates the per-base mutation distance from a Jaccard
// index, per spec §4.2: -ln(2j/(1+j))/k, defined only for 0<j<1.
func MashDistance(j float64, k int) (float64, error) {
	if j <= 0 || j >= 1 {
		return 0, fmt.Errorf("sketch: mash distance undefined for jaccard=%v", j)
	}
	return -math.Log(2*j/(1+j)) / float64(k), nil
}

// ANI estimates average nucleotide identity from a Jaccard index, per
// spec §4.2: (2j/(1+j))^(1/k).
func ANI(j float64, k int) (float64, error) {
	if j <= 0 || j >= 1 {
		return 0, fmt.Errorf("sketch: ani undefined for jaccard=%v", j)
	}
	return math.Pow(2*j/(1+j), 1/float64(k)), nil
}
