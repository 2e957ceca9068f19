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

package align

import (
	"math"

	"github.com/viralign/viralign/cigar"
)

// code5 is the 5-symbol alphabet index used by the substitution matrix:
// A=0, C=1, G=2, T=3, N=4 (anything non-ACGT folds to N).
var code5 [256]uint8

func init() {
	for i := range code5 {
		code5[i] = 4
	}
	code5['A'], code5['a'] = 0, 0
	code5['C'], code5['c'] = 1, 1
	code5['G'], code5['g'] = 2, 2
	code5['T'], code5['t'] = 3, 3
	code5['U'], code5['u'] = 3, 3
}

// dna5Matrix is the flattened 5x5 substitution matrix: match +5,
// mismatch -4, anything-vs-N = 0.
var dna5Matrix = buildDNA5Matrix()

func buildDNA5Matrix() [25]int32 {
	var m [25]int32
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			switch {
			case i == 4 || j == 4:
				m[i*5+j] = 0
			case i == j:
				m[i*5+j] = 5
			default:
				m[i*5+j] = -4
			}
		}
	}
	return m
}

func score5(a, b byte) int32 {
	return dna5Matrix[int(code5[a])*5+int(code5[b])]
}

// DPOptions configures the KSW2-style affine-gap aligner.
type DPOptions struct {
	GapOpen   int32 // 6
	GapExtend int32 // 2

	// Margin and IndelRate derive the band width:
	// band = margin + indelRate*(qlen + tlen/2), disabled (full matrix)
	// when |qlen-tlen|/max(qlen,tlen) > 0.5.
	Margin    int
	IndelRate float64

	EndBonus int32 // 50, extension mode only
}

// DefaultDPOptions matches spec §4.7.
var DefaultDPOptions = DPOptions{
	GapOpen:   6,
	GapExtend: 2,
	Margin:    100,
	IndelRate: 0.1,
	EndBonus:  50,
}

// DPAligner is the affine-gap global/extension aligner over the DNA5
// substitution matrix, in the style of KSW2. Matrices are Gotoh's
// three-layer H/E/F recurrence, computed over a band.
type DPAligner struct {
	Options DPOptions
}

// NewDPAligner creates a DPAligner with the given options.
func NewDPAligner(opts DPOptions) *DPAligner {
	return &DPAligner{Options: opts}
}

const negInf = int32(math.MinInt32 / 2)

type ptr uint8

const (
	ptrNone ptr = iota
	ptrDiag
	ptrUp   // consumes ref only (D)
	ptrLeft // consumes query only (I)
)

// band computes the half-width of the banded DP per spec §4.7. It
// returns -1 when banding is disabled (the band would need to cover
// the full matrix anyway).
func (a *DPAligner) band(qlen, tlen int) int {
	maxLen := qlen
	if tlen > maxLen {
		maxLen = tlen
	}
	if maxLen == 0 {
		return 0
	}
	diff := qlen - tlen
	if diff < 0 {
		diff = -diff
	}
	if float64(diff)/float64(maxLen) > 0.5 {
		return -1
	}
	w := a.Options.Margin + int(a.Options.IndelRate*(float64(qlen)+float64(tlen)/2))
	if w < diff {
		w = diff
	}
	return w
}

// GlobalAlign aligns query against ref end-to-end.
func (a *DPAligner) GlobalAlign(ref, query []byte) (cigar.CIGAR, error) {
	return a.align(ref, query, false, 0)
}

// ExtendAlign aligns query against ref with Z-drop early termination
// and an end bonus, per spec §4.7.
func (a *DPAligner) ExtendAlign(ref, query []byte, zdrop int) (cigar.CIGAR, error) {
	return a.align(ref, query, true, zdrop)
}

func (a *DPAligner) align(ref, query []byte, extend bool, zdrop int) (cigar.CIGAR, error) {
	tlen := len(ref)
	qlen := len(query)

	if tlen == 0 {
		if qlen == 0 {
			return nil, nil
		}
		u, err := cigar.Encode(cigar.I, qlen)
		if err != nil {
			return nil, err
		}
		return cigar.CIGAR{u}, nil
	}
	if qlen == 0 {
		u, err := cigar.Encode(cigar.D, tlen)
		if err != nil {
			return nil, err
		}
		return cigar.CIGAR{u}, nil
	}

	w := a.band(qlen, tlen)
	full := w < 0

	h := qlen + 1 // rows: query
	wth := tlen + 1 // cols: ref

	H := make([]int32, h*wth)
	E := make([]int32, h*wth)
	F := make([]int32, h*wth)
	pH := make([]ptr, h*wth)

	gapOpen, gapExt := a.Options.GapOpen, a.Options.GapExtend

	idx := func(i, j int) int { return i*wth + j }
	inBand := func(i, j int) bool {
		if full {
			return true
		}
		return abs(i-j) <= w
	}

	for k := range H {
		H[k], E[k], F[k] = negInf, negInf, negInf
	}
	H[idx(0, 0)] = 0

	for j := 1; j <= tlen; j++ {
		if !inBand(0, j) {
			continue
		}
		F[idx(0, j)] = -gapOpen - gapExt*int32(j)
		H[idx(0, j)] = F[idx(0, j)]
		pH[idx(0, j)] = ptrUp
	}
	for i := 1; i <= qlen; i++ {
		if !inBand(i, 0) {
			continue
		}
		E[idx(i, 0)] = -gapOpen - gapExt*int32(i)
		H[idx(i, 0)] = E[idx(i, 0)]
		pH[idx(i, 0)] = ptrLeft
	}

	var bestScore int32 = negInf
	var bestI, bestJ int

	for i := 1; i <= qlen; i++ {
		jLo, jHi := 1, tlen
		if !full {
			jLo = i - w
			if jLo < 1 {
				jLo = 1
			}
			jHi = i + w
			if jHi > tlen {
				jHi = tlen
			}
		}
		for j := jLo; j <= jHi; j++ {
			// E: gap in reference consumed as query-only step (insertion),
			// coming from the left (same ref column index shift... here
			// E represents "query has an extra base", i.e. moving down a
			// row at fixed j corresponds to an insertion relative to ref.
			eOpen := H[idx(i-1, j)] - gapOpen - gapExt
			eExt := E[idx(i-1, j)] - gapExt
			e := eOpen
			if eExt > e {
				e = eExt
			}
			E[idx(i, j)] = e

			fOpen := H[idx(i, j-1)] - gapOpen - gapExt
			fExt := F[idx(i, j-1)] - gapExt
			f := fOpen
			if fExt > f {
				f = fExt
			}
			F[idx(i, j)] = f

			diag := H[idx(i-1, j-1)] + score5(query[i-1], ref[j-1])

			best := diag
			p := ptrDiag
			if e > best {
				best, p = e, ptrLeft
			}
			if f > best {
				best, p = f, ptrUp
			}

			H[idx(i, j)] = best
			pH[idx(i, j)] = p

			if extend {
				endScore := best
				if i == qlen {
					endScore += a.Options.EndBonus
				}
				if endScore > bestScore {
					bestScore, bestI, bestJ = endScore, i, j
				}
				if bestScore-best > int32(zdrop) {
					// Z-drop: this path has fallen too far behind the
					// running best; stop exploring beyond it implicitly
					// by letting the recurrence's negInf propagate.
					H[idx(i, j)] = negInf
				}
			}
		}
	}

	endI, endJ := qlen, tlen
	if extend {
		endI, endJ = bestI, bestJ
		if endI == 0 && endJ == 0 {
			endI, endJ = qlen, tlen
		}
	}

	return traceback(pH, wth, endI, endJ, qlen, tlen)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func traceback(p []ptr, wth, i, j, qlen, tlen int) (cigar.CIGAR, error) {
	var c cigar.CIGAR

	idx := func(i, j int) int { return i*wth + j }

	// trailing unaligned tail (extension mode ending before qlen/tlen)
	if i < qlen {
		u, err := cigar.Encode(cigar.S, qlen-i)
		if err == nil && qlen-i > 0 {
			c = cigar.Append(cigar.CIGAR{u}, c)
		}
	}

	for i > 0 || j > 0 {
		if i == 0 {
			u, _ := cigar.Encode(cigar.D, 1)
			c = cigar.Append(cigar.CIGAR{u}, c)
			j--
			continue
		}
		if j == 0 {
			u, _ := cigar.Encode(cigar.I, 1)
			c = cigar.Append(cigar.CIGAR{u}, c)
			i--
			continue
		}
		switch p[idx(i, j)] {
		case ptrDiag:
			u, _ := cigar.Encode(cigar.M, 1)
			c = cigar.Append(cigar.CIGAR{u}, c)
			i--
			j--
		case ptrLeft: // E: insertion, query-only
			u, _ := cigar.Encode(cigar.I, 1)
			c = cigar.Append(cigar.CIGAR{u}, c)
			i--
		case ptrUp: // F: deletion, ref-only
			u, _ := cigar.Encode(cigar.D, 1)
			c = cigar.Append(cigar.CIGAR{u}, c)
			j--
		default:
			u, _ := cigar.Encode(cigar.M, 1)
			c = cigar.Append(cigar.CIGAR{u}, c)
			i--
			j--
		}
	}

	return c, nil
}
