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
	"sort"

	"github.com/viralign/viralign/anchor"
	"github.com/viralign/viralign/cigar"
)

// Segmenter runs the chain-driven segmented alignment of spec §4.9 on top
// of any Aligner for the per-segment work and a full-length DPAligner as
// the fallback.
type Segmenter struct {
	Segment  Aligner
	Fallback Aligner
}

// NewSegmenter builds a Segmenter. fallback should be a full-length DP
// aligner: it must never need banding assumptions a chain already broke.
func NewSegmenter(segment, fallback Aligner) *Segmenter {
	return &Segmenter{Segment: segment, Fallback: fallback}
}

// Align chains anchors between ref and query and stitches per-segment
// CIGARs together, falling back to full-length DP when the chain is
// unusable or the stitched result violates the length invariant.
func (s *Segmenter) Align(ref, query []byte, anchors []anchor.Anchor, opts anchor.ChainOptions) (cigar.CIGAR, error) {
	chains := anchor.ChainAnchors(anchors, opts)
	if len(chains) == 0 {
		return s.Fallback.GlobalAlign(ref, query)
	}

	best := chains[0].Anchors
	sorted := append([]anchor.Anchor(nil), best...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].PosQry != sorted[j].PosQry {
			return sorted[i].PosQry < sorted[j].PosQry
		}
		return sorted[i].PosRef < sorted[j].PosRef
	})

	var out cigar.CIGAR
	refPos, qryPos := 0, 0
	ok := true

	// alignSegment aligns ref/query between the current (actual) cursor
	// and the nominal end bounds rHi/qHi, then advances the cursors by
	// the CIGAR's actual consumption rather than by rHi/qHi themselves
	// (spec §4.9 step 4) so a segment that consumed a different number
	// of bases than the anchors suggested doesn't desynchronize the walk.
	alignSegment := func(rHi, qHi int) bool {
		rLo, qLo := refPos, qryPos
		if rLo > rHi || qLo > qHi || rHi > len(ref) || qHi > len(query) {
			return false
		}
		seg, err := s.Segment.GlobalAlign(ref[rLo:rHi], query[qLo:qHi])
		if err != nil || cigar.RefLength(seg) != rHi-rLo || cigar.QueryLength(seg) != qHi-qLo {
			seg = fallbackIndelCIGAR(rHi-rLo, qHi-qLo)
		}
		out = cigar.Append(out, seg)
		refPos += cigar.RefLength(seg)
		qryPos += cigar.QueryLength(seg)
		return true
	}

	for _, a := range sorted {
		if !alignSegment(int(a.PosRef), int(a.PosQry)) {
			ok = false
			break
		}

		spanEndRef := int(a.PosRef) + int(a.Span)
		spanEndQry := int(a.PosQry) + int(a.Span)
		if spanEndRef > len(ref) {
			spanEndRef = len(ref)
		}
		if spanEndQry > len(query) {
			spanEndQry = len(query)
		}
		if !alignSegment(spanEndRef, spanEndQry) {
			ok = false
			break
		}
	}

	if ok {
		ok = alignSegment(len(ref), len(query))
	}

	if !ok || cigar.RefLength(out) != len(ref) || cigar.QueryLength(out) != len(query) {
		return s.Fallback.GlobalAlign(ref, query)
	}

	return out, nil
}

// fallbackIndelCIGAR is the safe per-segment substitute of spec §4.9 step
// 5: |qry_seg|*I followed by |ref_seg|*D.
func fallbackIndelCIGAR(refLen, qryLen int) cigar.CIGAR {
	var c cigar.CIGAR
	if qryLen > 0 {
		u, err := cigar.Encode(cigar.I, qryLen)
		if err == nil {
			c = cigar.Append(c, cigar.CIGAR{u})
		}
	}
	if refLen > 0 {
		u, err := cigar.Encode(cigar.D, refLen)
		if err == nil {
			c = cigar.Append(c, cigar.CIGAR{u})
		}
	}
	return c
}
