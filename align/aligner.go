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

// Package align provides the two concrete pairwise aligners (a KSW2-style
// affine-gap DP aligner and a WFA2-style wavefront aligner) behind one
// capability interface, plus the chain-driven segmented aligner that sits
// on top of either.
package align

import "github.com/viralign/viralign/cigar"

// Aligner is the capability every pairwise aligner exposes: given a
// reference and a query, produce the CIGAR of the query relative to the
// reference. Expressed as an interface (a set of capabilities) rather
// than a class hierarchy, per spec §9 "Polymorphism over aligners".
type Aligner interface {
	// GlobalAlign aligns the whole of query against the whole of ref.
	GlobalAlign(ref, query []byte) (cigar.CIGAR, error)

	// ExtendAlign aligns query against ref allowing early termination
	// once the score has dropped by more than zdrop from its running
	// maximum (Z-drop heuristic), as used for chain-segment extension.
	ExtendAlign(ref, query []byte, zdrop int) (cigar.CIGAR, error)
}
