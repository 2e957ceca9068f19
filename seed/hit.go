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

// Package seed defines the bit-packed minimizer hit layout used by the
// minimizer extractor and the anchor collector. The 16-byte packing
// (56-bit hash + 8-bit span; 31-bit rid + 1-bit strand + 32-bit
// position) keeps anchor vectors, which may reach hundreds of millions
// of entries, cache-friendly and lets two hits be compared with a
// single 128-bit comparison.
package seed

// MaxSpan is the largest representable minimizer span (8 bits).
const MaxSpan = 255

// MaxRid is the largest representable reference id (31 bits).
const MaxRid = 1<<31 - 1

// Hit is one minimizer occurrence:
//
//	X = (hash56 << 8) | span
//	Y = (ridWithStrand << 32) | pos
//
// where ridWithStrand packs the strand into its top bit:
// bit 31 = strand flag, bits 0..30 = rid. The minimizer extractor sets
// the flag for every canonical hit, and otherwise when fwd <= rev.
type Hit struct {
	X uint64
	Y uint64
}

// Pack builds a Hit from its logical fields. It panics if span or rid
// exceed their bit budgets — this is a contract violation at
// construction time, not a runtime data error.
func Pack(hash56 uint64, span int, rid uint32, strand bool, pos uint32) Hit {
	if span < 0 || span > MaxSpan {
		panic("seed: span exceeds 8 bits")
	}
	if rid > MaxRid {
		panic("seed: rid exceeds 31 bits")
	}

	x := (hash56 << 8) | uint64(span)

	ridWithStrand := uint64(rid)
	if strand {
		ridWithStrand |= 1 << 31
	}
	y := (ridWithStrand << 32) | uint64(pos)

	return Hit{X: x, Y: y}
}

// Hash returns the upper 56 bits of X.
func (h Hit) Hash() uint64 { return h.X >> 8 }

// Span returns the lower 8 bits of X.
func (h Hit) Span() uint8 { return uint8(h.X & 0xFF) }

// RidWithStrand returns the upper 32 bits of Y (rid packed with strand bit).
func (h Hit) RidWithStrand() uint32 { return uint32(h.Y >> 32) }

// Rid returns the reference id, with the strand bit masked off.
func (h Hit) Rid() uint32 { return uint32(h.Y>>32) & MaxRid }

// Strand returns the strand flag (bit 31 of the rid field).
func (h Hit) Strand() bool { return h.Y&(1<<63) != 0 }

// Pos returns the lower 32 bits of Y, the position of the hit.
func (h Hit) Pos() uint32 { return uint32(h.Y) }

// Equal reports whether two hits have identical hash, span, rid, strand
// and position — i.e. all five logical fields match.
func (h Hit) Equal(o Hit) bool {
	return h.X == o.X && h.Y == o.Y
}

// Less orders hits by (hash, span, strand, rid, pos) — the strand bit
// sits above the rid bits in Y, so it dominates rid in the ordering.
// This matches the single 128-bit comparison the packing is designed
// for: compare X first, then Y.
func (h Hit) Less(o Hit) bool {
	if h.X != o.X {
		return h.X < o.X
	}
	return h.Y < o.Y
}
