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

// Package hashenc provides the 2-bit DNA encoding table, the rolling
// forward/reverse-complement k-mer code, and the splitmix64 hash mixer
// shared by the sketch and minimizer packages.
package hashenc

// MaxK is the largest k-mer size whose forward/reverse code fits in a
// uint64 (2 bits per base).
const MaxK = 31

// code4 is the 2-bit-plus-invalid encoding table, byte -> {0,1,2,3,4},
// 4 meaning "not A/C/G/T" (case-insensitive; U folds to T per spec).
var code4 [256]uint8

func init() {
	for i := range code4 {
		code4[i] = 4
	}
	code4['A'], code4['a'] = 0, 0
	code4['C'], code4['c'] = 1, 1
	code4['G'], code4['g'] = 2, 2
	code4['T'], code4['t'] = 3, 3
	code4['U'], code4['u'] = 3, 3 // U folds to T
}

// Base2Code returns the 2-bit code of a base, or 4 if it is not A/C/G/T/U.
func Base2Code(b byte) uint8 {
	return code4[b]
}

// Code2Base is the inverse of Base2Code for valid codes 0..3.
var Code2Base = [4]byte{'A', 'C', 'G', 'T'}

// Roller incrementally computes the forward and reverse-complement 2-bit
// codes of the k-mer ending at the most recently fed base, per spec §4.1:
//
//	fwd = ((fwd << 2) | c) & mask
//	rev = (rev >> 2) | ((3 ^ c) << shift)
//
// A non-ACGT base resets both codes and the valid-run counter; only once
// the valid run reaches k does Push report ok=true with a usable k-mer.
type Roller struct {
	k     int
	mask  uint64
	shift uint

	fwd, rev uint64
	run      int // length of the current run of valid (ACGT) bases
}

// NewRoller creates a Roller for k-mers of length k (1 <= k <= MaxK).
func NewRoller(k int) *Roller {
	if k < 1 || k > MaxK {
		panic("hashenc: k must be in [1, 31]")
	}
	return &Roller{
		k:     k,
		mask:  (uint64(1) << (2 * k)) - 1,
		shift: uint(2 * (k - 1)),
	}
}

// K returns the k-mer size.
func (r *Roller) K() int { return r.k }

// Reset clears the rolling state, e.g. between sequences.
func (r *Roller) Reset() {
	r.fwd, r.rev, r.run = 0, 0, 0
}

// Push feeds one base into the roller. It returns the forward code,
// the reverse-complement code, and whether a valid (all-ACGT) k-mer is
// now available ending at this base.
func (r *Roller) Push(b byte) (fwd, rev uint64, ok bool) {
	c := code4[b]
	if c == 4 {
		r.fwd, r.rev, r.run = 0, 0, 0
		return 0, 0, false
	}

	r.fwd = ((r.fwd << 2) | uint64(c)) & r.mask
	r.rev = (r.rev >> 2) | (uint64(3^c) << r.shift)

	if r.run < r.k {
		r.run++
	}

	if r.run < r.k {
		return 0, 0, false
	}
	return r.fwd, r.rev, true
}

// SplitMix64 is the fixed mixer used to hash k-mer codes into a
// well-distributed 64-bit value. It is the public-domain splitmix64
// finalizer (Vigna/Steele).
func SplitMix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	x = x ^ (x >> 31)
	return x
}

// Hash56 mixes a k-mer code with a seed via SplitMix64 and returns the
// top 56 bits of the mixed value as the public hash, per spec §3/§4.1.
func Hash56(code, seed uint64) uint64 {
	return SplitMix64(code^seed) >> 8
}

// Canonical returns the smaller of the forward and reverse-complement
// codes, making the result strand-invariant.
func Canonical(fwd, rev uint64) uint64 {
	if fwd < rev {
		return fwd
	}
	return rev
}
