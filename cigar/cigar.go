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

// Package cigar implements the compressed CIGAR codec: packed (op,len)
// units, string conversion, length accounting and the query<->reference
// projection operations the merger relies on.
package cigar

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// Op is a CIGAR operation code, 0..8, matching the SAM spec ordering.
type Op uint8

const (
	M Op = 0 // alignment match (can be a sequence mismatch)
	I Op = 1 // insertion to the reference
	D Op = 2 // deletion from the reference
	N Op = 3 // skipped region from the reference
	S Op = 4 // soft clip
	H Op = 5 // hard clip
	P Op = 6 // padding
	E Op = 7 // sequence match ('=')
	X Op = 8 // sequence mismatch
)

var opLetters = [9]byte{'M', 'I', 'D', 'N', 'S', 'H', 'P', '=', 'X'}

var letterToOp = map[byte]Op{
	'M': M, 'I': I, 'D': D, 'N': N, 'S': S, 'H': H, 'P': P, '=': E, 'X': X,
}

// MaxLen is the largest representable run length (28 bits).
const MaxLen = 1<<28 - 1

// ErrLenOverflow is a contract violation: a run length does not fit in
// 28 bits.
var ErrLenOverflow = errors.New("cigar: length exceeds 2^28-1")

// ErrInvalidOp is a contract violation: an unrecognized operation code
// or letter.
var ErrInvalidOp = errors.New("cigar: invalid operation")

// Unit is one packed (len,op) CIGAR run: len<<4 | op.
type Unit uint32

// Encode packs an operation and length into a Unit.
func Encode(op Op, length int) (Unit, error) {
	if length < 0 || length > MaxLen {
		return 0, errors.Wrapf(ErrLenOverflow, "len=%d", length)
	}
	if op > X {
		return 0, errors.Wrapf(ErrInvalidOp, "op=%d", op)
	}
	return Unit(uint32(length)<<4 | uint32(op)), nil
}

// Decode unpacks a Unit into its operation and length.
func Decode(u Unit) (Op, int) {
	return Op(u & 0xF), int(u >> 4)
}

// CIGAR is a sequence of packed units. An empty CIGAR is valid.
type CIGAR []Unit

// consumesQuery / consumesRef mirror the SAM semantics used throughout
// spec §3: M|I|S|=|X consume the query; M|D|N|=|X consume the
// reference. H and P consume neither.
func consumesQuery(op Op) bool {
	switch op {
	case M, I, S, E, X:
		return true
	}
	return false
}

func consumesRef(op Op) bool {
	switch op {
	case M, D, N, E, X:
		return true
	}
	return false
}

// QueryLength sums the lengths of query-consuming operations.
func QueryLength(c CIGAR) int {
	var n int
	for _, u := range c {
		op, l := Decode(u)
		if consumesQuery(op) {
			n += l
		}
	}
	return n
}

// RefLength sums the lengths of reference-consuming operations.
func RefLength(c CIGAR) int {
	var n int
	for _, u := range c {
		op, l := Decode(u)
		if consumesRef(op) {
			n += l
		}
	}
	return n
}

// HasOp reports whether the CIGAR contains at least one unit with the
// given operation.
func HasOp(c CIGAR, op Op) bool {
	for _, u := range c {
		o, _ := Decode(u)
		if o == op {
			return true
		}
	}
	return false
}

// Append appends src to dst, coalescing the last unit of dst with the
// first unit of src when they share the same operation.
func Append(dst CIGAR, src CIGAR) CIGAR {
	for _, u := range src {
		op, l := Decode(u)
		if l == 0 {
			continue
		}
		if len(dst) > 0 {
			lastOp, lastLen := Decode(dst[len(dst)-1])
			if lastOp == op {
				merged, err := Encode(op, lastLen+l)
				if err == nil {
					dst[len(dst)-1] = merged
					continue
				}
				// overflowed 28 bits: fall through and push a new unit.
			}
		}
		nu, err := Encode(op, l)
		if err != nil {
			continue
		}
		dst = append(dst, nu)
	}
	return dst
}

// String renders a CIGAR in the SAM "100M5I95M" form.
func String(c CIGAR) string {
	if len(c) == 0 {
		return "*"
	}
	buf := make([]byte, 0, len(c)*6)
	for _, u := range c {
		op, l := Decode(u)
		buf = append(buf, []byte(strconv.Itoa(l))...)
		buf = append(buf, opLetters[op])
	}
	return string(buf)
}

// Parse parses a SAM-form CIGAR string back into a CIGAR. "*" parses to
// an empty CIGAR.
func Parse(s string) (CIGAR, error) {
	if s == "*" || s == "" {
		return nil, nil
	}
	var c CIGAR
	var num int
	var haveNum bool
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch >= '0' && ch <= '9' {
			num = num*10 + int(ch-'0')
			haveNum = true
			continue
		}
		if !haveNum {
			return nil, errors.Wrapf(ErrInvalidOp, "missing length before %q in %q", ch, s)
		}
		op, ok := letterToOp[ch]
		if !ok {
			return nil, errors.Wrapf(ErrInvalidOp, "letter %q in %q", ch, s)
		}
		u, err := Encode(op, num)
		if err != nil {
			return nil, err
		}
		c = append(c, u)
		num = 0
		haveNum = false
	}
	if haveNum {
		return nil, errors.Wrapf(ErrInvalidOp, "trailing length with no operation in %q", s)
	}
	return c, nil
}

// PadQueryToRef expands query so that every D or N operation inserts a
// '-' run of its length at that position. Existing '-' characters in
// query are copied like any other character and never collapsed. A
// second pass with the same CIGAR returns the same string only when c
// has no D or N operation; with D or N, each pass inserts another '-'
// run (3M1D4M turns "ACGACGT" into "ACG-ACGT", then into "ACG--ACG").
func PadQueryToRef(query []byte, c CIGAR) ([]byte, error) {
	out := make([]byte, 0, len(query)+16)
	var qi int
	for _, u := range c {
		op, l := Decode(u)
		switch {
		case consumesQuery(op) && consumesRef(op): // M, =, X
			if qi+l > len(query) {
				return nil, fmt.Errorf("cigar: query too short for %s at offset %d", String(CIGAR{u}), qi)
			}
			out = append(out, query[qi:qi+l]...)
			qi += l
		case consumesQuery(op): // I, S
			if qi+l > len(query) {
				return nil, fmt.Errorf("cigar: query too short for %s at offset %d", String(CIGAR{u}), qi)
			}
			out = append(out, query[qi:qi+l]...)
			qi += l
		case consumesRef(op): // D, N
			for k := 0; k < l; k++ {
				out = append(out, '-')
			}
		default: // H, P
		}
	}
	return out, nil
}

// DelQueryToRef removes the characters consumed by I operations and
// keeps those consumed by M, =, X and S; D and N add nothing. The result
// has exactly RefLength(c) bases only when c has no D, N or S operation.
func DelQueryToRef(query []byte, c CIGAR) ([]byte, error) {
	out := make([]byte, 0, len(query))
	var qi int
	for _, u := range c {
		op, l := Decode(u)
		switch {
		case op == I:
			if qi+l > len(query) {
				return nil, fmt.Errorf("cigar: query too short for %s at offset %d", String(CIGAR{u}), qi)
			}
			qi += l
		case consumesQuery(op):
			if qi+l > len(query) {
				return nil, fmt.Errorf("cigar: query too short for %s at offset %d", String(CIGAR{u}), qi)
			}
			out = append(out, query[qi:qi+l]...)
			qi += l
		default:
		}
	}
	return out, nil
}
