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

package merger

import (
	"bufio"
	"fmt"

	"github.com/shenwei356/xopen"

	"github.com/viralign/viralign/cigar"
)

// VCFRecord is one SNP/INS/DEL call, 1-based, anchored per spec §6.
type VCFRecord struct {
	Pos   int
	Ref   string
	Alt   string
	Type  string // SNP, INS or DEL
	SeqID string
}

// CallVariants walks a query's CIGAR against its reference bytes and
// emits SNP/INS/DEL records following the anchoring rules of spec §6. A
// leading I at position 0 has no anchor base and is suppressed.
func CallVariants(seqID string, ref, qry []byte, c cigar.CIGAR) []VCFRecord {
	var recs []VCFRecord
	var refPos, qryPos int // 0-based cursor into ref/qry

	for _, unit := range c {
		op, l := cigar.Decode(unit)
		switch op {
		case cigar.M, cigar.E, cigar.X:
			for i := 0; i < l; i++ {
				if refPos < len(ref) && qryPos < len(qry) && ref[refPos] != qry[qryPos] {
					recs = append(recs, VCFRecord{
						Pos:   refPos + 1,
						Ref:   string(ref[refPos]),
						Alt:   string(qry[qryPos]),
						Type:  "SNP",
						SeqID: seqID,
					})
				}
				refPos++
				qryPos++
			}
		case cigar.I:
			if refPos == 0 {
				// no anchor base before position 1: suppressed, per
				// the open question in spec §9.
				qryPos += l
				continue
			}
			anchor := ref[refPos-1]
			ins := qry[qryPos : qryPos+l]
			recs = append(recs, VCFRecord{
				Pos:   refPos, // 1-based position of the anchor base
				Ref:   string(anchor),
				Alt:   string(anchor) + string(ins),
				Type:  "INS",
				SeqID: seqID,
			})
			qryPos += l
		case cigar.D:
			if refPos == 0 {
				refPos += l
				continue
			}
			anchor := ref[refPos-1]
			del := ref[refPos : refPos+l]
			recs = append(recs, VCFRecord{
				Pos:   refPos,
				Ref:   string(anchor) + string(del),
				Alt:   string(anchor),
				Type:  "DEL",
				SeqID: seqID,
			})
			refPos += l
		default:
			// N, S, H, P carry no base-level information for variant calls.
			if cigarConsumesRefForOp(op) {
				refPos += l
			}
			if cigarConsumesQueryForOp(op) {
				qryPos += l
			}
		}
	}
	return recs
}

func cigarConsumesRefForOp(op cigar.Op) bool {
	switch op {
	case cigar.M, cigar.D, cigar.N, cigar.E, cigar.X:
		return true
	}
	return false
}

func cigarConsumesQueryForOp(op cigar.Op) bool {
	switch op {
	case cigar.M, cigar.I, cigar.S, cigar.E, cigar.X:
		return true
	}
	return false
}

// WriteVCF writes a VCF 4.1 file with a single INFO=SEQID,TYPE field.
func WriteVCF(path, referenceID string, records []VCFRecord) error {
	fh, err := xopen.Wopen(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	w := bufio.NewWriter(fh)
	defer w.Flush()

	fmt.Fprintln(w, "##fileformat=VCFv4.1")
	fmt.Fprintln(w, "##source=viralign")
	fmt.Fprintf(w, "##reference=%s\n", referenceID)
	fmt.Fprintln(w, `##INFO=<ID=SEQID,Number=1,Type=String,Description="source query sequence and variant type">`)
	fmt.Fprintln(w, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO")

	for _, r := range records {
		fmt.Fprintf(w, "%s\t%d\t.\t%s\t%s\t.\t.\tSEQID=%s,TYPE=%s\n",
			referenceID, r.Pos, r.Ref, r.Alt, r.SeqID, r.Type)
	}
	return nil
}
