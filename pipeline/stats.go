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

package pipeline

import (
	"gonum.org/v1/gonum/stat"

	"github.com/pkg/errors"

	"github.com/viralign/viralign/cigar"
	"github.com/viralign/viralign/merger"
	"github.com/viralign/viralign/refindex"
	"github.com/viralign/viralign/seqio"
)

// Summary is the end-of-run reporting SPEC_FULL.md §2.2 adds on top of
// spec.md's alignment contract: mean/stdev of per-query identity and
// aligned fraction against the chosen reference, computed the same way
// the VCF emitter walks each CIGAR.
type Summary struct {
	NumQueries       int
	MeanIdentity     float64
	StdDevIdentity   float64
	MeanAlignedFrac  float64
	StdDevAlignedFrac float64
}

// computeSummary re-reads every worker's SAM output once and derives
// per-query identity (matches / CIGAR-consumed bases) and aligned
// fraction (RefLength(cigar) / len(chosen reference)), then reduces
// both series with gonum/stat.
func computeSummary(idx *refindex.Index, files []merger.WorkerOutputFiles) (*Summary, error) {
	var identities, fractions []float64

	visit := func(path string) error {
		if path == "" {
			return nil
		}
		recs, err := seqio.ReadSAM(path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}
		for _, r := range recs {
			refSeq, ok := idx.SeqByName(r.RName)
			if !ok || len(refSeq) == 0 {
				continue
			}
			identity, alignedFrac := identityAndFraction(refSeq, r.Seq, r.CIGAR)
			identities = append(identities, identity)
			fractions = append(fractions, alignedFrac)
		}
		return nil
	}

	for _, w := range files {
		if err := visit(w.Normal); err != nil {
			return nil, err
		}
		if err := visit(w.Insertion); err != nil {
			return nil, err
		}
	}

	if len(identities) == 0 {
		return &Summary{}, nil
	}

	meanIdentity, stdIdentity := stat.MeanStdDev(identities, nil)
	meanFrac, stdFrac := stat.MeanStdDev(fractions, nil)

	return &Summary{
		NumQueries:        len(identities),
		MeanIdentity:      meanIdentity,
		StdDevIdentity:    stdIdentity,
		MeanAlignedFrac:   meanFrac,
		StdDevAlignedFrac: stdFrac,
	}, nil
}

// identityAndFraction walks a CIGAR against ref/qry bytes, counting
// matches on M/=/X positions the way merger.CallVariants does for SNPs,
// and reports (matches/consumed, RefLength(cigar)/len(ref)).
func identityAndFraction(ref, qry []byte, c cigar.CIGAR) (identity, alignedFrac float64) {
	var refPos, qryPos, matches, consumed int
	for _, unit := range c {
		op, l := cigar.Decode(unit)
		switch op {
		case cigar.M, cigar.E, cigar.X:
			for i := 0; i < l; i++ {
				if refPos < len(ref) && qryPos < len(qry) && ref[refPos] == qry[qryPos] {
					matches++
				}
				refPos++
				qryPos++
				consumed++
			}
		case cigar.I:
			qryPos += l
			consumed += l
		case cigar.D:
			refPos += l
			consumed += l
		case cigar.N:
			refPos += l
		case cigar.S:
			qryPos += l
		}
	}
	if consumed > 0 {
		identity = float64(matches) / float64(consumed)
	}
	if len(ref) > 0 {
		alignedFrac = float64(cigar.RefLength(c)) / float64(len(ref))
	}
	return identity, alignedFrac
}
