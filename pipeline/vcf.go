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
	"github.com/pkg/errors"

	"github.com/viralign/viralign/config"
	"github.com/viralign/viralign/merger"
	"github.com/viralign/viralign/refindex"
	"github.com/viralign/viralign/seqio"
)

// writeVCF re-reads every worker's SAM output and calls variants against
// whichever reference or consensus record each line names, per spec §6.
func writeVCF(cfg *config.Config, idx *refindex.Index, files []merger.WorkerOutputFiles) error {
	var records []merger.VCFRecord

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
			if !ok {
				return errors.Errorf("viralign: no reference or consensus named %s", r.RName)
			}
			records = append(records, merger.CallVariants(r.QName, refSeq, r.Seq, r.CIGAR)...)
		}
		return nil
	}

	for _, w := range files {
		if err := visit(w.Normal); err != nil {
			return err
		}
		if err := visit(w.Insertion); err != nil {
			return err
		}
	}

	return merger.WriteVCF(cfg.OutputPrefix+".vcf", idx.ConsensusID(), records)
}
