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

// Package merger implements the two-pass consensus projection of spec
// §4.11: Pass A realigns the insertion bucket against the consensus via
// an external MSA tool, Pass B projects every record into one shared
// consensus coordinate system and writes the final column-aligned FASTA.
package merger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/viralign/viralign/cigar"
	"github.com/viralign/viralign/msatool"
	"github.com/viralign/viralign/seqio"
)

// WorkerOutputFiles names the two private output files one worker wrote,
// per spec §4.10 step 4 / §5 (no file is written by more than one worker).
type WorkerOutputFiles struct {
	Normal    string
	Insertion string
}

// Options configures the merge: where the consensus lives, the external
// MSA command template, and whether the final FASTA keeps the
// un-extended consensus length.
type Options struct {
	ConsensusID     string
	ConsensusSeq    []byte
	ExternalMSACmd  string
	KeepFirstLength bool
	WorkDir         string
}

// Merge runs Pass A and Pass B and writes outPath.
func Merge(workers []WorkerOutputFiles, opts Options, outPath string) error {
	var insertionRecords []seqio.SAMRecord
	var normalRecords []seqio.SAMRecord

	for _, w := range workers {
		if w.Insertion != "" {
			recs, err := seqio.ReadSAM(w.Insertion)
			if err != nil {
				return errors.Wrapf(err, "reading insertion bucket %s", w.Insertion)
			}
			insertionRecords = append(insertionRecords, recs...)
		}
		if w.Normal != "" {
			recs, err := seqio.ReadSAM(w.Normal)
			if err != nil {
				return errors.Wrapf(err, "reading normal bucket %s", w.Normal)
			}
			normalRecords = append(normalRecords, recs...)
		}
	}

	extConsensus := opts.ConsensusSeq
	gapPos := make([]bool, len(opts.ConsensusSeq))
	cigars := make(map[string]cigar.CIGAR, len(insertionRecords))

	if len(insertionRecords) > 0 {
		var err error
		extConsensus, gapPos, cigars, err = passA(opts, insertionRecords)
		if err != nil {
			return errors.Wrap(err, "pass A: realigning insertion bucket against consensus")
		}
	}

	return passB(opts, extConsensus, gapPos, cigars, normalRecords, insertionRecords, outPath)
}

// passA concatenates the consensus with every insertion-bucket query
// (their raw, pre-projection sequences) into one FASTA, invokes the
// external MSA tool, and parses the result into a per-id CIGAR over the
// extended consensus plus the ref_gap_pos bit-vector.
func passA(opts Options, insertionRecords []seqio.SAMRecord) ([]byte, []bool, map[string]cigar.CIGAR, error) {
	workDir := opts.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	inputPath := filepath.Join(workDir, "viralign-insertion-bucket.fasta")
	outputPath := filepath.Join(workDir, "viralign-insertion-bucket.aligned.fasta")

	fw, err := seqio.NewFastaWriter(inputPath, 0)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := fw.WriteRecord(opts.ConsensusID, opts.ConsensusSeq); err != nil {
		fw.Close()
		return nil, nil, nil, err
	}
	for _, r := range insertionRecords {
		if err := fw.WriteRecord(r.QName, r.Seq); err != nil {
			fw.Close()
			return nil, nil, nil, err
		}
	}
	if err := fw.Close(); err != nil {
		return nil, nil, nil, err
	}

	if err := msatool.Run(opts.ExternalMSACmd, inputPath, outputPath); err != nil {
		return nil, nil, nil, err
	}

	aligned, err := seqio.ReadAll(outputPath)
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "reading external MSA output")
	}
	if len(aligned) == 0 {
		return nil, nil, nil, errors.New("merger: external MSA tool produced no records")
	}

	consensusRow := aligned[0].Seq
	gapPos := make([]bool, len(consensusRow))
	for i, b := range consensusRow {
		gapPos[i] = b == '-'
	}

	cigars := make(map[string]cigar.CIGAR, len(aligned)-1)
	for _, rec := range aligned[1:] {
		c, err := cigarFromAlignedPair(consensusRow, rec.Seq)
		if err != nil {
			return nil, nil, nil, errors.Wrapf(err, "deriving CIGAR for %s", rec.ID)
		}
		cigars[rec.ID] = c
	}

	return consensusRow, gapPos, cigars, nil
}

// cigarFromAlignedPair derives a CIGAR describing query relative to ref
// from two equal-length aligned rows (as produced by an external MSA
// tool): ref='-' & qry='-' is a deletion, so the projected row keeps that
// column as '-'; otherwise ref='-' is an insertion; qry='-' is a
// deletion; otherwise a match/mismatch run.
func cigarFromAlignedPair(ref, qry []byte) (cigar.CIGAR, error) {
	if len(ref) != len(qry) {
		return nil, fmt.Errorf("merger: aligned row length mismatch: %d vs %d", len(ref), len(qry))
	}
	var c cigar.CIGAR
	for i := range ref {
		var op cigar.Op
		switch {
		case ref[i] == '-' && qry[i] == '-':
			op = cigar.D
		case ref[i] == '-':
			op = cigar.I
		case qry[i] == '-':
			op = cigar.D
		default:
			op = cigar.M
		}
		u, err := cigar.Encode(op, 1)
		if err != nil {
			return nil, err
		}
		c = cigar.Append(c, cigar.CIGAR{u})
	}
	return c, nil
}

// expandToExtendedConsensus reinterprets a CIGAR built against the plain
// (un-extended) consensus/reference as a CIGAR against the extended
// consensus, inserting a D run at every extended column Pass A found to
// be an insertion (gapPos[col]=true) that the plain CIGAR never visits.
func expandToExtendedConsensus(c cigar.CIGAR, gapPos []bool) (cigar.CIGAR, error) {
	var out cigar.CIGAR
	extCol := 0

	emitGapRun := func() error {
		for extCol < len(gapPos) && gapPos[extCol] {
			u, err := cigar.Encode(cigar.D, 1)
			if err != nil {
				return err
			}
			out = cigar.Append(out, cigar.CIGAR{u})
			extCol++
		}
		return nil
	}

	for _, unit := range c {
		op, l := cigar.Decode(unit)
		if refConsumes(op) {
			for i := 0; i < l; i++ {
				if err := emitGapRun(); err != nil {
					return nil, err
				}
				u, err := cigar.Encode(op, 1)
				if err != nil {
					return nil, err
				}
				out = cigar.Append(out, cigar.CIGAR{u})
				extCol++
			}
			continue
		}
		out = cigar.Append(out, cigar.CIGAR{unit})
	}
	if err := emitGapRun(); err != nil {
		return nil, err
	}
	return out, nil
}

func refConsumes(op cigar.Op) bool {
	switch op {
	case cigar.M, cigar.D, cigar.N, cigar.E, cigar.X:
		return true
	}
	return false
}

// passB writes the consensus row followed by every query, each projected
// into the (optionally trimmed) consensus coordinate system.
func passB(opts Options, extConsensus []byte, gapPos []bool, passACigars map[string]cigar.CIGAR,
	normalRecords, insertionRecords []seqio.SAMRecord, outPath string) error {

	fw, err := seqio.NewFastaWriter(outPath, 70)
	if err != nil {
		return err
	}
	defer fw.Close()

	trim := func(row []byte) []byte {
		if !opts.KeepFirstLength {
			return row
		}
		out := make([]byte, 0, len(row))
		for i, b := range row {
			if i < len(gapPos) && gapPos[i] {
				continue
			}
			out = append(out, b)
		}
		return out
	}

	if err := fw.WriteRecord(opts.ConsensusID, trim(extConsensus)); err != nil {
		return err
	}

	writeProjected := func(id string, seq []byte, c cigar.CIGAR) error {
		padded, err := cigar.PadQueryToRef(seq, c)
		if err != nil {
			return errors.Wrapf(err, "projecting %s", id)
		}
		return fw.WriteRecord(id, trim(padded))
	}

	for _, r := range insertionRecords {
		c, ok := passACigars[r.QName]
		if !ok {
			return fmt.Errorf("merger: no pass-A CIGAR for insertion-bucket record %s", r.QName)
		}
		if err := writeProjected(r.QName, r.Seq, c); err != nil {
			return err
		}
	}

	for _, r := range normalRecords {
		c, err := expandToExtendedConsensus(r.CIGAR, gapPos)
		if err != nil {
			return errors.Wrapf(err, "expanding CIGAR for %s", r.QName)
		}
		if err := writeProjected(r.QName, r.Seq, c); err != nil {
			return err
		}
	}

	return nil
}
