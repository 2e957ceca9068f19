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

// Package refindex builds the process-scoped, read-only reference index
// (sketches + minimizer hits per reference, plus the consensus sequence)
// and runs the per-query alignment step that picks a reference, aligns,
// and rechecks insertions against the consensus.
package refindex

import (
	"github.com/pkg/errors"

	"github.com/viralign/viralign/align"
	"github.com/viralign/viralign/anchor"
	"github.com/viralign/viralign/cigar"
	"github.com/viralign/viralign/minimizer"
	"github.com/viralign/viralign/seed"
	"github.com/viralign/viralign/seqio"
	"github.com/viralign/viralign/sketch"
)

// Options configures sketch/minimizer construction and the aligners used
// by the index, mirroring the relevant subset of config.Config.
type Options struct {
	K          int
	SketchSize int
	WindowSize int
	Canonical  bool
	Seed       uint64

	AnchorFilters anchor.FilterOptions
	ChainOptions  anchor.ChainOptions
}

// reference is one loaded reference sequence with its derived sketch and
// minimizer hits.
type reference struct {
	id     string
	seq    []byte
	sketch *sketch.Sketch
	hits   []seed.Hit
}

// Index is the process-scoped, read-only reference index of spec §3/§4.10.
// Every field is populated once by New and never mutated afterward, so it
// is shared across worker goroutines without locking.
type Index struct {
	opts Options
	refs []reference

	consensusID     string
	consensusSeq    []byte
	consensusSketch *sketch.Sketch
	consensusHits   []seed.Hit

	segmenter  *align.Segmenter
	wfa        *align.WFAligner
	fallbackDP *align.DPAligner
}

// New loads references from path, builds every reference's sketch and
// minimizer vector, and establishes the consensus sequence (spec §4.10
// constructor). keepFirstLength selects "first reference" consensus
// instead of majority-vote. consensusCandidateK, when positive and
// smaller than the loaded reference count, narrows the majority-vote
// candidate pool to the consensusCandidateK longest references (via
// topKLongestSelector) before voting; 0 disables narrowing and votes
// over every loaded reference, as before.
func New(path string, opts Options, keepFirstLength bool, consensusCandidateK int) (*Index, error) {
	records, err := seqio.ReadAll(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading references from %s", path)
	}
	if len(records) == 0 {
		return nil, errors.Errorf("refindex: no reference sequences in %s", path)
	}

	idx := &Index{
		opts:       opts,
		refs:       make([]reference, 0, len(records)),
		fallbackDP: align.NewDPAligner(align.DefaultDPOptions),
		wfa:        align.NewWFAligner(align.DefaultWFAOptions),
	}
	idx.segmenter = align.NewSegmenter(idx.wfa, idx.fallbackDP)

	for i, rec := range records {
		idx.refs = append(idx.refs, reference{
			id:     rec.ID,
			seq:    rec.Seq,
			sketch: sketch.FromSequence(rec.Seq, opts.K, opts.SketchSize, opts.Canonical, opts.Seed),
			hits:   minimizer.Extract(rec.Seq, opts.K, opts.WindowSize, opts.Canonical, opts.Seed, uint32(i)),
		})
	}

	if keepFirstLength {
		idx.consensusID = records[0].ID
		idx.consensusSeq = records[0].Seq
	} else {
		idx.consensusID = "consensus"
		idx.consensusSeq = majorityVoteConsensus(selectConsensusCandidates(records, consensusCandidateK))
	}
	idx.consensusSketch = sketch.FromSequence(idx.consensusSeq, opts.K, opts.SketchSize, opts.Canonical, opts.Seed)
	idx.consensusHits = minimizer.Extract(idx.consensusSeq, opts.K, opts.WindowSize, opts.Canonical, opts.Seed, uint32(len(idx.refs)))

	return idx, nil
}

// ConsensusID returns the id under which the consensus record is emitted.
func (idx *Index) ConsensusID() string { return idx.consensusID }

// ConsensusSeq returns the consensus sequence bytes (read-only).
func (idx *Index) ConsensusSeq() []byte { return idx.consensusSeq }

// SeqByName returns the sequence bytes for the reference or consensus
// record named id, as written into a SAM RNAME column by AlignQuery.
func (idx *Index) SeqByName(id string) ([]byte, bool) {
	if id == idx.consensusID {
		return idx.consensusSeq, true
	}
	for _, r := range idx.refs {
		if r.id == id {
			return r.seq, true
		}
	}
	return nil, false
}

// bases ranked for the majority-vote tie-break A > C > G > T > U.
var voteOrder = []byte{'A', 'C', 'G', 'T', 'U'}

// majorityVoteConsensus builds the majority-vote consensus of the
// reference MSA: references are assumed already aligned (same length,
// possibly with '-'); a gap column contributes nothing and an
// all-zero column becomes 'A', per spec §3.
func majorityVoteConsensus(records []seqio.Record) []byte {
	maxLen := 0
	for _, r := range records {
		if len(r.Seq) > maxLen {
			maxLen = len(r.Seq)
		}
	}

	out := make([]byte, maxLen)
	for col := 0; col < maxLen; col++ {
		var counts [256]int
		for _, r := range records {
			if col >= len(r.Seq) {
				continue
			}
			b := upper(r.Seq[col])
			if b == '-' {
				continue
			}
			counts[b]++
		}
		best := byte('A')
		bestCount := -1
		for _, b := range voteOrder {
			if counts[b] > bestCount {
				bestCount = counts[b]
				best = b
			}
		}
		if bestCount <= 0 {
			best = 'A'
		}
		out[col] = best
	}
	return out
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// AlignmentBucket identifies which per-worker output file a record
// belongs in, per spec §4.10 step 4.
type AlignmentBucket int

const (
	// NormalBucket holds records whose initial alignment had no I ops,
	// or whose insertion recheck against the consensus removed them.
	NormalBucket AlignmentBucket = iota
	// InsertionBucket holds records that still carry an I op after
	// being realigned against the consensus.
	InsertionBucket
)

// AlignedQuery is the result of AlignQuery, ready to be written
// to a per-worker SAM file.
type AlignedQuery struct {
	QueryID string
	QuerySeq []byte
	RName   string
	CIGAR   cigar.CIGAR
	Bucket  AlignmentBucket
}

// AlignQuery runs spec §4.10's per-query pipeline: sketch, pick the best
// reference by Jaccard, wavefront-align, then recheck insertions against
// the consensus.
func (idx *Index) AlignQuery(queryID string, querySeq []byte) (AlignedQuery, error) {
	qs := sketch.FromSequence(querySeq, idx.opts.K, idx.opts.SketchSize, idx.opts.Canonical, idx.opts.Seed)

	bestI := -1
	var bestJ float64 = -1
	for i, r := range idx.refs {
		j, err := sketch.Jaccard(qs, r.sketch)
		if err != nil {
			return AlignedQuery{}, errors.Wrap(err, "comparing query sketch to reference sketch")
		}
		if j > bestJ {
			bestJ, bestI = j, i
		}
	}
	if bestI < 0 {
		return AlignedQuery{}, errors.New("refindex: empty reference index")
	}
	ref := idx.refs[bestI]

	qHits := minimizer.Extract(querySeq, idx.opts.K, idx.opts.WindowSize, idx.opts.Canonical, idx.opts.Seed, 0)
	anchors := anchor.Collect(ref.hits, qHits, idx.opts.AnchorFilters)

	c, err := idx.segmenter.Align(ref.seq, querySeq, anchors, idx.opts.ChainOptions)
	if err != nil {
		return AlignedQuery{}, errors.Wrapf(err, "aligning query %s to reference %s", queryID, ref.id)
	}

	if !cigar.HasOp(c, cigar.I) {
		return AlignedQuery{QueryID: queryID, QuerySeq: querySeq, RName: ref.id, CIGAR: c, Bucket: NormalBucket}, nil
	}

	consAnchors := anchor.Collect(idx.consensusHits, qHits, idx.opts.AnchorFilters)
	c2, err := idx.segmenter.Align(idx.consensusSeq, querySeq, consAnchors, idx.opts.ChainOptions)
	if err != nil {
		return AlignedQuery{}, errors.Wrapf(err, "rechecking query %s against consensus", queryID)
	}

	if cigar.HasOp(c2, cigar.I) {
		return AlignedQuery{QueryID: queryID, QuerySeq: querySeq, RName: idx.consensusID, CIGAR: c2, Bucket: InsertionBucket}, nil
	}
	return AlignedQuery{QueryID: queryID, QuerySeq: querySeq, RName: idx.consensusID, CIGAR: c2, Bucket: NormalBucket}, nil
}
