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

// Package pipeline drives the streaming batch dispatch of spec §5: a
// single reading thread fills bounded batches from the query FASTA and
// hands each query to a worker by `tid = i mod nthreads`, with a
// progress bar in the style of lexicmap's index builder.
package pipeline

import (
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/viralign/viralign/config"
	"github.com/viralign/viralign/merger"
	"github.com/viralign/viralign/refindex"
	"github.com/viralign/viralign/seqio"
	"github.com/viralign/viralign/worker"
)

// Run executes the full pipeline: stream the query file in batches,
// dispatch per-query alignment across the worker pool, then merge. It
// returns a Summary of per-query identity/aligned-fraction statistics
// (SPEC_FULL.md §2.2), computed regardless of whether --save-vcf was set.
func Run(cfg *config.Config, verbose bool) (*Summary, error) {
	idx, err := refindex.New(cfg.ReferencePath, refindexOptions(cfg), cfg.KeepFirstLength, cfg.ConsensusCandidateK)
	if err != nil {
		return nil, errors.Wrap(err, "building reference index")
	}

	if err := os.MkdirAll(cfg.WorkDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating work directory %s", cfg.WorkDir)
	}

	writers, files, err := openWorkerFiles(cfg)
	if err != nil {
		return nil, err
	}
	closed := false
	defer func() {
		if !closed {
			closeWorkerFiles(writers)
		}
	}()

	onPanic := func(workerID int, r interface{}) {
		// a panicked task is logged and dropped; the worker keeps
		// draining its queue (spec §7 transient-I/O / contract-violation
		// handling: never escalate into peers).
		os.Stderr.WriteString("viralign: worker panic recovered: ")
		if s, ok := r.(string); ok {
			os.Stderr.WriteString(s)
		}
		os.Stderr.WriteString("\n")
	}
	pool := worker.New(cfg.Threads, onPanic)

	reader, err := seqio.NewReader(cfg.InputPath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening query file %s", cfg.InputPath)
	}

	var pbs *mpb.Progress
	var bar *mpb.Bar
	var chDone chan int
	if verbose {
		pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		bar = pbs.AddBar(0,
			mpb.PrependDecorators(
				decor.Name("aligned queries: ", decor.WC{W: len("aligned queries: "), C: decor.DindentRight}),
				decor.Name("", decor.WCSyncSpaceR),
				decor.CurrentNoUnit("%d"),
			),
			mpb.AppendDecorators(
				decor.Name("elapsed: ", decor.WC{W: len("elapsed: ")}),
				decor.Elapsed(decor.ET_STYLE_GO),
			),
		)
		chDone = make(chan int, cfg.Threads)
		go func() {
			for range chDone {
				bar.Increment()
			}
		}()
	}

	i := 0
	batch := make([]seqio.Record, 0, cfg.BatchSize)
	flushBatch := func() {
		for j, rec := range batch {
			rec := rec
			tid := (i - len(batch) + j) % cfg.Threads
			pool.Enqueue(tid, func() {
				result, err := idx.AlignQuery(rec.ID, rec.Seq)
				if err != nil {
					os.Stderr.WriteString("viralign: alignment error for " + rec.ID + ": " + err.Error() + "\n")
					if chDone != nil {
						chDone <- 1
					}
					return
				}
				if err := writers[tid].write(result); err != nil {
					os.Stderr.WriteString("viralign: write error for " + rec.ID + ": " + err.Error() + "\n")
				}
				if chDone != nil {
					chDone <- 1
				}
			})
		}
		pool.WaitForAll()
		batch = batch[:0]
	}

	for {
		rec, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrap(err, "reading query file")
		}
		batch = append(batch, rec)
		i++
		if len(batch) >= cfg.BatchSize {
			flushBatch()
		}
	}
	if len(batch) > 0 {
		flushBatch()
	}

	pool.Shutdown()
	if chDone != nil {
		close(chDone)
	}
	if pbs != nil {
		pbs.Wait()
	}

	closed = true
	if err := closeWorkerFiles(writers); err != nil {
		return nil, err
	}

	mergeOpts := merger.Options{
		ConsensusID:     idx.ConsensusID(),
		ConsensusSeq:    idx.ConsensusSeq(),
		ExternalMSACmd:  cfg.ExternalMSACmd,
		KeepFirstLength: cfg.KeepFirstLength,
		WorkDir:         cfg.WorkDir,
	}
	if err := merger.Merge(files, mergeOpts, cfg.OutputPrefix+".fasta"); err != nil {
		return nil, errors.Wrap(err, "merging worker output")
	}

	if cfg.SaveVCF {
		if err := writeVCF(cfg, idx, files); err != nil {
			return nil, errors.Wrap(err, "writing VCF")
		}
	}

	summary, err := computeSummary(idx, files)
	if err != nil {
		return nil, errors.Wrap(err, "computing run summary")
	}

	return summary, nil
}

func refindexOptions(cfg *config.Config) refindex.Options {
	return refindex.Options{
		K:             cfg.K,
		SketchSize:    cfg.SketchSize,
		WindowSize:    cfg.WindowSize,
		Canonical:     cfg.Canonical,
		Seed:          cfg.Seed,
		AnchorFilters: anchorFilters(cfg),
		ChainOptions:  chainOptions(cfg),
	}
}

// workerFileSet wraps the two SAM writers one worker privately owns.
type workerFileSet struct {
	normal    *seqio.SAMWriter
	insertion *seqio.SAMWriter
}

func (w *workerFileSet) write(r refindex.AlignedQuery) error {
	rec := seqio.SAMRecord{QName: r.QueryID, RName: r.RName, CIGAR: r.CIGAR, Seq: r.QuerySeq}
	if r.Bucket == refindex.InsertionBucket {
		return w.insertion.WriteRecord(rec)
	}
	return w.normal.WriteRecord(rec)
}

func openWorkerFiles(cfg *config.Config) ([]*workerFileSet, []merger.WorkerOutputFiles, error) {
	writers := make([]*workerFileSet, cfg.Threads)
	files := make([]merger.WorkerOutputFiles, cfg.Threads)

	for t := 0; t < cfg.Threads; t++ {
		normalPath := filepath.Join(cfg.WorkDir, workerFileName(t, "normal"))
		insertionPath := filepath.Join(cfg.WorkDir, workerFileName(t, "insertion"))

		nw, err := seqio.NewSAMWriter(normalPath)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "creating %s", normalPath)
		}
		iw, err := seqio.NewSAMWriter(insertionPath)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "creating %s", insertionPath)
		}
		writers[t] = &workerFileSet{normal: nw, insertion: iw}
		files[t] = merger.WorkerOutputFiles{Normal: normalPath, Insertion: insertionPath}
	}
	return writers, files, nil
}

func workerFileName(tid int, bucket string) string {
	return "worker-" + strconv.Itoa(tid) + "." + bucket + ".sam"
}

func closeWorkerFiles(writers []*workerFileSet) error {
	var firstErr error
	for _, w := range writers {
		if w == nil {
			continue
		}
		if err := w.normal.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := w.insertion.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
