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

// Package seqio streams FASTA/FASTQ records and writes buffered FASTA and
// SAM output, thin wrappers around shenwei356/bio's fastx reader and
// shenwei356/xopen's transparent-gzip file handles, the way lexicmap's
// cmd package reads queries and writes its tabular/serialized output.
package seqio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/xopen"

	"github.com/viralign/viralign/cigar"
)

// Record is one sequence: id, optional description, and raw bytes. It is
// immutable after creation per spec §3.
type Record struct {
	ID   string
	Desc string
	Seq  []byte
}

// Reader streams FASTA/FASTQ records from one file (transparently
// gzip/bzip2-decompressed by xopen through fastx).
type Reader struct {
	fx *fastx.Reader
}

// NewReader opens path for streaming. path may be "-" for stdin.
func NewReader(path string) (*Reader, error) {
	fx, err := fastx.NewReader(nil, path, "")
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	return &Reader{fx: fx}, nil
}

// Read returns the next record, io.EOF when exhausted.
func (r *Reader) Read() (Record, error) {
	rec, err := r.fx.Read()
	if err != nil {
		return Record{}, err
	}
	return Record{
		ID:   string(rec.ID),
		Desc: strings.TrimSpace(string(rec.Name)),
		Seq:  append([]byte(nil), rec.Seq.Seq...),
	}, nil
}

// ReadAll drains every record from path.
func ReadAll(path string) ([]Record, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	var out []Record
	for {
		rec, err := r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		out = append(out, rec)
	}
	return out, nil
}

// FastaWriter writes buffered, line-wrapped FASTA.
type FastaWriter struct {
	fh    *xopen.Writer
	w     *bufio.Writer
	width int
}

// NewFastaWriter opens path for buffered FASTA output. width is the
// sequence line-wrap width; 0 disables wrapping.
func NewFastaWriter(path string, width int) (*FastaWriter, error) {
	fh, err := xopen.Wopen(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", path)
	}
	return &FastaWriter{fh: fh, w: bufio.NewWriter(fh), width: width}, nil
}

// WriteRecord writes one '>' record with its sequence, final newline
// terminating the sequence per spec §6.
func (w *FastaWriter) WriteRecord(id string, seq []byte) error {
	if _, err := fmt.Fprintf(w.w, ">%s\n", id); err != nil {
		return err
	}
	if w.width <= 0 {
		_, err := w.w.Write(seq)
		if err != nil {
			return err
		}
		return w.w.WriteByte('\n')
	}
	for i := 0; i < len(seq); i += w.width {
		end := i + w.width
		if end > len(seq) {
			end = len(seq)
		}
		if _, err := w.w.Write(seq[i:end]); err != nil {
			return err
		}
		if err := w.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes the buffer and closes the underlying file.
func (w *FastaWriter) Close() error {
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.fh.Close()
}

// SAMRecord is one alignment record per spec §4.10 step 5: only QNAME,
// RNAME, POS, MAPQ, CIGAR and SEQ carry information; everything else is
// the SAM "unset" value.
type SAMRecord struct {
	QName string
	RName string
	CIGAR cigar.CIGAR
	Seq   []byte
}

// SAMWriter writes buffered, minimal SAM records (no header line beyond
// a single unsorted @HD, since downstream parsing only needs the
// CIGAR/QNAME/RNAME/SEQ columns).
type SAMWriter struct {
	fh *xopen.Writer
	w  *bufio.Writer
}

// NewSAMWriter opens path for buffered SAM output.
func NewSAMWriter(path string) (*SAMWriter, error) {
	fh, err := xopen.Wopen(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", path)
	}
	w := bufio.NewWriter(fh)
	if _, err := w.WriteString("@HD\tVN:1.6\tSO:unknown\n"); err != nil {
		return nil, err
	}
	return &SAMWriter{fh: fh, w: w}, nil
}

// WriteRecord appends one SAM line: QNAME FLAG=0 RNAME POS=1 MAPQ=60
// CIGAR RNEXT=* PNEXT=0 TLEN=0 SEQ QUAL=*.
func (w *SAMWriter) WriteRecord(r SAMRecord) error {
	c := cigar.String(r.CIGAR)
	_, err := fmt.Fprintf(w.w, "%s\t0\t%s\t1\t60\t%s\t*\t0\t0\t%s\t*\n",
		r.QName, r.RName, c, string(r.Seq))
	return err
}

// Close flushes the buffer and closes the underlying file.
func (w *SAMWriter) Close() error {
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.fh.Close()
}

// ReadSAM parses back the minimal SAM form WriteRecord produces. Lines
// starting with '@' are skipped.
func ReadSAM(path string) ([]SAMRecord, error) {
	fh, err := xopen.Ropen(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer fh.Close()

	var out []SAMRecord
	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '@' {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 10 {
			return nil, fmt.Errorf("seqio: malformed SAM line: %q", line)
		}
		c, err := cigar.Parse(cols[5])
		if err != nil {
			return nil, errors.Wrapf(err, "parsing CIGAR in line: %q", line)
		}
		seq := []byte(cols[9])
		if cols[9] == "*" {
			seq = nil
		}
		out = append(out, SAMRecord{QName: cols[0], RName: cols[2], CIGAR: c, Seq: seq})
	}
	return out, scanner.Err()
}
