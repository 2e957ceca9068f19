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

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/iafan/cwalk"
	"github.com/pkg/errors"

	"github.com/viralign/viralign/seqio"
)

// queryFilePattern matches the FASTA/FASTQ extensions lexicmap's own
// getFileListFromDir accepts, since query directories are a collection
// of per-sample files rather than one multi-record FASTA.
var queryFilePattern = regexp.MustCompile(`(?i)\.(fa|fasta|fna|fq|fastq)(\.gz)?$`)

// getFileListFromDir walks dir concurrently with cwalk, the same helper
// lexicmap/cmd uses for its own directory-mode inputs, and returns every
// path matching pattern.
func getFileListFromDir(dir string, pattern *regexp.Regexp, threads int) ([]string, error) {
	files := make([]string, 0, 512)
	ch := make(chan string, threads)
	done := make(chan int)
	go func() {
		for file := range ch {
			files = append(files, file)
		}
		done <- 1
	}()

	cwalk.NumWorkers = threads
	err := cwalk.WalkWithSymlinks(dir, func(_path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && pattern.MatchString(info.Name()) {
			ch <- filepath.Join(dir, _path)
		}
		return nil
	})
	close(ch)
	<-done
	if err != nil {
		return nil, err
	}
	return files, nil
}

// concatQueryDir merges every matching file under dir into a single
// FASTA under workDir, so a directory of per-sample queries can flow
// through the same pipeline.Run(single-file) contract as one multi-record
// FASTA. Each input keeps its own records; concatenation does not
// deduplicate or rename IDs.
func concatQueryDir(dir, workDir string, threads int) (string, error) {
	files, err := getFileListFromDir(dir, queryFilePattern, threads)
	if err != nil {
		return "", errors.Wrapf(err, "walking %s", dir)
	}
	if len(files) == 0 {
		return "", errors.Errorf("no FASTA/FASTQ files (%s) found under %s", queryFilePattern.String(), dir)
	}

	merged := filepath.Join(workDir, "queries.merged.fasta")
	out, err := os.Create(merged)
	if err != nil {
		return "", errors.Wrapf(err, "creating %s", merged)
	}
	defer out.Close()

	for _, f := range files {
		if err := appendFastaFile(out, f); err != nil {
			return "", errors.Wrapf(err, "reading %s", f)
		}
	}
	return merged, nil
}

func appendFastaFile(out io.Writer, path string) error {
	recs, err := seqio.ReadAll(path)
	if err != nil {
		return err
	}
	for _, r := range recs {
		if _, err := fmt.Fprintf(out, ">%s\n%s\n", r.ID, r.Seq); err != nil {
			return err
		}
	}
	return nil
}
