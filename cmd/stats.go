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
	"bufio"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// statsCmd is the supplemental diagnostic of SPEC_FULL.md §6.1: it reads
// back a viralign VCF and reports per-type counts, never participating
// in the alignment contract itself.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize a viralign VCF: per-type counts and an optional histogram",
	Long: `Summarize a viralign VCF: per-type counts and an optional histogram

This is a diagnostic layered on top of the VCF output of the align
subcommand. It never gates pipeline correctness and is safe to skip.
`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		if len(args) != 1 {
			checkError(fmt.Errorf("exactly 1 positional argument is required: <output_prefix.vcf>"))
		}
		vcfPath := expandPath(args[0])

		counts, perSeqSNPCount, err := summarizeVCF(vcfPath)
		checkError(errors.Wrapf(err, "reading %s", vcfPath))

		if opt.Verbose {
			log.Infof("%s: SNP=%d INS=%d DEL=%d", vcfPath, counts["SNP"], counts["INS"], counts["DEL"])
		}
		fmt.Printf("type\tcount\n")
		for _, t := range []string{"SNP", "INS", "DEL"} {
			fmt.Printf("%s\t%d\n", t, counts[t])
		}

		if out := getFlagString(cmd, "out"); out != "" {
			checkError(errors.Wrap(plotSNPHistogram(perSeqSNPCount, out), "rendering histogram"))
			if opt.Verbose {
				log.Infof("histogram written: %s", out)
			}
		}
	},
}

func init() {
	RootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringP("out", "o", "",
		formatFlagUsage(`Optional PNG path for a per-sequence SNP-count histogram.`))

	statsCmd.SetUsageTemplate(usageTemplate("<output_prefix.vcf> [-o histogram.png]"))
}

// summarizeVCF parses a viralign VCF (spec §6) into per-type counts and
// a per-sequence SNP tally (keyed by the SEQID carried in INFO).
func summarizeVCF(path string) (map[string]int, map[string]int, error) {
	fh, err := xopen.Ropen(path)
	if err != nil {
		return nil, nil, err
	}
	defer fh.Close()

	counts := map[string]int{"SNP": 0, "INS": 0, "DEL": 0}
	perSeq := map[string]int{}

	scanner := bufio.NewScanner(fh)
	scanner.Buffer(make([]byte, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 8 {
			continue
		}
		seqID, typ := parseInfo(cols[7])
		if typ != "" {
			counts[typ]++
		}
		if typ == "SNP" && seqID != "" {
			perSeq[seqID]++
		}
	}
	return counts, perSeq, scanner.Err()
}

// parseInfo pulls SEQID and TYPE out of the INFO column's
// "SEQID=<query>,TYPE={SNP|INS|DEL}" form.
func parseInfo(info string) (seqID, typ string) {
	for _, field := range strings.Split(info, ",") {
		kv := strings.SplitN(field, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "SEQID":
			seqID = kv[1]
		case "TYPE":
			typ = kv[1]
		}
	}
	return seqID, typ
}

// plotSNPHistogram renders a histogram of per-sequence SNP counts, a
// coarse identity-distribution proxy per SPEC_FULL.md §2.2's gonum/plot
// wiring.
func plotSNPHistogram(perSeq map[string]int, outPath string) error {
	values := make(plotter.Values, 0, len(perSeq))
	for _, n := range perSeq {
		values = append(values, float64(n))
	}
	if len(values) == 0 {
		values = append(values, 0)
	}

	p := plot.New()
	p.Title.Text = "Per-sequence SNP count distribution"
	p.X.Label.Text = "SNPs per query"
	p.Y.Label.Text = "queries"

	bins := 20
	if len(values) < bins {
		bins = len(values)
		if bins < 1 {
			bins = 1
		}
	}
	hist, err := plotter.NewHist(values, bins)
	if err != nil {
		return errors.Wrap(err, "building histogram")
	}
	p.Add(hist)

	return p.Save(6*vg.Inch, 4*vg.Inch, outPath)
}
