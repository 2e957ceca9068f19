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
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/shenwei356/util/pathutil"
	"github.com/spf13/cobra"

	"github.com/viralign/viralign/config"
	"github.com/viralign/viralign/pipeline"
)

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Align a query FASTA against a reference set into one consensus-coordinate MSA",
	Long: `Align a query FASTA against a reference set into one consensus-coordinate MSA

viralign sketches each reference, picks the closest reference per query by
MinHash Jaccard, aligns each query with a chain-guided DP/wavefront
aligner, and merges every worker's output into a single column-aligned
FASTA in the coordinate system of a shared consensus sequence.
`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		var fhLog *os.File
		if opt.Log2File {
			fhLog = addLog(opt.LogFile, opt.Verbose)
		}
		timeStart := time.Now()
		defer func() {
			if opt.Verbose || opt.Log2File {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
			}
			if opt.Log2File {
				fhLog.Close()
			}
		}()

		if len(args) != 3 {
			checkError(fmt.Errorf("exactly 3 positional arguments are required: <input.fasta|input_dir/> <reference.fasta> <output_prefix>, got %d", len(args)))
		}

		cfg := config.Default()
		cfg.InputPath = expandPath(args[0])
		cfg.ReferencePath = expandPath(args[1])
		cfg.OutputPrefix = expandPath(args[2])

		if cfgFile := getFlagString(cmd, "config"); cfgFile != "" {
			checkError(errors.Wrap(config.LoadTOML(cfg, expandPath(cfgFile)), "loading --config"))
		}

		cfg.Threads = opt.NumCPUs
		cfg.SaveVCF = getFlagBool(cmd, "save-vcf")

		cfg.WorkDir = getFlagString(cmd, "workdir")
		if cfg.WorkDir == "" {
			cfg.WorkDir = cfg.OutputPrefix + ".viralign-work"
		}
		cfg.WorkDir = expandPath(cfg.WorkDir)

		if n := getFlagInt(cmd, "batch-size"); cmd.Flags().Changed("batch-size") {
			if n <= 0 {
				checkError(fmt.Errorf("flag --batch-size must be positive"))
			}
			cfg.BatchSize = n
		}
		if cmd.Flags().Changed("k") {
			cfg.K = getFlagPositiveInt(cmd, "k")
		}
		if cmd.Flags().Changed("sketch-size") {
			cfg.SketchSize = getFlagPositiveInt(cmd, "sketch-size")
		}
		if cmd.Flags().Changed("window") {
			cfg.WindowSize = getFlagPositiveInt(cmd, "window")
		}
		if getFlagBool(cmd, "no-canonical") {
			cfg.Canonical = false
		}
		if cmd.Flags().Changed("msa-cmd") {
			cfg.ExternalMSACmd = getFlagString(cmd, "msa-cmd")
		}
		if getFlagBool(cmd, "keep-first-length") {
			cfg.KeepFirstLength = true
		}
		if cmd.Flags().Changed("consensus-top-k") {
			cfg.ConsensusCandidateK = getFlagNonNegativeInt(cmd, "consensus-top-k")
		}

		inputIsDir := false
		if fi, err := os.Stat(cfg.InputPath); err != nil {
			checkError(errors.Wrapf(err, "checking input path %s", cfg.InputPath))
		} else {
			inputIsDir = fi.IsDir()
		}
		if _, err := os.Stat(cfg.ReferencePath); err != nil {
			checkError(errors.Wrapf(err, "checking reference path %s", cfg.ReferencePath))
		}

		existed, err := pathutil.DirExists(cfg.WorkDir)
		checkError(err)
		if !existed {
			checkError(os.MkdirAll(cfg.WorkDir, 0755))
		}

		if inputIsDir {
			if opt.Verbose {
				log.Infof("input is a directory, merging per-sample FASTA/FASTQ files under it")
			}
			merged, err := concatQueryDir(cfg.InputPath, cfg.WorkDir, opt.NumCPUs)
			checkError(errors.Wrapf(err, "merging query directory %s", cfg.InputPath))
			cfg.InputPath = merged
		}

		if err := os.MkdirAll(filepath.Dir(cfg.OutputPrefix), 0755); err != nil && filepath.Dir(cfg.OutputPrefix) != "." {
			checkError(errors.Wrap(err, "creating output directory"))
		}

		if opt.Verbose {
			log.Infof("viralign align")
			log.Infof("  input queries: %s", cfg.InputPath)
			log.Infof("  references: %s", cfg.ReferencePath)
			log.Infof("  output prefix: %s", cfg.OutputPrefix)
			log.Infof("  work directory: %s", cfg.WorkDir)
			log.Infof("  threads: %d", cfg.Threads)
			log.Infof("  k=%d sketch-size=%d window=%d canonical=%v", cfg.K, cfg.SketchSize, cfg.WindowSize, cfg.Canonical)
			log.Infof("  save-vcf: %v", cfg.SaveVCF)
		}

		summary, err := pipeline.Run(cfg, opt.Verbose)
		if err != nil {
			checkError(errors.Wrap(err, "running alignment pipeline"))
		}

		if opt.Verbose {
			log.Infof("aligned FASTA written: %s.fasta", cfg.OutputPrefix)
			if cfg.SaveVCF {
				log.Infof("VCF written: %s.vcf", cfg.OutputPrefix)
			}
			if summary != nil && summary.NumQueries > 0 {
				log.Infof("%d queries: mean identity %.4f (sd %.4f), mean aligned fraction %.4f (sd %.4f)",
					summary.NumQueries, summary.MeanIdentity, summary.StdDevIdentity,
					summary.MeanAlignedFrac, summary.StdDevAlignedFrac)
			}
		}
	},
}

func init() {
	RootCmd.AddCommand(alignCmd)

	alignCmd.Flags().BoolP("save-vcf", "s", false,
		formatFlagUsage(`Emit a VCF alongside the aligned FASTA.`))

	alignCmd.Flags().StringP("workdir", "", "",
		formatFlagUsage(`Directory for intermediate per-worker SAM files and the pre/post-MSA insertion-bucket FASTA. Defaults to <output_prefix>.viralign-work.`))

	alignCmd.Flags().StringP("config", "", "",
		formatFlagUsage(`Optional TOML file overlaying config.Config defaults; CLI flags always win.`))

	alignCmd.Flags().IntP("batch-size", "", 0,
		formatFlagUsage(`Query batch size streamed to the worker pool at a time (default 25600).`))

	alignCmd.Flags().IntP("k", "k", 0,
		formatFlagUsage(`K-mer size for sketching and minimizers (default 21).`))
	alignCmd.Flags().IntP("sketch-size", "", 0,
		formatFlagUsage(`Bottom-k MinHash sketch size (default 1000).`))
	alignCmd.Flags().IntP("window", "w", 0,
		formatFlagUsage(`Minimizer window size (default 11).`))
	alignCmd.Flags().BoolP("no-canonical", "", false,
		formatFlagUsage(`Disable canonical (strand-invariant) k-mers.`))

	alignCmd.Flags().StringP("msa-cmd", "", "",
		formatFlagUsage(`Command template for the external MSA tool, substituting {input}/{output} (default "mafft --quiet --auto {input} > {output}").`))

	alignCmd.Flags().BoolP("keep-first-length", "", false,
		formatFlagUsage(`Use the first reference as the consensus instead of the majority-vote consensus, and trim output columns to its length.`))

	alignCmd.Flags().IntP("consensus-top-k", "", 0,
		formatFlagUsage(`Cap the majority-vote consensus candidate pool to the K longest references (0 disables, votes over every loaded reference).`))

	alignCmd.SetUsageTemplate(usageTemplate("<input.fasta|input_dir/> <reference.fasta> <output_prefix>"))
}
