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

// Package cmd wires the cobra command tree, logging, and error-exit
// convention shared by every subcommand, following the same shape as
// lexicmap's own cmd package: a RootCmd that subcommands register
// themselves onto from their own init(), a package-level log writer, and
// a checkError helper that is the single place os.Exit(1) happens.
package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
	"github.com/shenwei356/go-logging"
	"github.com/spf13/cobra"
)

// RootCmd is the entry point every subcommand attaches to.
var RootCmd = &cobra.Command{
	Use:   "viralign",
	Short: "Reference-guided multiple sequence alignment for large collections of similar genomes",
	Long: fmt.Sprintf(`viralign - reference-guided multiple sequence alignment

Version: %s

viralign places every sequence in a large query FASTA into the coordinate
system of a shared consensus/reference by minimizer-sketch reference
selection, chain-guided pairwise alignment, and consensus projection.
`, Version),
}

// Version is the program version, set by the release process; the
// teacher pins this the same way (a package-level string, not ldflags
// plumbing, since this program has no separate build-info subcommand).
var Version = "0.1.0"

var log = logging.MustGetLogger("viralign")

func init() {
	format := logging.MustStringFormatter(
		`%{color}[%{level:.4s}]%{color:reset} %{message}`,
	)

	var backend logging.Backend
	if isatty.IsTerminal(os.Stderr.Fd()) {
		backend = logging.NewLogBackend(colorable.NewColorableStderr(), "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	backendFormatter := logging.NewBackendFormatter(backend, format)
	logging.SetBackend(backendFormatter)

	RootCmd.PersistentFlags().IntP("threads", "t", 0,
		formatFlagUsage(`Number of worker threads. 0 means runtime.NumCPU().`))
	RootCmd.PersistentFlags().BoolP("quiet", "q", false,
		formatFlagUsage(`Suppress progress/informational logging.`))
	RootCmd.PersistentFlags().StringP("log", "", "",
		formatFlagUsage(`Log file path; also duplicates log output to this file.`))

	RootCmd.CompletionOptions.DisableDefaultCmd = true
	RootCmd.SetUsageTemplate(usageTemplate(""))
}

// addLog duplicates subsequent log output to path, returning the open
// file handle so the caller can close it when the command finishes.
func addLog(path string, verbose bool) *os.File {
	fh, err := os.Create(path)
	checkError(err)

	format := logging.MustStringFormatter(`[%{level:.4s}] %{message}`)
	backend2 := logging.NewLogBackend(fh, "", 0)
	backend2Formatter := logging.NewBackendFormatter(backend2, format)

	backend1 := logging.NewLogBackend(colorable.NewColorableStderr(), "", 0)
	backend1Formatter := logging.NewBackendFormatter(backend1, format)

	if verbose {
		logging.SetBackend(backend1Formatter, backend2Formatter)
	} else {
		logging.SetBackend(backend2Formatter)
	}
	return fh
}

// checkError is the single exit point for fatal, CLI-surfaced errors:
// log it and exit 1, per spec §7's "Input error ... fatal, surface to
// CLI, exit 1".
func checkError(err error) {
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// Execute runs the root command; it is the only function main() calls.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				checkError(err)
			}
			log.Errorf("%v", r)
			os.Exit(1)
		}
	}()

	RootCmd.SilenceErrors = true
	RootCmd.SilenceUsage = false
	if err := RootCmd.Execute(); err != nil {
		checkError(err)
	}
}
