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

// Package config holds the single explicit configuration record that is
// threaded from the CLI into the pipeline driver and worker pool. Nothing
// in this program keeps path or thread-count state in package globals.
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Config is passed by value/pointer from cmd down into pipeline, refindex
// and merger. It is built once per run and never mutated concurrently.
type Config struct {
	InputPath     string
	ReferencePath string
	OutputPrefix  string
	WorkDir       string

	Threads   int
	SaveVCF   bool
	BatchSize int

	K          int
	SketchSize int
	WindowSize int
	Canonical  bool
	Seed       uint64

	// anchor filters, spec §4.4
	FTopFrac      float64
	UFloor        int
	UCeil         int
	QOccFrac      float64
	SampleEveryBp int

	// chaining, spec §4.5
	GapPenalty    float64
	SkipPenalty   float64
	MaxDistX      int
	MaxDistY      int
	Bandwidth     int
	MaxSkip       int
	MaxIter       int
	MinChainCnt   int
	MinChainScore float64

	KeepFirstLength     bool
	ConsensusCandidateK int // 0 disables; otherwise cap the majority-vote pool to the K longest references
	ExternalMSACmd      string
}

// Default returns a Config with every field set to the defaults named in
// the specification.
func Default() *Config {
	return &Config{
		Threads:   1,
		BatchSize: 25600,

		K:          21,
		SketchSize: 1000,
		WindowSize: 11,
		Canonical:  true,
		Seed:       11,

		FTopFrac:      2e-4,
		UFloor:        10,
		UCeil:         1_000_000,
		QOccFrac:      0.01,
		SampleEveryBp: 500,

		GapPenalty:    1,
		SkipPenalty:   0.1,
		MaxDistX:      5000,
		MaxDistY:      5000,
		Bandwidth:     500,
		MaxSkip:       25,
		MaxIter:       5000,
		MinChainCnt:   1,
		MinChainScore: 20,

		KeepFirstLength:     false,
		ConsensusCandidateK: 0,
		ExternalMSACmd:      "mafft --quiet --auto {input} > {output}",
	}
}

// LoadTOML overlays fields present in a TOML file onto cfg. Fields absent
// from the file keep their current (CLI-default) value; CLI flags are
// applied by the caller after this, so flags always win.
func LoadTOML(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "reading config file: %s", path)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "parsing config file: %s", path)
	}
	return nil
}
