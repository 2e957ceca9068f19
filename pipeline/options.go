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
	"github.com/viralign/viralign/anchor"
	"github.com/viralign/viralign/config"
)

func anchorFilters(cfg *config.Config) anchor.FilterOptions {
	return anchor.FilterOptions{
		FTopFrac:      cfg.FTopFrac,
		UFloor:        cfg.UFloor,
		UCeil:         cfg.UCeil,
		QOccFrac:      cfg.QOccFrac,
		SampleEveryBp: cfg.SampleEveryBp,
	}
}

func chainOptions(cfg *config.Config) anchor.ChainOptions {
	return anchor.ChainOptions{
		GapPenalty:  cfg.GapPenalty,
		SkipPenalty: cfg.SkipPenalty,
		MaxDistX:    cfg.MaxDistX,
		MaxDistY:    cfg.MaxDistY,
		Bandwidth:   cfg.Bandwidth,
		MaxSkip:     cfg.MaxSkip,
		MaxIter:     cfg.MaxIter,
		MinCnt:      cfg.MinChainCnt,
		MinScore:    cfg.MinChainScore,
	}
}
