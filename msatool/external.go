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

// Package msatool invokes an external multiple-sequence-alignment tool as
// a subprocess. Per spec §9 this program never embeds a parser for a
// specific tool's diagnostics: it only substitutes {input}/{output} into
// a caller-supplied command template and shells out.
package msatool

import (
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// Run substitutes input/output paths into cmdTemplate's {input}/{output}
// placeholders and runs it through the shell, the way the merger invokes
// mafft (or any compatible tool) over the insertion-bucket FASTA.
func Run(cmdTemplate, input, output string) error {
	line := strings.NewReplacer("{input}", input, "{output}", output).Replace(cmdTemplate)

	cmd := exec.Command("sh", "-c", line)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "external MSA command failed: %s\noutput:\n%s", line, out)
	}
	return nil
}
