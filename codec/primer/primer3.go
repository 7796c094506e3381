// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package primer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/zilliztech/dnastore/codec/format"
	"github.com/zilliztech/dnastore/common/logger"
	"github.com/zilliztech/dnastore/common/werr"
)

// templateSequences is how many encoded records are joined into the primer3 template.
const templateSequences = 4

// Primer3Designer asks the primer3_core executable for a pair that amplifies
// the encoded records.
type Primer3Designer struct {
	path       string
	thermoPath string
	timeout    time.Duration
}

func NewPrimer3Designer(path, thermoPath string, timeout time.Duration) *Primer3Designer {
	if path == "" {
		path = "primer3_core"
	}
	return &Primer3Designer{path: path, thermoPath: thermoPath, timeout: timeout}
}

func (p *Primer3Designer) Design(ctx context.Context, fastaPath string, c Constraints) (*Pair, error) {
	_, seqs, err := format.ReadFile(fastaPath)
	if err != nil {
		return nil, err
	}
	if len(seqs) == 0 {
		return nil, nil
	}
	if len(seqs) > templateSequences {
		seqs = seqs[:templateSequences]
	}

	in, err := os.CreateTemp("", "primer3-in-*")
	if err != nil {
		return nil, werr.ErrFileIO.WithCauseErr(errors.Wrap(err, "create primer3 input"))
	}
	defer os.Remove(in.Name())
	out, err := os.CreateTemp("", "primer3-out-*")
	if err != nil {
		in.Close()
		return nil, werr.ErrFileIO.WithCauseErr(errors.Wrap(err, "create primer3 output"))
	}
	defer os.Remove(out.Name())
	out.Close()

	_, err = in.Write(p.settings(strings.Join(seqs, ""), c))
	closeErr := in.Close()
	if err = errors.CombineErrors(err, closeErr); err != nil {
		return nil, werr.ErrFileIO.WithCauseErr(errors.Wrapf(err, "write primer3 input %s", in.Name()))
	}

	if err := p.run(ctx, in.Name(), out.Name()); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(out.Name())
	if err != nil {
		return nil, werr.ErrFileIO.WithCauseErr(errors.Wrapf(err, "read primer3 output %s", out.Name()))
	}
	pair, err := parseOutput(raw)
	if err != nil || pair == nil {
		return pair, err
	}
	if err := Validate(pair.Left, c); err != nil {
		return nil, err
	}
	if err := Validate(pair.Right, c); err != nil {
		return nil, err
	}
	logger.Ctx(ctx).Info("primer3 designed a pair", zap.String("left", pair.Left), zap.String("right", pair.Right))
	return pair, nil
}

// settings renders the boulder-IO input, one KEY=value per line and "=" at the end.
func (p *Primer3Designer) settings(template string, c Constraints) []byte {
	size := strconv.Itoa(c.Length)
	settings := map[string]string{
		"SEQUENCE_ID":                "dnastore",
		"SEQUENCE_TEMPLATE":          template,
		"PRIMER_TASK":                "generic",
		"PRIMER_PICK_LEFT_PRIMER":    "1",
		"PRIMER_PICK_INTERNAL_OLIGO": "0",
		"PRIMER_PICK_RIGHT_PRIMER":   "1",
		"PRIMER_NUM_RETURN":          "1",
		"PRIMER_MIN_SIZE":            size,
		"PRIMER_OPT_SIZE":            size,
		"PRIMER_MAX_SIZE":            size,
		"PRIMER_MIN_GC":              fmt.Sprintf("%.1f", c.MinGC*100),
		"PRIMER_MAX_GC":              fmt.Sprintf("%.1f", c.MaxGC*100),
		"PRIMER_PRODUCT_SIZE_RANGE":  fmt.Sprintf("%d-%d", 3*c.Length, len(template)),
		"PRIMER_EXPLAIN_FLAG":        "1",
		"PRIMER_PAIR_MAX_COMPL_ANY":  "8.0",
		"PRIMER_PAIR_MAX_COMPL_END":  "3.0",
		"PRIMER_MAX_SELF_ANY":        "8.0",
		"PRIMER_MAX_SELF_END":        "3.0",
		"PRIMER_MIN_TM":              "55.0",
		"PRIMER_MAX_TM":              "65.0",
		"PRIMER_OPT_TM":              "60.0",
		"PRIMER_MAX_END_STABILITY":   "9.0",
		"PRIMER_LOWERCASE_MASKING":   "0",
		"PRIMER_FIRST_BASE_INDEX":    "0",
		"PRIMER_LIBERAL_BASE":        "1",
	}
	if c.MaxHomopolymer > 0 {
		settings["PRIMER_MAX_POLY_X"] = strconv.Itoa(c.MaxHomopolymer)
	}
	if p.thermoPath != "" {
		settings["PRIMER_THERMODYNAMIC_PARAMETERS_PATH"] = p.thermoPath
	}

	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s=%s\n", k, settings[k])
	}
	buf.WriteString("=\n")
	return buf.Bytes()
}

func (p *Primer3Designer) run(ctx context.Context, inPath, outPath string) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, p.path, inPath, "-output", outPath, "-strict_tags")
	if output, err := cmd.CombinedOutput(); err != nil {
		return werr.ErrPrimerDesign.WithCauseErr(
			errors.Wrapf(err, "execute %s on %s: %s", p.path, inPath, strings.TrimSpace(string(output))))
	}
	return nil
}

// parseOutput reads the first pair from primer3 output. No pair is not an error.
func parseOutput(raw []byte) (*Pair, error) {
	results := make(map[string]string)
	for _, line := range strings.Split(string(raw), "\n") {
		k, v, ok := strings.Cut(line, "=")
		if ok {
			results[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	if msg := results["PRIMER_ERROR"]; msg != "" {
		return nil, werr.ErrPrimerDesign.WithCauseErrMsg("primer3: " + msg)
	}
	if n := results["PRIMER_PAIR_NUM_RETURNED"]; n == "0" {
		return nil, nil
	}
	left := results["PRIMER_LEFT_0_SEQUENCE"]
	right := results["PRIMER_RIGHT_0_SEQUENCE"]
	if left == "" || right == "" {
		return nil, nil
	}
	return &Pair{Left: strings.ToUpper(left), Right: strings.ToUpper(right)}, nil
}
