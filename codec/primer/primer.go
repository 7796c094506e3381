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

// Package primer designs the primer pair that flanks every encoded sequence.
package primer

import (
	"context"
	"fmt"
	"strings"

	"github.com/zilliztech/dnastore/common/config"
	"github.com/zilliztech/dnastore/common/werr"
)

const (
	MinLength = 18
	MaxLength = 24

	DesignerStatic  = "static"
	DesignerPrimer3 = "primer3"
)

var complement = map[byte]byte{
	'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A',
	'a': 't', 'c': 'g', 'g': 'c', 't': 'a',
	'N': 'N', 'n': 'n',
}

// Pair is one left/right primer pair. Right is written 5' to 3' on the
// reverse strand, so it is reverse complemented before it is appended.
type Pair struct {
	Left  string
	Right string
}

// Constraints bound the primers a designer may return.
type Constraints struct {
	Length         int
	MinGC          float64
	MaxGC          float64
	MaxHomopolymer int
}

// Designer finds a primer pair for the sequences of an encoded file. A nil
// pair with a nil error means no pair could be found.
type Designer interface {
	Design(ctx context.Context, fastaPath string, c Constraints) (*Pair, error)
}

// NewDesigner builds the designer named in cfg.
func NewDesigner(cfg *config.PrimerConfig) (Designer, error) {
	switch cfg.Designer {
	case "", DesignerStatic:
		return NewStaticDesigner(cfg.LeftPrimer, cfg.RightPrimer), nil
	case DesignerPrimer3:
		return NewPrimer3Designer(cfg.Primer3Path, cfg.ThermoParamsPath, cfg.Timeout.Duration()), nil
	default:
		return nil, werr.ErrConfiguration.WithCauseErrMsg(fmt.Sprintf("unknown primer designer %q", cfg.Designer))
	}
}

// ReverseComplement returns the reverse complement of seq. Unknown symbols become N.
func ReverseComplement(seq string) string {
	n := len(seq)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		if c, ok := complement[seq[n-1-i]]; ok {
			out[i] = c
		} else {
			out[i] = 'N'
		}
	}
	return string(out)
}

// Flank wraps seq in the left primer and the reverse complement of the right one.
func Flank(seq string, p Pair) string {
	return p.Left + seq + ReverseComplement(p.Right)
}

// Strip removes leftLen bases from the front and rightLen from the back.
func Strip(seq string, leftLen, rightLen int) string {
	if leftLen+rightLen >= len(seq) {
		return ""
	}
	return seq[leftLen : len(seq)-rightLen]
}

// Validate checks a primer against the length and composition limits.
func Validate(primer string, c Constraints) error {
	if len(primer) != c.Length {
		return werr.ErrPrimerDesign.WithCauseErrMsg(fmt.Sprintf("primer %s has %d bases, want %d", primer, len(primer), c.Length))
	}
	upper := strings.ToUpper(primer)
	if strings.Trim(upper, "ACGT") != "" {
		return werr.ErrPrimerDesign.WithCauseErrMsg(fmt.Sprintf("primer %s has non ACGT bases", primer))
	}
	if c.MaxHomopolymer > 0 && maxRun(upper) > c.MaxHomopolymer {
		return werr.ErrPrimerDesign.WithCauseErrMsg(fmt.Sprintf("primer %s has a run longer than %d", primer, c.MaxHomopolymer))
	}
	return nil
}

func maxRun(seq string) int {
	longest, run := 0, 0
	for i := 0; i < len(seq); i++ {
		if i > 0 && seq[i] == seq[i-1] {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
