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

// Package scheme maps bit segments to constrained base sequences and back.
package scheme

import (
	"fmt"

	"github.com/zilliztech/dnastore/codec/segment"
	"github.com/zilliztech/dnastore/common/werr"
)

const (
	Church  = "church"
	Goldman = "goldman"
	Wukong  = "wukong"
)

// Names lists every supported scheme.
var Names = []string{Church, Goldman, Wukong}

// Constraints are the biochemical limits a scheme is asked to respect.
type Constraints struct {
	MaxHomopolymer int
	MinGC          float64
	MaxGC          float64
	RuleNum        int
}

// SegmentScheme encodes index-prefixed bit segments one at a time.
type SegmentScheme interface {
	Name() string
	Layout() segment.Layout
	// Encode returns the bases for seg and whether the segment had to be
	// rewritten into a virtual segment to meet the constraints.
	Encode(seg string, indexLength int) (string, bool, error)
	// Decode returns the bit segment for bases and whether it was virtual.
	Decode(bases string, indexLength int) (string, bool, error)
}

// NewSegmentScheme builds the named segment scheme.
func NewSegmentScheme(name string, c Constraints) (SegmentScheme, error) {
	switch name {
	case Church:
		return NewChurch(c.MaxHomopolymer)
	case Wukong:
		return NewWukong(c)
	case Goldman:
		return nil, werr.ErrConfiguration.WithCauseErrMsg("goldman does not encode segments")
	default:
		return nil, werr.ErrConfiguration.WithCauseErrMsg(fmt.Sprintf("unknown scheme %q", name))
	}
}

// IsSegmentScheme reports whether name uses the segment header and pipeline.
func IsSegmentScheme(name string) bool {
	return name == Church || name == Wukong
}

// MaxRun is the length of the longest single-base run in bases.
func MaxRun(bases string) int {
	longest, run := 0, 0
	for i := 0; i < len(bases); i++ {
		if i > 0 && bases[i] == bases[i-1] {
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

// GCRatio is the fraction of G and C in bases.
func GCRatio(bases string) float64 {
	if len(bases) == 0 {
		return 0
	}
	gc := 0
	for i := 0; i < len(bases); i++ {
		switch bases[i] {
		case 'G', 'C', 'g', 'c':
			gc++
		}
	}
	return float64(gc) / float64(len(bases))
}
