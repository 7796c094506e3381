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

// Package pipeline runs whole encode and decode jobs over files.
package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"github.com/zilliztech/dnastore/codec/fec"
	"github.com/zilliztech/dnastore/codec/primer"
	"github.com/zilliztech/dnastore/codec/scheme"
	"github.com/zilliztech/dnastore/codec/segment"
	"github.com/zilliztech/dnastore/common/config"
	"github.com/zilliztech/dnastore/common/werr"
)

// progressEvery is how many segments pass between debug progress logs.
const (
	progressEvery = 1000

	// church writes one base per bit, plus record names and parity
	outputBytesPerInputByte = 12
)

// Params is the encode side parameter set. It is fixed once a job is built.
type Params struct {
	SequenceLength int
	MaxHomopolymer int
	MinGC          float64
	MaxGC          float64
	RSNum          int
	AddRedundancy  bool
	AddPrimer      bool
	PrimerLength   int
	RuleNum        int
}

// ParamsFromConfig copies the codec section of a configuration.
func ParamsFromConfig(cfg *config.CodecConfig) Params {
	return Params{
		SequenceLength: cfg.SequenceLength,
		MaxHomopolymer: cfg.MaxHomopolymer,
		MinGC:          cfg.MinGC,
		MaxGC:          cfg.MaxGC,
		RSNum:          cfg.RSNum,
		AddRedundancy:  cfg.AddRedundancy,
		AddPrimer:      cfg.AddPrimer,
		PrimerLength:   cfg.PrimerLength,
		RuleNum:        cfg.RuleNum,
	}
}

// Validate checks every parameter rule and reports all violations at once.
func (p Params) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, werr.ErrConfiguration.WithCauseErrMsg(fmt.Sprintf(format, args...)))
	}
	if p.MaxHomopolymer <= 0 {
		invalid("max homopolymer %d must be greater than 0", p.MaxHomopolymer)
	}
	if p.MinGC <= 0 || p.MaxGC >= 1 || p.MinGC >= p.MaxGC {
		invalid("gc window [%v, %v] must satisfy 0 < min < max < 1", p.MinGC, p.MaxGC)
	}
	if p.PrimerLength < primer.MinLength || p.PrimerLength > primer.MaxLength {
		invalid("primer length %d must be within [%d, %d]", p.PrimerLength, primer.MinLength, primer.MaxLength)
	}
	if p.SequenceLength <= 0 {
		invalid("sequence length %d must be greater than 0", p.SequenceLength)
	}
	if p.RSNum < 0 || p.RSNum >= fec.MaxBlockBytes {
		invalid("rs num %d must be within [0, %d)", p.RSNum, fec.MaxBlockBytes)
	}
	if p.RuleNum < 0 || p.RuleNum > scheme.RulesCount {
		invalid("rule num %d must be within [0, %d]", p.RuleNum, scheme.RulesCount)
	}
	return werr.Combine(errs...)
}

func (p Params) constraints() scheme.Constraints {
	return scheme.Constraints{
		MaxHomopolymer: p.MaxHomopolymer,
		MinGC:          p.MinGC,
		MaxGC:          p.MaxGC,
		RuleNum:        p.RuleNum,
	}
}

func (p Params) segmentParams() segment.Params {
	return segment.Params{
		SequenceLength: p.SequenceLength,
		PrimerLength:   p.PrimerLength,
		AddPrimer:      p.AddPrimer,
		RSNum:          p.RSNum,
		AddRedundancy:  p.AddRedundancy,
	}
}

func (p Params) primerConstraints() primer.Constraints {
	return primer.Constraints{
		Length:         p.PrimerLength,
		MinGC:          p.MinGC,
		MaxGC:          p.MaxGC,
		MaxHomopolymer: p.MaxHomopolymer,
	}
}

func checkScheme(name string) error {
	if !lo.Contains(scheme.Names, name) {
		return werr.ErrConfiguration.WithCauseErrMsg(fmt.Sprintf("unknown scheme %q, want one of %v", name, scheme.Names))
	}
	return nil
}

func checkOutputDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return werr.ErrConfiguration.WithCauseErrMsg(fmt.Sprintf("output dir %s does not exist", dir))
	}
	if !info.IsDir() {
		return werr.ErrConfiguration.WithCauseErrMsg(fmt.Sprintf("output dir %s is not a directory", dir))
	}
	return nil
}

// splitName returns the base name of path without its extension, and the extension.
func splitName(path string) (string, string) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext), ext
}
