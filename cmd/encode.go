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

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zilliztech/dnastore/codec/primer"
	"github.com/zilliztech/dnastore/common/config"
	"github.com/zilliztech/dnastore/pipeline"
)

// codecFlags override the configuration only when set on the command line.
type codecFlags struct {
	scheme         string
	sequenceLength int
	maxHomopolymer int
	minGC          float64
	maxGC          float64
	rsNum          int
	addRedundancy  bool
	addPrimer      bool
	primerLength   int
	ruleNum        int
	leftPrimer     string
	rightPrimer    string
	workers        int
}

func (f *codecFlags) apply(cmd *cobra.Command, cfg *config.Configuration) {
	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("scheme", func() { cfg.Codec.Scheme = f.scheme })
	set("sequence-length", func() { cfg.Codec.SequenceLength = f.sequenceLength })
	set("max-homopolymer", func() { cfg.Codec.MaxHomopolymer = f.maxHomopolymer })
	set("min-gc", func() { cfg.Codec.MinGC = f.minGC })
	set("max-gc", func() { cfg.Codec.MaxGC = f.maxGC })
	set("rs-num", func() { cfg.Codec.RSNum = f.rsNum })
	set("redundancy", func() { cfg.Codec.AddRedundancy = f.addRedundancy })
	set("primer", func() { cfg.Codec.AddPrimer = f.addPrimer })
	set("primer-length", func() { cfg.Codec.PrimerLength = f.primerLength })
	set("rule-num", func() { cfg.Codec.RuleNum = f.ruleNum })
	set("left-primer", func() { cfg.Primer.Designer, cfg.Primer.LeftPrimer = primer.DesignerStatic, f.leftPrimer })
	set("right-primer", func() { cfg.Primer.Designer, cfg.Primer.RightPrimer = primer.DesignerStatic, f.rightPrimer })
	set("workers", func() { cfg.Codec.Workers = f.workers })
}

var (
	encodeInput     string
	encodeOutputDir string
	encodeFlags     codecFlags
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode a file into DNA sequences",
	Long: `Encode a file into a FASTA file named <output-dir>/<name>_<scheme>.fasta.

The first record line is a header carrying everything the decoder needs.`,
	Args: cobra.NoArgs,
	RunE: runEncode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)

	flags := encodeCmd.Flags()
	flags.StringVarP(&encodeInput, "input", "i", "", "file to encode (required)")
	flags.StringVarP(&encodeOutputDir, "output-dir", "o", "", "existing directory for the FASTA output (required)")
	flags.StringVarP(&encodeFlags.scheme, "scheme", "s", "church", "encoding scheme: church, goldman or wukong")
	flags.IntVar(&encodeFlags.sequenceLength, "sequence-length", 200, "bases per sequence, primers included")
	flags.IntVar(&encodeFlags.maxHomopolymer, "max-homopolymer", 4, "longest run of one base")
	flags.Float64Var(&encodeFlags.minGC, "min-gc", 0.4, "lower bound of the GC ratio")
	flags.Float64Var(&encodeFlags.maxGC, "max-gc", 0.6, "upper bound of the GC ratio")
	flags.IntVar(&encodeFlags.rsNum, "rs-num", 4, "Reed-Solomon check bytes per segment, 0 disables")
	flags.BoolVar(&encodeFlags.addRedundancy, "redundancy", true, "add erasure-coded redundant segments")
	flags.BoolVar(&encodeFlags.addPrimer, "primer", false, "flank every sequence with a primer pair")
	flags.IntVar(&encodeFlags.primerLength, "primer-length", 20, "primer length in bases")
	flags.IntVar(&encodeFlags.ruleNum, "rule-num", 0, "wukong rule set number")
	flags.StringVar(&encodeFlags.leftPrimer, "left-primer", "", "static left primer")
	flags.StringVar(&encodeFlags.rightPrimer, "right-primer", "", "static right primer")
	flags.IntVar(&encodeFlags.workers, "workers", 0, "segments encoded in parallel, 0 uses GOMAXPROCS")

	_ = encodeCmd.MarkFlagRequired("input")
	_ = encodeCmd.MarkFlagRequired("output-dir")
}

func runEncode(cmd *cobra.Command, _ []string) error {
	encodeFlags.apply(cmd, cfg)

	designer, err := primer.NewDesigner(&cfg.Primer)
	if err != nil {
		return err
	}
	enc, err := pipeline.NewEncoder(encodeInput, encodeOutputDir, cfg.Codec.Scheme, pipeline.ParamsFromConfig(&cfg.Codec),
		pipeline.WithDesigner(designer),
		pipeline.WithMaxInputSize(cfg.Codec.MaxInputSize.Int64()),
		pipeline.WithWorkers(cfg.Codec.Workers))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	out, err := enc.Run(ctx)
	if err != nil {
		return err
	}
	stats := enc.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "encoded %s -> %s\n", encodeInput, out)
	fmt.Fprintf(cmd.OutOrStdout(), "sequences: %d, bases: %d, density: %.4f bits/base\n", stats.SeqNum, stats.TotalBase, stats.Density)
	return nil
}
