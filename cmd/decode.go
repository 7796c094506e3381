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

	"github.com/zilliztech/dnastore/pipeline"
)

var (
	decodeInput     string
	decodeOutputDir string
	decodeScheme    string
	decodeRuleNum   int
	decodeReport    bool
	decodeWorkers   int
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode DNA sequences back into the original file",
	Long: `Decode a FASTA file written by encode, or sequenced reads in the same layout,
into <output-dir>/<name>_decode<ext>. Missing or damaged sequences are recovered
where the parity budget allows and reported otherwise.`,
	Args: cobra.NoArgs,
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	flags := decodeCmd.Flags()
	flags.StringVarP(&decodeInput, "input", "i", "", "FASTA file to decode (required)")
	flags.StringVarP(&decodeOutputDir, "output-dir", "o", "", "existing directory for the decoded file (required)")
	flags.StringVarP(&decodeScheme, "scheme", "s", "church", "scheme the file was encoded with")
	flags.IntVar(&decodeRuleNum, "rule-num", 0, "wukong rule set used at encode time")
	flags.BoolVar(&decodeReport, "report", false, "write <name>_decode.report.json next to the output")
	flags.IntVar(&decodeWorkers, "workers", 0, "sequences decoded in parallel, 0 uses GOMAXPROCS")

	_ = decodeCmd.MarkFlagRequired("input")
	_ = decodeCmd.MarkFlagRequired("output-dir")
}

func runDecode(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if flags.Changed("scheme") {
		cfg.Codec.Scheme = decodeScheme
	}
	if flags.Changed("rule-num") {
		cfg.Codec.RuleNum = decodeRuleNum
	}
	if flags.Changed("report") {
		cfg.Codec.WriteReport = decodeReport
	}
	if flags.Changed("workers") {
		cfg.Codec.Workers = decodeWorkers
	}

	dec, err := pipeline.NewDecoder(decodeInput, decodeOutputDir, cfg.Codec.Scheme,
		pipeline.WithRuleNum(cfg.Codec.RuleNum),
		pipeline.WithReport(cfg.Codec.WriteReport),
		pipeline.WithDecodeWorkers(cfg.Codec.Workers))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	out, err := dec.Run(ctx)
	if err != nil {
		return err
	}
	stats := dec.Stats()
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "decoded %s -> %s\n", decodeInput, out)
	fmt.Fprintf(w, "rs_err_rate: %.4f, repaired_rate: %.4f, miss_err_rate: %.4f\n", stats.RsErrRate, stats.RepairedRate, stats.MissErrRate)
	if len(stats.MissErrIndexs) > 0 {
		fmt.Fprintf(w, "unrecovered segments: %v\n", stats.MissErrIndexs)
	}
	if dec.ReportPath() != "" {
		fmt.Fprintf(w, "report: %s\n", dec.ReportPath())
	}
	return nil
}
