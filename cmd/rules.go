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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/zilliztech/dnastore/codec/scheme"
	"github.com/zilliztech/dnastore/common/werr"
)

var rulesCmd = &cobra.Command{
	Use:   "rules [number]",
	Short: "Print a wukong rule set",
	Long: `Print the nibble to dinucleotide tables of one wukong rule set.
Rule 0 is the reference set, 1 to 30000 are the generated ones.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	n := cfg.Codec.RuleNum
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return werr.ErrConfiguration.WithCauseErrMsg(fmt.Sprintf("rule number %q is not an integer", args[0]))
		}
		n = v
	}
	rule, err := scheme.Rule(n)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "rule %d\n", n)
	fmt.Fprintln(w, "nibble  ji  ou")
	for v := 0; v < 16; v++ {
		fmt.Fprintf(w, "%s    %s  %s\n", scheme.Nibble(v), rule.Ji[v], rule.Ou[v])
	}
	return nil
}
