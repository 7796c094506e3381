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

package scheme

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/zilliztech/dnastore/common/werr"
)

const (
	// RulesCount is the number of seed-derived rule sets after the reference set.
	RulesCount = 30000

	jiSeed = 1953
	ouSeed = 2022
)

// RuleSet maps every nibble to a dinucleotide. Ji serves even nibble
// positions of a segment and Ou the odd ones.
type RuleSet struct {
	Ji [16]string
	Ou [16]string
}

var referenceRules = RuleSet{
	Ji: [16]string{"AC", "AA", "AT", "AG", "TC", "TT", "GC", "TG", "CA", "GG", "CT", "CG", "GA", "GT", "CC", "TA"},
	Ou: [16]string{"GG", "GC", "GT", "GA", "CT", "CC", "CG", "CA", "TG", "TC", "TA", "TT", "AG", "AT", "AC", "AA"},
}

// baseFamilies are the four dinucleotide orderings rule sets draw from.
var baseFamilies = [4][2]string{
	{"ATCG", "GCTA"},
	{"TAGC", "ACGT"},
	{"GACT", "CAGT"},
	{"CTGA", "TGAC"},
}

var (
	rulesOnce sync.Once
	allRules  []RuleSet
)

func family(f int) [16]string {
	var out [16]string
	outer, inner := baseFamilies[f][0], baseFamilies[f][1]
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			out[x*4+y] = string([]byte{outer[x], inner[y]})
		}
	}
	return out
}

func permutations(seed int64, count int) [][]int {
	r := rand.New(rand.NewSource(seed))
	out := make([][]int, count)
	for i := range out {
		out[i] = r.Perm(16)
	}
	return out
}

func buildRules(count int) []RuleSet {
	var families [4][16]string
	for f := range families {
		families[f] = family(f)
	}
	ji := permutations(jiSeed, count)
	ou := permutations(ouSeed, count)

	rules := make([]RuleSet, 0, count+1)
	rules = append(rules, referenceRules)
	for index := 0; index < count; index++ {
		var rs RuleSet
		for i := 0; i < 16; i++ {
			rs.Ji[i] = families[index%4][ji[index][i]]
			rs.Ou[i] = families[(index+2)%4][ou[index][i]]
		}
		rules = append(rules, rs)
	}
	return rules
}

// Rules returns the process-wide rule table, built on first use.
func Rules() []RuleSet {
	rulesOnce.Do(func() {
		allRules = buildRules(RulesCount)
	})
	return allRules
}

// Rule returns rule set n, where 0 is the reference set.
func Rule(n int) (RuleSet, error) {
	if n < 0 || n > RulesCount {
		return RuleSet{}, werr.ErrConfiguration.WithCauseErrMsg(fmt.Sprintf("rule number %d out of range [0, %d]", n, RulesCount))
	}
	return Rules()[n], nil
}

// Nibble renders v as a four bit key.
func Nibble(v int) string {
	return fmt.Sprintf("%04b", v)
}
