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

package segment

import (
	"sort"

	"github.com/klauspost/reedsolomon"
	"github.com/samber/lo"

	"github.com/zilliztech/dnastore/common/bitstr"
)

// RepairResult holds the ordered data payloads and what it took to get them.
type RepairResult struct {
	Segments       []string
	RepairedRate   float64
	RepairedIndexs []int
	FailedRate     float64
	FailedIndexs   []int
}

type candidate struct {
	index   int
	payload string
}

// SortByIndex orders segments by their leading index field. Segments with an
// index outside [0, seqNum) are dropped and every index without a segment gets
// an empty placeholder, so each index appears at least once.
func SortByIndex(segments []string, indexLength, seqNum int) []string {
	byIndex := make([][]string, seqNum)
	for _, seg := range segments {
		idx := bitstr.ParseIndex(seg, indexLength)
		if idx < 0 || idx >= seqNum {
			continue
		}
		byIndex[idx] = append(byIndex[idx], seg)
	}
	out := make([]string, 0, len(segments))
	for _, group := range byIndex {
		if len(group) == 0 {
			out = append(out, "")
			continue
		}
		out = append(out, group...)
	}
	return out
}

// majority returns the most frequent payload; ties go to the one seen first.
func majority(payloads []string) string {
	counts := lo.GroupBy(payloads, func(p string) string { return p })
	best, bestCount := "", 0
	for _, p := range payloads {
		if n := len(counts[p]); n > bestCount {
			best, bestCount = p, n
		}
	}
	return best
}

func hamming(a, b int) int {
	d := 0
	for x := a ^ b; x > 0; x &= x - 1 {
		d++
	}
	return d
}

// Repair rebuilds the data payloads of a plan from index-prefixed segments.
func (p *Plan) Repair(segments []string) *RepairResult {
	return Repair(p.IndexLength, p.BinSplitLen, segments, p.SeqNum, p.AddRedundancy)
}

// Repair votes among duplicate candidates per index, rebuilds missing data
// from erasure stripes when redundancy is on, moves outvoted candidates to a
// still missing index one bit flip away, and zero-fills whatever is left.
func Repair(indexLength, payloadLen int, segments []string, seqNum int, addRedundancy bool) *RepairResult {
	dataNum := seqNum
	if addRedundancy {
		// invert SeqNumFor: the smallest data count whose total matches
		for d := 1; d <= seqNum; d++ {
			if SeqNumFor(d, true) >= seqNum {
				dataNum = d
				break
			}
		}
	}

	buckets := make([][]string, seqNum)
	for _, seg := range segments {
		if len(seg) != indexLength+payloadLen {
			continue
		}
		idx := bitstr.ParseIndex(seg, indexLength)
		if idx < 0 || idx >= seqNum {
			continue
		}
		buckets[idx] = append(buckets[idx], seg[indexLength:])
	}

	resolved := make([]string, seqNum)
	present := make([]bool, seqNum)
	var surplus []candidate
	for idx, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		winner := majority(bucket)
		resolved[idx] = winner
		present[idx] = true
		for _, payload := range bucket {
			if payload != winner {
				surplus = append(surplus, candidate{index: idx, payload: payload})
			}
		}
	}

	repaired := make(map[int]bool)
	var plan *Plan
	if addRedundancy {
		plan = &Plan{DataNum: dataNum, SeqNum: seqNum, BinSplitLen: payloadLen, AddRedundancy: true}
		plan.reconstruct(resolved, present, repaired, payloadLen)
	}

	// neighbours only fill indices the stripes left missing
	if reassign(surplus, resolved, present, repaired) && plan != nil {
		plan.reconstruct(resolved, present, repaired, payloadLen)
	}

	res := &RepairResult{Segments: make([]string, dataNum)}
	for i := 0; i < dataNum; i++ {
		if present[i] {
			res.Segments[i] = resolved[i]
			continue
		}
		res.Segments[i] = bitstr.Zeros(payloadLen)
		res.FailedIndexs = append(res.FailedIndexs, i)
	}
	res.RepairedIndexs = lo.Filter(lo.Keys(repaired), func(i int, _ int) bool { return i < dataNum })
	sort.Ints(res.RepairedIndexs)
	res.RepairedRate = float64(len(res.RepairedIndexs)) / float64(seqNum)
	res.FailedRate = float64(len(res.FailedIndexs)) / float64(seqNum)
	return res
}

// reassign gives each missing index the majority of the outvoted candidates
// whose index is one bit flip away from it. It reports whether any index was filled.
func reassign(surplus []candidate, resolved []string, present []bool, repaired map[int]bool) bool {
	neighbours := make(map[int][]string)
	for _, c := range surplus {
		for m := range present {
			if !present[m] && hamming(c.index, m) == 1 {
				neighbours[m] = append(neighbours[m], c.payload)
			}
		}
	}
	for m, payloads := range neighbours {
		resolved[m] = majority(payloads)
		present[m] = true
		repaired[m] = true
	}
	return len(neighbours) > 0
}

func (p *Plan) reconstruct(resolved []string, present []bool, repaired map[int]bool, payloadLen int) {
	for _, st := range p.stripes() {
		reconstructStripe(st, resolved, present, repaired, payloadLen)
	}
}

func reconstructStripe(st stripe, resolved []string, present []bool, repaired map[int]bool, payloadLen int) {
	members := append(append([]int{}, st.data...), st.parity...)
	if !lo.Contains(lo.Map(st.data, func(i int, _ int) bool { return present[i] }), false) {
		return
	}
	shards := make([][]byte, len(members))
	lost := 0
	for k, i := range members {
		if i >= len(present) || !present[i] {
			lost++
			continue
		}
		shard, err := bitstr.ToBytes(resolved[i])
		if err != nil {
			lost++
			continue
		}
		shards[k] = shard
	}
	if lost > len(st.parity) {
		return
	}
	enc, err := reedsolomon.New(len(st.data), len(st.parity))
	if err != nil {
		return
	}
	if err := enc.ReconstructData(shards); err != nil {
		return
	}
	for k, i := range st.data {
		if present[i] {
			continue
		}
		resolved[i] = bitstr.FromBytes(shards[k])[:payloadLen]
		present[i] = true
		repaired[i] = true
	}
}
