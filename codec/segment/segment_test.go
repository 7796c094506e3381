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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zilliztech/dnastore/common/bitstr"
	"github.com/zilliztech/dnastore/common/werr"
)

var (
	churchLayout = Layout{BitsPerBase: 1, IndexRedundancy: 0, IndexAlign: 1}
	wukongLayout = Layout{BitsPerBase: 2, IndexRedundancy: 1, IndexAlign: 4}
)

func randomBits(r *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '0' + byte(r.Intn(2))
	}
	return string(b)
}

func payloadsOf(p *Plan, segments []string) []string {
	out := make([]string, 0, p.DataNum)
	for _, seg := range segments[:p.DataNum] {
		out = append(out, seg[p.IndexLength:])
	}
	return out
}

func TestSeqNumFor(t *testing.T) {
	assert.Equal(t, 10, SeqNumFor(10, false))
	assert.Equal(t, 14, SeqNumFor(10, true))
	assert.Equal(t, 20, SeqNumFor(16, true))
	assert.Equal(t, 25, SeqNumFor(17, true))
}

func TestIndexLengthFor(t *testing.T) {
	assert.Equal(t, 1, IndexLengthFor(1, churchLayout))
	assert.Equal(t, 1, IndexLengthFor(2, churchLayout))
	assert.Equal(t, 7, IndexLengthFor(66, churchLayout))
	assert.Equal(t, 4, IndexLengthFor(1, wukongLayout))
	assert.Equal(t, 8, IndexLengthFor(54, wukongLayout))
}

func TestNewPlanChurch(t *testing.T) {
	p, err := NewPlan(8000, churchLayout, Params{SequenceLength: 200, RSNum: 4, AddRedundancy: true})
	require.NoError(t, err)
	assert.Equal(t, 7, p.IndexLength)
	assert.Equal(t, 160, p.BinSplitLen)
	assert.Equal(t, 50, p.DataNum)
	assert.Equal(t, 66, p.SeqNum)
	assert.Equal(t, 1, p.RSGroup)
	assert.Equal(t, 199, p.EncodedLen())

	h, err := PlanFromHeader(8000, 160, 4, true, churchLayout)
	require.NoError(t, err)
	assert.Equal(t, p, h)
}

func TestNewPlanWukong(t *testing.T) {
	p, err := NewPlan(8000, wukongLayout, Params{SequenceLength: 100, AddRedundancy: true})
	require.NoError(t, err)
	assert.Equal(t, 8, p.IndexLength)
	assert.Equal(t, 192, p.BinSplitLen)
	assert.Equal(t, 42, p.DataNum)
	assert.Equal(t, 54, p.SeqNum)
	assert.LessOrEqual(t, p.EncodedLen(), 200)
}

func TestNewPlanPrimerCapacity(t *testing.T) {
	params := Params{SequenceLength: 120, PrimerLength: 20, AddPrimer: true, RSNum: 2}
	assert.Equal(t, 80, params.PayloadBases())
	p, err := NewPlan(4096, churchLayout, params)
	require.NoError(t, err)
	assert.LessOrEqual(t, p.EncodedLen(), 80)
}

func TestNewPlanTooShort(t *testing.T) {
	_, err := NewPlan(800, churchLayout, Params{SequenceLength: 40, RSNum: 4})
	assert.ErrorIs(t, err, werr.ErrConfiguration)
	_, err = NewPlan(-1, churchLayout, Params{SequenceLength: 200})
	assert.ErrorIs(t, err, werr.ErrConfiguration)
}

func TestPlanFromHeaderInvalid(t *testing.T) {
	_, err := PlanFromHeader(800, 0, 0, false, churchLayout)
	assert.ErrorIs(t, err, werr.ErrDecoding)
	_, err = PlanFromHeader(800, 12, 0, false, churchLayout)
	assert.ErrorIs(t, err, werr.ErrDecoding)
	_, err = PlanFromHeader(800, 16, 255, false, churchLayout)
	assert.ErrorIs(t, err, werr.ErrDecoding)
}

func TestPlanMatchesHeader(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		totalBit := rapid.IntRange(0, 20000).Draw(t, "totalBit")
		seqLen := rapid.IntRange(60, 300).Draw(t, "seqLen")
		rsNum := rapid.IntRange(0, 3).Draw(t, "rsNum")
		redundancy := rapid.Bool().Draw(t, "redundancy")
		layout := churchLayout
		if rapid.Bool().Draw(t, "wukong") {
			layout = wukongLayout
			seqLen -= seqLen % 2
		}
		p, err := NewPlan(totalBit, layout, Params{SequenceLength: seqLen, RSNum: rsNum, AddRedundancy: redundancy})
		if err != nil {
			t.Skip("sequence too short")
		}
		if p.EncodedLen() > seqLen*layout.BitsPerBase {
			t.Fatalf("encoded length %d exceeds capacity", p.EncodedLen())
		}
		h, err := PlanFromHeader(totalBit, p.BinSplitLen, rsNum, redundancy, layout)
		if err != nil {
			t.Fatal(err)
		}
		if *h != *p {
			t.Fatalf("header plan %+v differs from %+v", h, p)
		}
	})
}

func TestSplitMergeRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, redundancy := range []bool{false, true} {
		bits := randomBits(r, 1117)
		p, err := NewPlan(len(bits), churchLayout, Params{SequenceLength: 60, AddRedundancy: redundancy})
		require.NoError(t, err)
		segments, err := p.Split(bits)
		require.NoError(t, err)
		require.Len(t, segments, p.SeqNum)
		for i, seg := range segments {
			assert.Len(t, seg, p.OriLen())
			assert.Equal(t, i, bitstr.ParseIndex(seg, p.IndexLength))
		}
		assert.Equal(t, bits, Merge(payloadsOf(p, segments), p.TotalBit))

		res := p.Repair(segments)
		assert.Equal(t, bits, Merge(res.Segments, p.TotalBit))
		assert.Empty(t, res.RepairedIndexs)
		assert.Empty(t, res.FailedIndexs)
		assert.Zero(t, res.FailedRate)
	}
}

func TestSplitLengthMismatch(t *testing.T) {
	p, err := NewPlan(64, churchLayout, Params{SequenceLength: 60})
	require.NoError(t, err)
	_, err = p.Split("0101")
	assert.ErrorIs(t, err, werr.ErrInternalError)
}

func TestSortByIndex(t *testing.T) {
	segments := []string{"0111", "0000", "1111", "0001", "1", "01x0"}
	assert.Equal(t, []string{"0000", "0001", "", "", "0111"}, SortByIndex(segments, 3, 4))
}

func newLossPlan(t *testing.T, redundancy bool) (*Plan, string, []string) {
	r := rand.New(rand.NewSource(11))
	bits := randomBits(r, 1120)
	p, err := NewPlan(len(bits), churchLayout, Params{SequenceLength: 60, AddRedundancy: redundancy})
	require.NoError(t, err)
	segments, err := p.Split(bits)
	require.NoError(t, err)
	return p, bits, segments
}

func drop(segments []string, indices ...int) []string {
	gone := make(map[int]bool)
	for _, i := range indices {
		gone[i] = true
	}
	out := make([]string, 0, len(segments))
	for i, seg := range segments {
		if !gone[i] {
			out = append(out, seg)
		}
	}
	return out
}

func TestRepairWithinStripeBudget(t *testing.T) {
	p, bits, segments := newLossPlan(t, true)
	require.Equal(t, 5, p.IndexLength)
	require.Equal(t, 48, p.BinSplitLen)
	require.Equal(t, 24, p.DataNum)
	require.Equal(t, 32, p.SeqNum)

	res := p.Repair(drop(segments, 0, 1, 2, 3, 16, 17, 30))
	assert.Equal(t, []int{0, 1, 2, 3, 16, 17}, res.RepairedIndexs)
	assert.Empty(t, res.FailedIndexs)
	assert.InDelta(t, 6.0/32.0, res.RepairedRate, 1e-9)
	assert.Equal(t, bits, Merge(res.Segments, p.TotalBit))
}

func TestRepairOverBudget(t *testing.T) {
	p, _, segments := newLossPlan(t, true)

	res := p.Repair(drop(segments, 0, 1, 2, 3, 4))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, res.FailedIndexs)
	assert.Empty(t, res.RepairedIndexs)
	assert.InDelta(t, 5.0/32.0, res.FailedRate, 1e-9)
	assert.Equal(t, bitstr.Zeros(p.BinSplitLen), res.Segments[0])
	assert.Equal(t, segments[5][p.IndexLength:], res.Segments[5])
	assert.Len(t, res.Segments, p.DataNum)
}

func TestRepairWithoutRedundancyMisses(t *testing.T) {
	p, _, segments := newLossPlan(t, false)

	res := p.Repair(drop(segments, 3))
	assert.Equal(t, []int{3}, res.FailedIndexs)
	assert.InDelta(t, 1.0/float64(p.SeqNum), res.FailedRate, 1e-9)
}

func TestRepairMajorityVote(t *testing.T) {
	p, bits, segments := newLossPlan(t, false)

	noisy := []byte(segments[5])
	noisy[len(noisy)-1] ^= 1
	input := append([]string{string(noisy)}, segments...)
	input = append(input, segments[5])

	res := p.Repair(input)
	assert.Empty(t, res.FailedIndexs)
	assert.Equal(t, bits, Merge(res.Segments, p.TotalBit))
}

func TestRepairHammingReassignment(t *testing.T) {
	p, bits, segments := newLossPlan(t, false)

	// segment 4 arrives with its lowest index bit flipped, so index 5 shows up twice
	relabeled := bitstr.Index(5, p.IndexLength) + segments[4][p.IndexLength:]
	input := append(drop(segments, 4), relabeled)

	res := p.Repair(input)
	assert.Equal(t, []int{4}, res.RepairedIndexs)
	assert.Empty(t, res.FailedIndexs)
	assert.Equal(t, bits, Merge(res.Segments, p.TotalBit))
}

func TestRepairPrefersStripeOverNeighbour(t *testing.T) {
	p, bits, segments := newLossPlan(t, true)

	// a noisy second read of segment 5 is outvoted and one bit flip away from the lost 4
	noisy := []byte(segments[5])
	noisy[p.IndexLength] ^= 1
	input := append(drop(segments, 4), string(noisy))

	res := p.Repair(input)
	assert.Equal(t, []int{4}, res.RepairedIndexs)
	assert.Empty(t, res.FailedIndexs)
	assert.Equal(t, segments[4][p.IndexLength:], res.Segments[4])
	assert.Equal(t, bits, Merge(res.Segments, p.TotalBit))
}

func TestRepairNeighbourAfterStripeBudget(t *testing.T) {
	p, bits, segments := newLossPlan(t, true)

	// five losses exceed the stripe until 14, read back as 15, is reassigned
	relabeled := bitstr.Index(15, p.IndexLength) + segments[14][p.IndexLength:]
	input := append(drop(segments, 0, 1, 2, 3, 14), relabeled)

	res := p.Repair(input)
	assert.Equal(t, []int{0, 1, 2, 3, 14}, res.RepairedIndexs)
	assert.Empty(t, res.FailedIndexs)
	assert.Equal(t, bits, Merge(res.Segments, p.TotalBit))
}

func TestRepairIgnoresMalformed(t *testing.T) {
	p, bits, segments := newLossPlan(t, false)

	input := append([]string{"", "0101", bitstr.Index(30, p.IndexLength) + segments[0][p.IndexLength:]}, segments...)
	res := p.Repair(input)
	assert.Empty(t, res.FailedIndexs)
	assert.Equal(t, bits, Merge(res.Segments, p.TotalBit))
}
