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

package fec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zilliztech/dnastore/common/werr"
)

func flip(bits string, pos int) string {
	b := []byte(bits)
	if b[pos] == '0' {
		b[pos] = '1'
	} else {
		b[pos] = '0'
	}
	return string(b)
}

func TestNewCodecValidation(t *testing.T) {
	_, err := NewCodec(0)
	assert.ErrorIs(t, err, werr.ErrConfiguration)
	_, err = NewCodec(255)
	assert.ErrorIs(t, err, werr.ErrConfiguration)
	_, err = NewCodec(4)
	assert.NoError(t, err)
}

func TestGroupCount(t *testing.T) {
	assert.Equal(t, 1, GroupCount(8, 4))
	assert.Equal(t, 1, GroupCount(251*8, 4))
	assert.Equal(t, 2, GroupCount(252*8, 4))
	assert.Equal(t, 3, GroupCount(502*8+1, 4))
	assert.Equal(t, 1, GroupCount(100, 0))
}

func TestNormalizeGroup(t *testing.T) {
	tests := []struct {
		group, dataBytes, expected int
	}{
		{0, 10, 1},
		{-3, 10, 1},
		{1, 10, 1},
		{2, 10, 2},
		{4, 10, 4}, // 3,3,3,1
		{4, 9, 1},  // 3,3,3,0
		{11, 10, 1},
		{2, 0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizeGroup(tt.group, tt.dataBytes), "group=%d bytes=%d", tt.group, tt.dataBytes)
	}
}

func TestAddParityLength(t *testing.T) {
	c, err := NewCodec(2)
	require.NoError(t, err)

	bits := strings.Repeat("1011", 7) // 28 bits, 4 pad bits
	encoded, err := c.AddParity(bits, 1)
	require.NoError(t, err)
	assert.Len(t, encoded, 28+16)
	assert.True(t, strings.HasPrefix(encoded, bits))

	encoded, err = c.AddParity(strings.Repeat("0", 80), 2)
	require.NoError(t, err)
	assert.Len(t, encoded, 80+2*16)
}

func TestRemoveParityCorrectsErrors(t *testing.T) {
	c, err := NewCodec(4)
	require.NoError(t, err)

	bits := "1100101011110000101010100101" + strings.Repeat("01", 30)
	encoded, err := c.AddParity(bits, 2)
	require.NoError(t, err)

	// two flipped bits in distinct bytes of the first group stay within budget
	damaged := flip(flip(encoded, 3), 20)
	outcome := c.RemoveParity(damaged, 2)
	assert.True(t, outcome.Success)
	assert.Equal(t, bits, outcome.Data)

	// damage past the budget is either flagged, leaving the input as is, or lands on another codeword
	long := strings.Repeat("10011101", 20)
	encoded, err = c.AddParity(long, 1)
	require.NoError(t, err)
	damaged = encoded
	for _, pos := range []int{1, 42, 83, 124, 165} {
		damaged = flip(damaged, pos)
	}
	outcome = c.RemoveParity(damaged, 1)
	if outcome.Success {
		assert.NotEqual(t, long, outcome.Data)
	} else {
		assert.Equal(t, damaged, outcome.Data)
	}
}

func TestRemoveParityTooShort(t *testing.T) {
	c, err := NewCodec(4)
	require.NoError(t, err)
	outcome := c.RemoveParity("10101", 1)
	assert.False(t, outcome.Success)
	assert.Equal(t, "10101", outcome.Data)
}

func TestRemoveBatch(t *testing.T) {
	c, err := NewCodec(4)
	require.NoError(t, err)

	_, err = c.Remove(nil, 8, 1)
	assert.ErrorIs(t, err, werr.ErrInternalError)

	segs := []string{"0000000111", "1111000011", "1010101010"}
	encoded, err := c.Add(segs, 1)
	require.NoError(t, err)

	// too short to hold its own parity, so it fails without a decode
	broken := "1010"
	batch := []string{encoded[0], broken, "", encoded[2]}
	res, err := c.Remove(batch, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{segs[0], segs[2]}, res.Segments)
	assert.Equal(t, []int{1, 2}, res.ErrIndices)
	assert.Equal(t, []string{broken, ""}, res.ErrSegments)
	assert.InDelta(t, 0.5, res.ErrRate, 1e-9)

	// a successful decode shorter than oriLen is a failure
	res, err = c.Remove(encoded[:1], 11, 1)
	require.NoError(t, err)
	assert.Empty(t, res.Segments)
	assert.Equal(t, []int{0}, res.ErrIndices)
}

func TestAddRemoveIdempotence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		check := rapid.IntRange(1, 16).Draw(t, "check")
		bits := rapid.StringOfN(rapid.SampledFrom([]rune{'0', '1'}), 1, 600, -1).Draw(t, "bits")
		dataBytes := (len(bits) + 7) / 8
		group := rapid.IntRange(1, dataBytes).Draw(t, "group")
		if normalizeGroup(group, dataBytes) != group {
			group = 1
		}
		size := (dataBytes + group - 1) / group
		if size+check > MaxBlockBytes {
			t.Skip("group exceeds one block")
		}

		c, err := NewCodec(check)
		if err != nil {
			t.Fatalf("new codec: %v", err)
		}
		encoded, err := c.AddParity(bits, group)
		if err != nil {
			t.Fatalf("add parity: %v", err)
		}
		if len(encoded) != len(bits)+8*group*check {
			t.Fatalf("unexpected length %d", len(encoded))
		}
		outcome := c.RemoveParity(encoded, group)
		if !outcome.Success || outcome.Data != bits {
			t.Fatalf("round trip failed: success=%v", outcome.Success)
		}
	})
}
