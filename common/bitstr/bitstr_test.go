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

package bitstr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zilliztech/dnastore/common/werr"
)

func TestFromBytes(t *testing.T) {
	assert.Equal(t, "", FromBytes(nil))
	assert.Equal(t, "01001000", FromBytes([]byte("H")))
	assert.Equal(t, "0000000111111111", FromBytes([]byte{0x01, 0xff}))
}

func TestToBytes(t *testing.T) {
	data, err := ToBytes("0100100001101001")
	require.NoError(t, err)
	assert.Equal(t, []byte("Hi"), data)

	data, err = ToBytes("1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80}, data)

	_, err = ToBytes("01x")
	assert.ErrorIs(t, err, werr.ErrDecoding)
}

func TestBytesRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOf(rapid.Byte()).Draw(t, "data")
		back, err := ToBytes(FromBytes(data))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(back) != string(data) {
			t.Fatalf("round trip mismatch: %v != %v", back, data)
		}
	})
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.bin")
	dst := filepath.Join(dir, "out.bin")
	require.NoError(t, os.WriteFile(src, []byte{0, 1, 2, 254, 255}, 0o644))

	bits, err := FileToBin(src)
	require.NoError(t, err)
	assert.Len(t, bits, 40)
	require.NoError(t, BinToFile(bits, dst))
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 254, 255}, got)

	_, err = FileToBin(filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, werr.ErrFileIO)
}

func TestIndexHelpers(t *testing.T) {
	assert.Equal(t, "00101", Index(5, 5))
	assert.Equal(t, "01", Index(5, 2))
	assert.Equal(t, 5, ParseIndex("00101111", 5))
	assert.Equal(t, -1, ParseIndex("001", 5))
	assert.Equal(t, -1, ParseIndex("0a101", 5))
	assert.Equal(t, 0, BitLen(0))
	assert.Equal(t, 1, BitLen(1))
	assert.Equal(t, 8, BitLen(255))
	assert.Equal(t, 9, BitLen(256))

	padded, pad := LeftPad("101")
	assert.Equal(t, "00000101", padded)
	assert.Equal(t, 5, pad)
	padded, pad = LeftPad("10101010")
	assert.Equal(t, "10101010", padded)
	assert.Equal(t, 0, pad)

	assert.Equal(t, "0110", Xor("1100", "1010"))
	assert.Equal(t, "000", Zeros(3))
	assert.Equal(t, "", Zeros(-1))
}
