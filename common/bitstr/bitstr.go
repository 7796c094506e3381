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

// Package bitstr converts between files, bytes and '0'/'1' bit strings.
package bitstr

import (
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/zilliztech/dnastore/common/werr"
)

// FromBytes renders every byte as eight bits, most significant first.
func FromBytes(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data) * 8)
	for _, b := range data {
		for shift := 7; shift >= 0; shift-- {
			if b>>uint(shift)&1 == 1 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	}
	return sb.String()
}

// ToBytes packs bits into bytes. A trailing partial byte is zero-filled on the right.
func ToBytes(bits string) ([]byte, error) {
	out := make([]byte, (len(bits)+7)/8)
	for i := 0; i < len(bits); i++ {
		switch bits[i] {
		case '1':
			out[i/8] |= 1 << uint(7-i%8)
		case '0':
		default:
			return nil, werr.ErrDecoding.WithCauseErrMsg("invalid bit " + strconv.Quote(string(bits[i])))
		}
	}
	return out, nil
}

// FileToBin reads a whole file as a bit string.
func FileToBin(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", werr.ErrFileIO.WithCauseErr(errors.Wrapf(err, "read %s", path))
	}
	return FromBytes(data), nil
}

// BinToFile writes bits to path, one byte per eight bits.
func BinToFile(bits string, path string) error {
	data, err := ToBytes(bits)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return werr.ErrFileIO.WithCauseErr(errors.Wrapf(err, "write %s", path))
	}
	return nil
}

// Index renders v as a fixed-width binary field.
func Index(v int, width int) string {
	s := strconv.FormatInt(int64(v), 2)
	if len(s) >= width {
		return s[len(s)-width:]
	}
	return strings.Repeat("0", width-len(s)) + s
}

// ParseIndex reads the leading width bits of seg as an unsigned integer.
// It returns -1 when seg is shorter than width or not binary.
func ParseIndex(seg string, width int) int {
	if width <= 0 || len(seg) < width {
		return -1
	}
	v, err := strconv.ParseUint(seg[:width], 2, 62)
	if err != nil {
		return -1
	}
	return int(v)
}

// BitLen is the number of bits needed to represent v, zero for v <= 0.
func BitLen(v int) int {
	n := 0
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}

// LeftPad prefixes bits with zeros up to a multiple of 8 and returns the pad length.
func LeftPad(bits string) (string, int) {
	pad := (8 - len(bits)%8) % 8
	if pad == 0 {
		return bits, 0
	}
	return strings.Repeat("0", pad) + bits, pad
}

// Zeros returns n zero bits.
func Zeros(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("0", n)
}

// Xor combines two equal-length bit strings.
func Xor(a, b string) string {
	out := []byte(a)
	for i := 0; i < len(out) && i < len(b); i++ {
		if a[i] != b[i] {
			out[i] = '1'
		} else {
			out[i] = '0'
		}
	}
	return string(out)
}
