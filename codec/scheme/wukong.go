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

	"github.com/zilliztech/dnastore/codec/segment"
	"github.com/zilliztech/dnastore/common/bitstr"
	"github.com/zilliztech/dnastore/common/werr"
)

const maskSeed = 1024

// WukongScheme packs a nibble into two bases through a rule set, alternating
// between its Ji and Ou tables. A segment whose bases break the homopolymer
// or GC limits is masked and flagged in the top bit of its index.
type WukongScheme struct {
	constraints Constraints
	rules       RuleSet
	decodeJi    map[string]int
	decodeOu    map[string]int
}

func NewWukong(c Constraints) (*WukongScheme, error) {
	rules, err := Rule(c.RuleNum)
	if err != nil {
		return nil, err
	}
	w := &WukongScheme{
		constraints: c,
		rules:       rules,
		decodeJi:    make(map[string]int, 16),
		decodeOu:    make(map[string]int, 16),
	}
	for v := 0; v < 16; v++ {
		w.decodeJi[rules.Ji[v]] = v
		w.decodeOu[rules.Ou[v]] = v
	}
	return w, nil
}

func (w *WukongScheme) Name() string {
	return Wukong
}

func (w *WukongScheme) Layout() segment.Layout {
	return segment.Layout{BitsPerBase: 2, IndexRedundancy: 1, IndexAlign: 4}
}

func (w *WukongScheme) Encode(seg string, indexLength int) (string, bool, error) {
	if len(seg)%4 != 0 || indexLength <= 0 || indexLength > len(seg) {
		return "", false, werr.ErrInternalError.WithCauseErrMsg(
			fmt.Sprintf("wukong needs whole nibbles, got %d bits with a %d bit index", len(seg), indexLength))
	}
	bases, err := w.pack(seg)
	if err != nil {
		return "", false, err
	}
	if w.acceptable(bases) {
		return bases, false, nil
	}
	bases, err = w.pack(mask(seg, indexLength))
	if err != nil {
		return "", false, err
	}
	return bases, true, nil
}

func (w *WukongScheme) Decode(bases string, indexLength int) (string, bool, error) {
	if len(bases)%2 != 0 {
		// an insertion or deletion, the read is lost but the alphabet is fine
		return "", false, werr.ErrMissingSegment.WithCauseErrMsg(fmt.Sprintf("wukong sequence has odd length %d", len(bases)))
	}
	out := make([]byte, 0, len(bases)*2)
	for k := 0; k < len(bases)/2; k++ {
		pair := bases[2*k : 2*k+2]
		table := w.decodeJi
		if k%2 == 1 {
			table = w.decodeOu
		}
		v, ok := table[pair]
		if !ok {
			return "", false, werr.ErrDecoding.WithCauseErrMsg(fmt.Sprintf("unexpected dinucleotide %q at %d", pair, 2*k))
		}
		out = append(out, Nibble(v)...)
	}
	seg := string(out)
	if indexLength > 0 && indexLength <= len(seg) && seg[0] == '1' {
		return mask(seg, indexLength), true, nil
	}
	return seg, false, nil
}

func (w *WukongScheme) pack(seg string) (string, error) {
	out := make([]byte, 0, len(seg)/2)
	for k := 0; k < len(seg)/4; k++ {
		v := bitstr.ParseIndex(seg[4*k:4*k+4], 4)
		if v < 0 {
			return "", werr.ErrInternalError.WithCauseErrMsg(fmt.Sprintf("invalid nibble %q", seg[4*k:4*k+4]))
		}
		if k%2 == 0 {
			out = append(out, w.rules.Ji[v]...)
		} else {
			out = append(out, w.rules.Ou[v]...)
		}
	}
	return string(out), nil
}

func (w *WukongScheme) acceptable(bases string) bool {
	if MaxRun(bases) > w.constraints.MaxHomopolymer {
		return false
	}
	gc := GCRatio(bases)
	return gc >= w.constraints.MinGC && gc <= w.constraints.MaxGC
}

// mask toggles the top index bit and xors everything after the index with a
// fixed pseudo random stream, so applying it twice restores seg.
func mask(seg string, indexLength int) string {
	r := rand.New(rand.NewSource(maskSeed))
	stream := make([]byte, len(seg)-indexLength)
	for i := range stream {
		stream[i] = '0' + byte(r.Intn(2))
	}
	flag := byte('1')
	if seg[0] == '1' {
		flag = '0'
	}
	return string(flag) + seg[1:indexLength] + bitstr.Xor(seg[indexLength:], string(stream))
}
