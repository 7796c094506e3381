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
	"strconv"

	"github.com/zilliztech/dnastore/codec/segment"
	"github.com/zilliztech/dnastore/common/werr"
)

// churchCandidates holds the primary and secondary base for each bit.
var churchCandidates = map[byte][2]byte{
	'0': {'A', 'C'},
	'1': {'G', 'T'},
}

// ChurchScheme writes one bit per base and swaps to the secondary base
// whenever the primary one would extend a run past repNum.
type ChurchScheme struct {
	repNum int
}

func NewChurch(repNum int) (*ChurchScheme, error) {
	if repNum <= 0 {
		return nil, werr.ErrConfiguration.WithCauseErrMsg(fmt.Sprintf("church repeat number must be positive, got %d", repNum))
	}
	return &ChurchScheme{repNum: repNum}, nil
}

func (c *ChurchScheme) Name() string {
	return Church
}

func (c *ChurchScheme) Layout() segment.Layout {
	return segment.Layout{BitsPerBase: 1, IndexRedundancy: 0, IndexAlign: 1}
}

func (c *ChurchScheme) Encode(seg string, _ int) (string, bool, error) {
	out := make([]byte, 0, len(seg))
	for i := 0; i < len(seg); i++ {
		cand, ok := churchCandidates[seg[i]]
		if !ok {
			return "", false, werr.ErrInternalError.WithCauseErrMsg("invalid bit " + strconv.Quote(string(seg[i])))
		}
		if c.wouldRepeat(out, cand[0]) {
			out = append(out, cand[1])
		} else {
			out = append(out, cand[0])
		}
	}
	return string(out), false, nil
}

// wouldRepeat reports whether the last repNum bases all equal next.
func (c *ChurchScheme) wouldRepeat(emitted []byte, next byte) bool {
	if len(emitted) < c.repNum {
		return false
	}
	for _, b := range emitted[len(emitted)-c.repNum:] {
		if b != next {
			return false
		}
	}
	return true
}

func (c *ChurchScheme) Decode(bases string, _ int) (string, bool, error) {
	out := make([]byte, len(bases))
	for i := 0; i < len(bases); i++ {
		switch bases[i] {
		case 'A', 'C', 'a', 'c':
			out[i] = '0'
		case 'G', 'T', 'g', 't':
			out[i] = '1'
		default:
			return "", false, werr.ErrDecoding.WithCauseErrMsg(fmt.Sprintf("unexpected base %q at %d", bases[i], i))
		}
	}
	return string(out), false, nil
}
