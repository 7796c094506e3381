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
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/reedsolomon"

	"github.com/zilliztech/dnastore/common/bitstr"
	"github.com/zilliztech/dnastore/common/werr"
)

// stripe is one erasure group: a run of data indices and the parity indices covering them.
type stripe struct {
	data   []int
	parity []int
}

func (p *Plan) stripes() []stripe {
	if !p.AddRedundancy {
		return nil
	}
	count := ceilDiv(p.DataNum, StripeData)
	out := make([]stripe, count)
	for s := 0; s < count; s++ {
		for i := s * StripeData; i < p.DataNum && i < (s+1)*StripeData; i++ {
			out[s].data = append(out[s].data, i)
		}
		for j := 0; j < StripeParity; j++ {
			out[s].parity = append(out[s].parity, p.DataNum+s*StripeParity+j)
		}
	}
	return out
}

// Split cuts bits into DataNum payloads, appends erasure parity payloads when
// redundancy is on, and prefixes every payload with its index.
func (p *Plan) Split(bits string) ([]string, error) {
	if len(bits) != p.TotalBit {
		return nil, werr.ErrInternalError.WithCauseErrMsg(fmt.Sprintf("split %d bits with a plan for %d", len(bits), p.TotalBit))
	}
	payloads := make([]string, p.SeqNum)
	for i := 0; i < p.DataNum; i++ {
		start := i * p.BinSplitLen
		end := start + p.BinSplitLen
		if end > len(bits) {
			end = len(bits)
		}
		chunk := ""
		if start < len(bits) {
			chunk = bits[start:end]
		}
		payloads[i] = chunk + bitstr.Zeros(p.BinSplitLen-len(chunk))
	}

	for _, st := range p.stripes() {
		shards := make([][]byte, 0, len(st.data)+len(st.parity))
		for _, i := range st.data {
			shard, err := bitstr.ToBytes(payloads[i])
			if err != nil {
				return nil, err
			}
			shards = append(shards, shard)
		}
		for range st.parity {
			shards = append(shards, make([]byte, p.BinSplitLen/8))
		}
		enc, err := reedsolomon.New(len(st.data), len(st.parity))
		if err != nil {
			return nil, werr.ErrRedundancy.WithCauseErr(errors.Wrap(err, "create stripe encoder"))
		}
		if err := enc.Encode(shards); err != nil {
			return nil, werr.ErrRedundancy.WithCauseErr(errors.Wrap(err, "encode stripe"))
		}
		for j, i := range st.parity {
			payloads[i] = bitstr.FromBytes(shards[len(st.data)+j])
		}
	}

	segments := make([]string, p.SeqNum)
	for i, payload := range payloads {
		segments[i] = bitstr.Index(i, p.IndexLength) + payload
	}
	return segments, nil
}

// Merge concatenates ordered payloads and truncates to totalBit.
func Merge(payloads []string, totalBit int) string {
	total := 0
	for _, payload := range payloads {
		total += len(payload)
	}
	buf := make([]byte, 0, total)
	for _, payload := range payloads {
		buf = append(buf, payload...)
	}
	if len(buf) > totalBit {
		buf = buf[:totalBit]
	}
	return string(buf)
}
