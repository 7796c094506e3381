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

// Package segment splits a bit string into indexed fixed-width segments and
// rebuilds it from whatever segments survive.
package segment

import (
	"fmt"

	"github.com/zilliztech/dnastore/codec/fec"
	"github.com/zilliztech/dnastore/common/bitstr"
	"github.com/zilliztech/dnastore/common/werr"
)

const (
	// StripeData is the number of data segments protected by one parity stripe.
	StripeData = 16
	// StripeParity is the number of parity segments added per stripe.
	StripeParity = 4

	maxPlanIterations = 64
)

// Layout describes how a scheme packs bits into bases.
type Layout struct {
	BitsPerBase     int
	IndexRedundancy int
	IndexAlign      int
}

// Params are the sizing inputs of a segment plan.
type Params struct {
	SequenceLength int
	PrimerLength   int
	AddPrimer      bool
	RSNum          int
	AddRedundancy  bool
}

// Plan is the segment geometry shared by the encoder and the decoder.
type Plan struct {
	TotalBit      int
	IndexLength   int
	BinSplitLen   int
	DataNum       int
	SeqNum        int
	RSNum         int
	RSGroup       int
	AddRedundancy bool
}

// PayloadBases is the number of bases left for index, payload and parity.
func (p Params) PayloadBases() int {
	if p.AddPrimer {
		return p.SequenceLength - 2*p.PrimerLength
	}
	return p.SequenceLength
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func align(v, to int) int {
	if to <= 1 {
		return v
	}
	return ceilDiv(v, to) * to
}

// SeqNumFor is the total segment count for dataNum data segments.
func SeqNumFor(dataNum int, addRedundancy bool) int {
	if !addRedundancy {
		return dataNum
	}
	return dataNum + StripeParity*ceilDiv(dataNum, StripeData)
}

// IndexLengthFor is the index width needed to address seqNum segments.
func IndexLengthFor(seqNum int, layout Layout) int {
	width := bitstr.BitLen(seqNum - 1)
	if width < 1 {
		width = 1
	}
	return align(width+layout.IndexRedundancy, layout.IndexAlign)
}

func dataNumFor(totalBit, binSplitLen int) int {
	n := ceilDiv(totalBit, binSplitLen)
	if n < 1 {
		return 1
	}
	return n
}

// fitPayload returns the largest multiple of 8 that fits next to the index and parity.
func fitPayload(capacity, indexLength, rsNum int) int {
	bin := (capacity - indexLength - 8*rsNum) / 8 * 8
	for ; bin > 0; bin -= 8 {
		if rsNum == 0 {
			return bin
		}
		ori := indexLength + bin
		if ori+8*rsNum*fec.GroupCount(ori, rsNum) <= capacity {
			return bin
		}
	}
	return 0
}

// NewPlan sizes segments for totalBit bits so that every encoded segment fits one sequence.
func NewPlan(totalBit int, layout Layout, params Params) (*Plan, error) {
	if totalBit < 0 {
		return nil, werr.ErrConfiguration.WithCauseErrMsg(fmt.Sprintf("negative bit count %d", totalBit))
	}
	if layout.BitsPerBase <= 0 {
		return nil, werr.ErrConfiguration.WithCauseErrMsg("bits per base must be positive")
	}
	capacity := params.PayloadBases() * layout.BitsPerBase
	indexLength := IndexLengthFor(1, layout)
	for i := 0; i < maxPlanIterations; i++ {
		bin := fitPayload(capacity, indexLength, params.RSNum)
		if bin <= 0 {
			return nil, werr.ErrConfiguration.WithCauseErrMsg(
				fmt.Sprintf("sequence of %d bases cannot hold a %d bit index and %d rs bytes", params.PayloadBases(), indexLength, params.RSNum))
		}
		dataNum := dataNumFor(totalBit, bin)
		seqNum := SeqNumFor(dataNum, params.AddRedundancy)
		need := IndexLengthFor(seqNum, layout)
		if need <= indexLength {
			return newPlan(totalBit, need, bin, dataNum, seqNum, params.RSNum, params.AddRedundancy), nil
		}
		indexLength = need
	}
	return nil, werr.ErrInternalError.WithCauseErrMsg("segment plan did not converge")
}

// PlanFromHeader rebuilds the plan the encoder used from the header values.
func PlanFromHeader(totalBit, binSplitLen, rsNum int, addRedundancy bool, layout Layout) (*Plan, error) {
	if totalBit < 0 || binSplitLen <= 0 || binSplitLen%8 != 0 {
		return nil, werr.ErrDecoding.WithCauseErrMsg(fmt.Sprintf("invalid header sizes totalBit:%d binSegLen:%d", totalBit, binSplitLen))
	}
	if rsNum < 0 || rsNum >= fec.MaxBlockBytes {
		return nil, werr.ErrDecoding.WithCauseErrMsg(fmt.Sprintf("invalid header RSNum:%d", rsNum))
	}
	dataNum := dataNumFor(totalBit, binSplitLen)
	seqNum := SeqNumFor(dataNum, addRedundancy)
	return newPlan(totalBit, IndexLengthFor(seqNum, layout), binSplitLen, dataNum, seqNum, rsNum, addRedundancy), nil
}

func newPlan(totalBit, indexLength, bin, dataNum, seqNum, rsNum int, addRedundancy bool) *Plan {
	p := &Plan{
		TotalBit:      totalBit,
		IndexLength:   indexLength,
		BinSplitLen:   bin,
		DataNum:       dataNum,
		SeqNum:        seqNum,
		RSNum:         rsNum,
		AddRedundancy: addRedundancy,
		RSGroup:       1,
	}
	if rsNum > 0 {
		p.RSGroup = fec.GroupCount(p.OriLen(), rsNum)
	}
	return p
}

// OriLen is the length of a segment before parity: index plus payload.
func (p *Plan) OriLen() int {
	return p.IndexLength + p.BinSplitLen
}

// EncodedLen is the length of a segment after parity.
func (p *Plan) EncodedLen() int {
	return p.OriLen() + 8*p.RSNum*p.RSGroup
}
