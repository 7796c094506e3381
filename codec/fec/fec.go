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

// Package fec appends and checks grouped Reed-Solomon parity on bit segments.
package fec

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"storj.io/infectious"

	"github.com/zilliztech/dnastore/common/bitstr"
	"github.com/zilliztech/dnastore/common/werr"
)

// MaxBlockBytes is the largest Reed-Solomon block over GF(2^8), data plus parity.
const MaxBlockBytes = 255

// Codec adds and removes check bytes per parity group.
// It caches one infectious.FEC per block geometry and is not safe for concurrent use.
type Codec struct {
	checkBytes int
	fecs       map[[2]int]*infectious.FEC
}

// Outcome is the result of removing parity from one segment.
type Outcome struct {
	Data    string
	Success bool
}

// Result is the result of removing parity from a batch of segments.
type Result struct {
	Segments    []string
	ErrRate     float64
	ErrIndices  []int
	ErrSegments []string
}

func NewCodec(checkBytes int) (*Codec, error) {
	if checkBytes <= 0 || checkBytes >= MaxBlockBytes {
		return nil, werr.ErrConfiguration.WithCauseErrMsg(fmt.Sprintf("rs check bytes:%d must be in [1, %d)", checkBytes, MaxBlockBytes))
	}
	return &Codec{
		checkBytes: checkBytes,
		fecs:       make(map[[2]int]*infectious.FEC),
	}, nil
}

// GroupCount is the number of parity groups that keeps every group of a
// segment of oriBits bits inside one Reed-Solomon block.
func GroupCount(oriBits int, checkBytes int) int {
	if checkBytes <= 0 || checkBytes >= MaxBlockBytes {
		return 1
	}
	dataBytes := (oriBits + 7) / 8
	perGroup := MaxBlockBytes - checkBytes
	group := (dataBytes + perGroup - 1) / perGroup
	if group < 1 {
		return 1
	}
	return group
}

// normalizeGroup collapses an unusable group count to a single group.
func normalizeGroup(group int, dataBytes int) int {
	if group <= 1 || dataBytes <= 0 || group > dataBytes {
		return 1
	}
	size := (dataBytes + group - 1) / group
	if size*(group-1) >= dataBytes {
		// the last group would be empty
		return 1
	}
	return group
}

func (c *Codec) fec(k, n int) (*infectious.FEC, error) {
	key := [2]int{k, n}
	if f, ok := c.fecs[key]; ok {
		return f, nil
	}
	f, err := infectious.NewFEC(k, n)
	if err != nil {
		return nil, err
	}
	c.fecs[key] = f
	return f, nil
}

// AddParity appends checkBytes parity bytes to each of group partitions of bits.
func (c *Codec) AddParity(bits string, group int) (string, error) {
	padded, pad := bitstr.LeftPad(bits)
	data, err := bitstr.ToBytes(padded)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", werr.ErrConfiguration.WithCauseErrMsg("cannot add parity to an empty segment")
	}
	group = normalizeGroup(group, len(data))
	size := (len(data) + group - 1) / group

	out := make([]byte, 0, len(data)+group*c.checkBytes)
	for start := 0; start < len(data); start += size {
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		encoded, err := c.encodeBlock(data[start:end])
		if err != nil {
			return "", err
		}
		out = append(out, encoded...)
	}
	return bitstr.FromBytes(out)[pad:], nil
}

func (c *Codec) encodeBlock(block []byte) ([]byte, error) {
	k := len(block)
	n := k + c.checkBytes
	if n > MaxBlockBytes {
		return nil, werr.ErrConfiguration.WithCauseErrMsg(fmt.Sprintf("rs group of %d bytes exceeds block size %d", n, MaxBlockBytes))
	}
	f, err := c.fec(k, n)
	if err != nil {
		return nil, errors.Wrap(err, "create fec")
	}
	out := make([]byte, n)
	err = f.Encode(block, func(s infectious.Share) {
		out[s.Number] = s.Data[0]
	})
	if err != nil {
		return nil, errors.Wrap(err, "rs encode")
	}
	return out, nil
}

// RemoveParity checks and strips the parity added by AddParity with the same group.
// Any uncorrectable group fails the whole segment and returns the input unchanged.
func (c *Codec) RemoveParity(bits string, group int) Outcome {
	failed := Outcome{Data: bits, Success: false}
	padded, pad := bitstr.LeftPad(bits)
	data, err := bitstr.ToBytes(padded)
	if err != nil {
		return failed
	}

	dataBytes := len(data) - group*c.checkBytes
	if group < 1 || normalizeGroup(group, dataBytes) != group {
		group = 1
		dataBytes = len(data) - c.checkBytes
	}
	if dataBytes <= 0 {
		return failed
	}
	size := (dataBytes+group-1)/group + c.checkBytes

	out := make([]byte, 0, dataBytes)
	for start := 0; start < len(data); start += size {
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		decoded, err := c.decodeBlock(data[start:end])
		if err != nil {
			return failed
		}
		out = append(out, decoded...)
	}
	if len(out) != dataBytes {
		return failed
	}
	return Outcome{Data: bitstr.FromBytes(out)[pad:], Success: true}
}

func (c *Codec) decodeBlock(block []byte) ([]byte, error) {
	n := len(block)
	k := n - c.checkBytes
	if k <= 0 || n > MaxBlockBytes {
		return nil, werr.ErrUncorrectableBlock.WithCauseErrMsg(fmt.Sprintf("block of %d bytes is shorter than its parity", n))
	}
	f, err := c.fec(k, n)
	if err != nil {
		return nil, err
	}
	shares := make([]infectious.Share, n)
	for i, b := range block {
		shares[i] = infectious.Share{Number: i, Data: []byte{b}}
	}
	decoded, err := f.Decode(nil, shares)
	if err != nil {
		return nil, werr.ErrUncorrectableBlock.WithCauseErr(err)
	}
	return decoded, nil
}

// Remove strips parity from every segment. Empty strings mark segments that
// were never received and count as failures without a decode attempt.
// Successful segments keep their trailing oriLen bits.
func (c *Codec) Remove(segments []string, oriLen int, group int) (*Result, error) {
	if len(segments) == 0 {
		return nil, werr.ErrInternalError.WithCauseErrMsg("remove parity from an empty batch")
	}
	res := &Result{
		Segments: make([]string, 0, len(segments)),
	}
	for i, seg := range segments {
		if seg == "" {
			res.ErrIndices = append(res.ErrIndices, i)
			res.ErrSegments = append(res.ErrSegments, "")
			continue
		}
		outcome := c.RemoveParity(seg, group)
		if outcome.Success && len(outcome.Data) >= oriLen {
			res.Segments = append(res.Segments, outcome.Data[len(outcome.Data)-oriLen:])
			continue
		}
		res.ErrIndices = append(res.ErrIndices, i)
		res.ErrSegments = append(res.ErrSegments, outcome.Data)
	}
	res.ErrRate = float64(len(res.ErrIndices)) / float64(len(segments))
	return res, nil
}

// Add appends parity to every segment.
func (c *Codec) Add(segments []string, group int) ([]string, error) {
	if len(segments) == 0 {
		return nil, werr.ErrInternalError.WithCauseErrMsg("add parity to an empty batch")
	}
	out := make([]string, len(segments))
	for i, seg := range segments {
		encoded, err := c.AddParity(seg, group)
		if err != nil {
			return nil, errors.Wrapf(err, "segment %d", i)
		}
		out[i] = encoded
	}
	return out, nil
}
