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
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/zilliztech/dnastore/common/werr"
)

const (
	// goldmanThreshold is the largest five digit code; anything above it starts a six digit code.
	goldmanThreshold = "22201"
	goldmanOffset    = 472
	goldmanShortMax  = 235
)

var rotation = map[byte]string{
	'A': "CGT",
	'C': "GTA",
	'G': "TAC",
	'T': "ACG",
}

// GoldmanEncoding is the result of encoding a whole file with Goldman.
type GoldmanEncoding struct {
	IndexLength int
	AddLen      int
	Sequences   []string
}

// GoldmanDecoding is the recovered file plus what assembly had to do.
type GoldmanDecoding struct {
	Data           []byte
	SegmentNum     int
	ErrIndexs      []int
	RepairedIndexs []int
	MissIndexs     []int
	// Malformed counts reads dropped because a base broke the rotation.
	Malformed      int
}

// GoldmanScheme shards a ternary rendering of the file into overlapping
// quarters and writes it with the rotating alphabet, so no base repeats.
type GoldmanScheme struct{}

func NewGoldman() *GoldmanScheme {
	return &GoldmanScheme{}
}

func (g *GoldmanScheme) Name() string {
	return Goldman
}

// ByteToTernary renders one byte with the five/six digit code.
func ByteToTernary(v byte) string {
	if v <= goldmanShortMax {
		return padTernary(int(v), 5)
	}
	return padTernary(int(v)+goldmanOffset, 6)
}

// TernaryToBytes reads codes until fewer than five digits remain.
func TernaryToBytes(digits string) ([]byte, error) {
	out := make([]byte, 0, len(digits)/5)
	for start := 0; len(digits)-start >= 5; {
		step := 5
		if digits[start:start+5] > goldmanThreshold {
			step = 6
		}
		if start+step > len(digits) {
			break
		}
		v, err := strconv.ParseInt(digits[start:start+step], 3, 32)
		if err != nil {
			return nil, werr.ErrDecoding.WithCauseErrMsg(fmt.Sprintf("invalid ternary code %q", digits[start:start+step]))
		}
		if step == 6 {
			v -= goldmanOffset
		}
		if v < 0 || v > 255 {
			return nil, werr.ErrDecoding.WithCauseErrMsg(fmt.Sprintf("ternary code %q is not a byte", digits[start:start+step]))
		}
		out = append(out, byte(v))
		start += step
	}
	return out, nil
}

func padTernary(v int, width int) string {
	s := strconv.FormatInt(int64(v), 3)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// Rotate writes ternary digits as bases, starting from a virtual A.
func Rotate(digits string) (string, error) {
	out := make([]byte, len(digits))
	last := byte('A')
	for i := 0; i < len(digits); i++ {
		d := digits[i] - '0'
		if d > 2 {
			return "", werr.ErrInternalError.WithCauseErrMsg(fmt.Sprintf("invalid ternary digit %q", digits[i]))
		}
		last = rotation[last][d]
		out[i] = last
	}
	return string(out), nil
}

// Unrotate reads bases back into ternary digits. A base outside the alphabet
// is a decoding error; a base that breaks the rotation marks the read as lost.
func Unrotate(bases string) (string, error) {
	digits, at := unrotate(bases)
	if at < 0 {
		return digits, nil
	}
	if _, ok := rotation[upper(bases[at])]; !ok {
		return "", werr.ErrDecoding.WithCauseErrMsg(fmt.Sprintf("unexpected base %q at %d", bases[at], at))
	}
	last := byte('A')
	if at > 0 {
		last = upper(bases[at-1])
	}
	return "", werr.ErrMissingSegment.WithCauseErrMsg(fmt.Sprintf("base %q cannot follow %q at %d", bases[at], last, at))
}

// unrotate returns the digits read before the first base that breaks the
// rotation, and that base's position or -1.
func unrotate(bases string) (string, int) {
	out := make([]byte, 0, len(bases))
	last := byte('A')
	for i := 0; i < len(bases); i++ {
		b := upper(bases[i])
		d := strings.IndexByte(rotation[last], b)
		if d < 0 {
			return string(out), i
		}
		out = append(out, '0'+byte(d))
		last = b
	}
	return string(out), -1
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// ternaryWidth is the number of ternary digits needed to count n values.
func ternaryWidth(n int) int {
	width, capacity := 1, 3
	for capacity < n {
		width++
		capacity *= 3
	}
	return width
}

// Encode renders data as Goldman sequences of at most sequenceLength bases.
func (g *GoldmanScheme) Encode(data []byte, sequenceLength int) (*GoldmanEncoding, error) {
	var sb strings.Builder
	for _, b := range data {
		sb.WriteString(ByteToTernary(b))
	}
	stream := sb.String()

	indexLength, quarter, count := 1, 0, 0
	for {
		quarter = (sequenceLength - indexLength) / 4
		if quarter <= 0 {
			return nil, werr.ErrConfiguration.WithCauseErrMsg(
				fmt.Sprintf("sequence length %d leaves no room for a goldman payload", sequenceLength))
		}
		count = ceilDiv(len(stream), quarter) - 3
		if count < 1 {
			count = 1
		}
		need := ternaryWidth(count)
		if need <= indexLength {
			break
		}
		indexLength = need
	}

	addLen := (count+3)*quarter - len(stream)
	stream += strings.Repeat("0", addLen)

	enc := &GoldmanEncoding{IndexLength: indexLength, AddLen: addLen, Sequences: make([]string, count)}
	for i := 0; i < count; i++ {
		digits := padTernary(i, indexLength) + stream[i*quarter:(i+4)*quarter]
		bases, err := Rotate(digits)
		if err != nil {
			return nil, err
		}
		enc.Sequences[i] = bases
	}
	return enc, nil
}

type goldmanSegment struct {
	index   int
	payload string
}

// Decode assembles sequences back into bytes. Complete, unique indices use the
// plain overlap rule; otherwise every quarter is voted among its copies. Reads
// that break the rotation are dropped and left to the vote.
func (g *GoldmanScheme) Decode(sequences []string, indexLength, addLen int) (*GoldmanDecoding, error) {
	if indexLength <= 0 || addLen < 0 {
		return nil, werr.ErrDecoding.WithCauseErrMsg(fmt.Sprintf("invalid goldman header indexLen:%d addLen:%d", indexLength, addLen))
	}
	res := &GoldmanDecoding{}
	segments := make([]goldmanSegment, 0, len(sequences))
	for _, seq := range sequences {
		digits, err := Unrotate(seq)
		if err != nil {
			if werr.IsFatal(err) {
				return nil, err
			}
			// the read is dropped; its index is still known when the break came after it
			res.Malformed++
			if prefix, _ := unrotate(seq); len(prefix) >= indexLength {
				if idx, err := strconv.ParseInt(prefix[:indexLength], 3, 64); err == nil {
					res.ErrIndexs = append(res.ErrIndexs, int(idx))
				}
			}
			continue
		}
		if len(digits) <= indexLength {
			continue
		}
		idx, err := strconv.ParseInt(digits[:indexLength], 3, 64)
		if err != nil {
			continue
		}
		segments = append(segments, goldmanSegment{index: int(idx), payload: digits[indexLength:]})
	}
	if len(segments) == 0 {
		return nil, werr.ErrDecoding.WithCauseErrMsg("no goldman sequence to decode")
	}

	var assembled string
	if len(res.ErrIndexs) == 0 && exact(segments) {
		assembled = concatenate(segments)
		res.SegmentNum = len(segments)
	} else {
		assembled = vote(segments, res)
	}
	res.ErrIndexs = lo.Uniq(res.ErrIndexs)
	sort.Ints(res.ErrIndexs)

	if addLen > 0 && len(assembled) >= addLen && strings.Trim(assembled[len(assembled)-addLen:], "0") != "" {
		// the padding carries data, so the stream lost its last quarter with the last sequence
		quarter := majorityInt(lo.Map(segments, func(s goldmanSegment, _ int) int { return len(s.payload) })) / 4
		res.MissIndexs = append(res.MissIndexs, res.SegmentNum)
		res.SegmentNum++
		assembled += strings.Repeat("0", quarter)
	}
	if addLen > 0 {
		if addLen > len(assembled) {
			addLen = len(assembled)
		}
		assembled = assembled[:len(assembled)-addLen]
	}
	data, err := TernaryToBytes(assembled)
	if err != nil {
		return nil, err
	}
	res.Data = data
	return res, nil
}

// exact reports whether the indices are exactly 0..n-1 and payloads share a length.
func exact(segments []goldmanSegment) bool {
	seen := make(map[int]bool, len(segments))
	for _, s := range segments {
		if s.index >= len(segments) || seen[s.index] || len(s.payload) != len(segments[0].payload) {
			return false
		}
		seen[s.index] = true
	}
	return true
}

func concatenate(segments []goldmanSegment) string {
	ordered := append([]goldmanSegment{}, segments...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].index < ordered[j].index })
	var sb strings.Builder
	sb.WriteString(ordered[0].payload)
	keep := len(ordered[0].payload) / 4
	for _, s := range ordered[1:] {
		sb.WriteString(s.payload[len(s.payload)-keep:])
	}
	return sb.String()
}

// vote rebuilds the stream quarter by quarter from every copy that covers it.
func vote(segments []goldmanSegment, res *GoldmanDecoding) string {
	lengths := lo.Map(segments, func(s goldmanSegment, _ int) int { return len(s.payload) })
	payloadLen := majorityInt(lengths)
	quarter := payloadLen / 4

	count := 0
	byIndex := make(map[int][]string)
	for _, s := range segments {
		if len(s.payload) != payloadLen || quarter == 0 {
			continue
		}
		byIndex[s.index] = append(byIndex[s.index], s.payload)
		if s.index+1 > count {
			count = s.index + 1
		}
	}
	res.SegmentNum = count

	chosen := make(map[int]string, len(byIndex))
	for idx, payloads := range byIndex {
		chosen[idx] = majorityString(payloads)
		if len(lo.Uniq(payloads)) > 1 {
			res.ErrIndexs = append(res.ErrIndexs, idx)
		}
	}

	var sb strings.Builder
	uncovered := make(map[int]bool)
	for k := 0; k < count+3; k++ {
		var copies []string
		preferred := ""
		for i := k - 3; i <= k; i++ {
			payload, ok := chosen[i]
			if !ok || i < 0 {
				continue
			}
			part := payload[(k-i)*quarter : (k-i+1)*quarter]
			copies = append(copies, part)
			if (k < 4 && i == 0) || (k >= 4 && i == k-3) {
				preferred = part
			}
		}
		if len(copies) == 0 {
			sb.WriteString(strings.Repeat("0", quarter))
			uncovered[k] = true
			continue
		}
		sb.WriteString(majorityPreferring(copies, preferred))
	}

	for i := 0; i < count; i++ {
		if _, ok := chosen[i]; ok {
			continue
		}
		lost := lo.Contains(lo.Times(4, func(j int) bool { return uncovered[i+j] }), true)
		if lost {
			res.MissIndexs = append(res.MissIndexs, i)
		} else {
			res.RepairedIndexs = append(res.RepairedIndexs, i)
		}
	}
	return sb.String()
}

func majorityInt(values []int) int {
	counts := lo.GroupBy(values, func(v int) int { return v })
	best, bestCount := 0, 0
	for _, v := range values {
		if n := len(counts[v]); n > bestCount {
			best, bestCount = v, n
		}
	}
	return best
}

func majorityString(values []string) string {
	return majorityPreferring(values, "")
}

// majorityPreferring picks the most frequent value; ties go to preferred, then first seen.
func majorityPreferring(values []string, preferred string) string {
	counts := lo.GroupBy(values, func(v string) string { return v })
	best, bestCount := "", 0
	for _, v := range values {
		n := len(counts[v])
		if n > bestCount || (n == bestCount && v == preferred && v != best) {
			best, bestCount = v, n
		}
	}
	return best
}
