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

// Package format reads and writes the encoded file: one header line of
// key:value pairs followed by ">seq_N" records, one base sequence each.
package format

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/zilliztech/dnastore/common/werr"
)

const (
	KeyTotalBit      = "totalBit"
	KeyBinSegLen     = "binSegLen"
	KeyLeftPrimer    = "leftPrimer"
	KeyRightPrimer   = "rightPrimer"
	KeyFileExtension = "fileExtension"
	KeyRedundancy    = "bRedundancy"
	KeyRSNum         = "RSNum"
	KeyIndexLen      = "indexLen"
	KeyAddLen        = "addLen"
)

var (
	// SegmentKeys is the header key set of the segment based schemes, in write order.
	SegmentKeys = []string{KeyTotalBit, KeyBinSegLen, KeyLeftPrimer, KeyRightPrimer, KeyFileExtension, KeyRedundancy, KeyRSNum}
	// GoldmanKeys is the header key set of Goldman, in write order.
	GoldmanKeys = []string{KeyIndexLen, KeyAddLen, KeyFileExtension}
)

// FormatHeader renders values in key order as ">k1:v1,k2:v2".
func FormatHeader(keys []string, values map[string]string) string {
	fields := lo.Map(keys, func(k string, _ int) string { return k + ":" + values[k] })
	return ">" + strings.Join(fields, ",")
}

// ParseHeader splits a header line and checks its key set is exactly expected.
func ParseHeader(line string, expected []string) (map[string]string, error) {
	body := strings.Trim(strings.TrimSpace(line), ">;")
	values := make(map[string]string)
	if body != "" {
		for _, field := range strings.Split(body, ",") {
			k, v, ok := strings.Cut(field, ":")
			if !ok {
				return nil, werr.ErrDecoding.WithCauseErrMsg(fmt.Sprintf("malformed header field %q", field))
			}
			values[k] = v
		}
	}
	got := lo.Keys(values)
	extra := lo.Filter(got, func(k string, _ int) bool { return !lo.Contains(expected, k) })
	missing := lo.Filter(expected, func(k string, _ int) bool { _, ok := values[k]; return !ok })
	if len(extra) > 0 || len(missing) > 0 {
		sort.Strings(extra)
		return nil, werr.ErrHeaderMismatch.WithCauseErrMsg(
			fmt.Sprintf("unexpected keys %v, missing keys %v", extra, missing))
	}
	return values, nil
}

// SegmentHeader is the header of church and wukong files.
type SegmentHeader struct {
	TotalBit      int
	BinSegLen     int
	LeftPrimer    string
	RightPrimer   string
	FileExtension string
	Redundancy    bool
	RSNum         int
}

func (h SegmentHeader) String() string {
	return FormatHeader(SegmentKeys, map[string]string{
		KeyTotalBit:      strconv.Itoa(h.TotalBit),
		KeyBinSegLen:     strconv.Itoa(h.BinSegLen),
		KeyLeftPrimer:    h.LeftPrimer,
		KeyRightPrimer:   h.RightPrimer,
		KeyFileExtension: h.FileExtension,
		KeyRedundancy:    boolFlag(h.Redundancy),
		KeyRSNum:         strconv.Itoa(h.RSNum),
	})
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func ParseSegmentHeader(line string) (*SegmentHeader, error) {
	values, err := ParseHeader(line, SegmentKeys)
	if err != nil {
		return nil, err
	}
	h := &SegmentHeader{
		LeftPrimer:    values[KeyLeftPrimer],
		RightPrimer:   values[KeyRightPrimer],
		FileExtension: values[KeyFileExtension],
	}
	var redundancy int
	for key, dst := range map[string]*int{
		KeyTotalBit:   &h.TotalBit,
		KeyBinSegLen:  &h.BinSegLen,
		KeyRedundancy: &redundancy,
		KeyRSNum:      &h.RSNum,
	} {
		if *dst, err = atoi(values, key); err != nil {
			return nil, err
		}
	}
	h.Redundancy = redundancy != 0
	return h, nil
}

// GoldmanHeader is the header of goldman files.
type GoldmanHeader struct {
	IndexLen      int
	AddLen        int
	FileExtension string
}

func (h GoldmanHeader) String() string {
	return FormatHeader(GoldmanKeys, map[string]string{
		KeyIndexLen:      strconv.Itoa(h.IndexLen),
		KeyAddLen:        strconv.Itoa(h.AddLen),
		KeyFileExtension: h.FileExtension,
	})
}

func ParseGoldmanHeader(line string) (*GoldmanHeader, error) {
	values, err := ParseHeader(line, GoldmanKeys)
	if err != nil {
		return nil, err
	}
	h := &GoldmanHeader{FileExtension: values[KeyFileExtension]}
	if h.IndexLen, err = atoi(values, KeyIndexLen); err != nil {
		return nil, err
	}
	if h.AddLen, err = atoi(values, KeyAddLen); err != nil {
		return nil, err
	}
	return h, nil
}

func atoi(values map[string]string, key string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(values[key]))
	if err != nil {
		return 0, werr.ErrDecoding.WithCauseErrMsg(fmt.Sprintf("header field %s=%q is not an integer", key, values[key]))
	}
	return v, nil
}
