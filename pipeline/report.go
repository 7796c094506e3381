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

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/zilliztech/dnastore/common/logger"
	"github.com/zilliztech/dnastore/common/werr"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Report is the JSON document written next to a decoded file.
type Report struct {
	RunID    string      `json:"runId"`
	Scheme   string      `json:"scheme"`
	Input    string      `json:"input"`
	Output   string      `json:"output"`
	Finished time.Time   `json:"finished"`
	Stats    DecodeStats `json:"stats"`
}

// ReadReport loads a report written by a decode run.
func ReadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, werr.ErrFileIO.WithCauseErr(errors.Wrapf(err, "read %s", path))
	}
	r := &Report{}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, werr.ErrDecoding.WithCauseErr(errors.Wrapf(err, "parse report %s", path))
	}
	return r, nil
}

func (d *Decoder) report(ctx context.Context) error {
	base, _ := splitName(d.inputPath)
	path := filepath.Join(d.outputDir, base+"_decode.report.json")
	data, err := json.MarshalIndent(Report{
		RunID:    d.runID,
		Scheme:   d.schemeName,
		Input:    d.inputPath,
		Output:   d.outputPath,
		Finished: time.Now(),
		Stats:    d.stats,
	}, "", "  ")
	if err != nil {
		return werr.ErrInternalError.WithCauseErr(errors.Wrap(err, "marshal decode report"))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return werr.ErrFileIO.WithCauseErr(errors.Wrapf(err, "write %s", path))
	}
	d.reportPath = path
	logger.Ctx(ctx).Debug("decode report written", zap.String("report", path))
	return nil
}
