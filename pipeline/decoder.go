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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/zilliztech/dnastore/codec/fec"
	"github.com/zilliztech/dnastore/codec/format"
	"github.com/zilliztech/dnastore/codec/primer"
	"github.com/zilliztech/dnastore/codec/scheme"
	"github.com/zilliztech/dnastore/codec/segment"
	"github.com/zilliztech/dnastore/common/bitstr"
	"github.com/zilliztech/dnastore/common/logger"
	"github.com/zilliztech/dnastore/common/metrics"
	"github.com/zilliztech/dnastore/common/tracer"
	"github.com/zilliztech/dnastore/common/werr"
)

// DecodeStats tells a caller how much of the output can be trusted.
type DecodeStats struct {
	RsErrRate         float64       `json:"rsErrRate"`
	RsErrIndexs       []int         `json:"rsErrIndexs"`
	RepairedRate      float64       `json:"repairedRate"`
	RepairedIndexs    []int         `json:"repairedIndexs"`
	MissErrRate       float64       `json:"missErrRate"`
	MissErrIndexs     []int         `json:"missErrIndexs"`
	TotalSegments     int           `json:"totalSegments"`
	ReceivedSegments  int           `json:"receivedSegments"`
	// MalformedSegments counts reads dropped because their length or base order cannot be decoded.
	MalformedSegments int           `json:"malformedSegments"`
	VirtualSegments   int           `json:"virtualSegments"`
	Duration          time.Duration `json:"duration"`
}

type DecoderOption func(*Decoder)

// WithRuleNum selects the wukong rule set the file was written with.
func WithRuleNum(n int) DecoderOption {
	return func(d *Decoder) {
		d.ruleNum = n
	}
}

// WithReport writes a JSON report next to the decoded file.
func WithReport(enabled bool) DecoderOption {
	return func(d *Decoder) {
		d.writeReport = enabled
	}
}

func WithDecodeWorkers(n int) DecoderOption {
	return func(d *Decoder) {
		d.workers = n
	}
}

// Decoder turns an encoded sequence file back into the original file.
type Decoder struct {
	inputPath   string
	outputDir   string
	schemeName  string
	ruleNum     int
	writeReport bool
	workers     int

	runID      string
	outputPath string
	reportPath string
	stats      DecodeStats
}

func NewDecoder(inputPath, outputDir, schemeName string, opts ...DecoderOption) (*Decoder, error) {
	if err := checkOutputDir(outputDir); err != nil {
		return nil, err
	}
	if err := checkScheme(schemeName); err != nil {
		return nil, err
	}
	d := &Decoder{
		inputPath:  inputPath,
		outputDir:  outputDir,
		schemeName: schemeName,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.ruleNum < 0 || d.ruleNum > scheme.RulesCount {
		return nil, werr.ErrConfiguration.WithCauseErrMsg(fmt.Sprintf("rule num %d must be within [0, %d]", d.ruleNum, scheme.RulesCount))
	}
	return d, nil
}

func (d *Decoder) Stats() DecodeStats {
	return d.stats
}

// ReportPath is where the JSON report went, empty when none was written.
func (d *Decoder) ReportPath() string {
	return d.reportPath
}

// Run decodes the input and returns the path of the restored file. Segment
// level losses never fail the run; they show up in Stats.
func (d *Decoder) Run(ctx context.Context) (string, error) {
	ctx = logger.WithRunID(ctx, "decode")
	d.runID = logger.RunID(ctx)
	ctx, sp := tracer.StartStage(ctx, "Decode", attribute.String("scheme", d.schemeName))
	defer sp.End()
	start := time.Now()

	reader, err := format.Open(d.inputPath)
	if err != nil {
		return "", d.fail(ctx, start, err)
	}
	defer reader.Close()

	if d.schemeName == scheme.Goldman {
		err = d.runGoldman(ctx, reader)
	} else {
		err = d.runSegments(ctx, reader)
	}
	if err != nil {
		sp.RecordError(err)
		return "", d.fail(ctx, start, err)
	}
	d.stats.Duration = time.Since(start)

	if d.writeReport {
		if err := d.report(ctx); err != nil {
			return "", d.fail(ctx, start, err)
		}
	}
	d.observe("success")
	logger.Ctx(ctx).Info("decode finished",
		zap.String("output", d.outputPath),
		zap.Float64("rsErrRate", d.stats.RsErrRate),
		zap.Float64("repairedRate", d.stats.RepairedRate),
		zap.Float64("missErrRate", d.stats.MissErrRate),
		zap.Ints("missErrIndexs", d.stats.MissErrIndexs),
		zap.Duration("duration", d.stats.Duration))
	return d.outputPath, nil
}

func (d *Decoder) fail(ctx context.Context, start time.Time, err error) error {
	d.stats.Duration = time.Since(start)
	logger.Ctx(ctx).Warn("decode failed", zap.String("input", d.inputPath), zap.String("scheme", d.schemeName), zap.Error(err))
	d.observe("error")
	return err
}

func (d *Decoder) observe(status string) {
	if !metrics.Registered() {
		return
	}
	metrics.DnaDecodeRunsTotal.WithLabelValues(d.schemeName, status).Inc()
	metrics.DnaDecodeLatency.WithLabelValues(d.schemeName).Observe(float64(d.stats.Duration.Milliseconds()))
	if status != "success" {
		return
	}
	metrics.DnaDecodeSegmentsTotal.WithLabelValues(d.schemeName).Add(float64(d.stats.ReceivedSegments))
	metrics.DnaDecodeRsFailedTotal.WithLabelValues(d.schemeName).Add(float64(len(d.stats.RsErrIndexs)))
	metrics.DnaDecodeRepairedTotal.WithLabelValues(d.schemeName).Add(float64(len(d.stats.RepairedIndexs)))
	metrics.DnaDecodeMissingTotal.WithLabelValues(d.schemeName).Add(float64(len(d.stats.MissErrIndexs)))
	metrics.DnaDecodeErrorRateGauges.WithLabelValues(d.schemeName, "rs_err").Set(d.stats.RsErrRate)
	metrics.DnaDecodeErrorRateGauges.WithLabelValues(d.schemeName, "repaired").Set(d.stats.RepairedRate)
	metrics.DnaDecodeErrorRateGauges.WithLabelValues(d.schemeName, "miss_err").Set(d.stats.MissErrRate)
}

func (d *Decoder) setOutputPath(ext string) {
	base, _ := splitName(d.inputPath)
	d.outputPath = filepath.Join(d.outputDir, base+"_decode"+ext)
}

func (d *Decoder) runSegments(ctx context.Context, reader *format.Reader) error {
	header, err := format.ParseSegmentHeader(reader.Header())
	if err != nil {
		return err
	}
	// sequence limits are an encode concern, decoding only needs the rule set
	sch, err := scheme.NewSegmentScheme(d.schemeName, scheme.Constraints{MaxHomopolymer: 1, MaxGC: 1, RuleNum: d.ruleNum})
	if err != nil {
		return err
	}
	plan, err := segment.PlanFromHeader(header.TotalBit, header.BinSegLen, header.RSNum, header.Redundancy, sch.Layout())
	if err != nil {
		return err
	}
	d.setOutputPath(header.FileExtension)
	d.stats.TotalSegments = plan.SeqNum

	sequences, err := reader.Sequences()
	if err != nil {
		return err
	}
	d.stats.ReceivedSegments = len(sequences)
	leftLen, rightLen := len(header.LeftPrimer), len(header.RightPrimer)

	bitSegments, err := d.decodeSequences(ctx, sch, sequences, leftLen, rightLen, plan.IndexLength)
	if err != nil {
		return err
	}
	sorted := segment.SortByIndex(bitSegments, plan.IndexLength, plan.SeqNum)

	validated := sorted
	if header.RSNum > 0 {
		_, sp := tracer.StartStage(ctx, "RemoveParity", attribute.Int("rsNum", header.RSNum))
		validated, err = d.removeParity(sorted, plan)
		sp.End()
		if err != nil {
			return err
		}
	}

	repairCtx, sp := tracer.StartStage(ctx, "Repair")
	res := plan.Repair(validated)
	sp.End()
	d.stats.RepairedRate, d.stats.RepairedIndexs = res.RepairedRate, res.RepairedIndexs
	d.stats.MissErrRate, d.stats.MissErrIndexs = res.FailedRate, res.FailedIndexs
	if len(res.FailedIndexs) > 0 {
		logger.Ctx(repairCtx).Warn("segments could not be recovered, output is zero filled there",
			zap.Ints("missErrIndexs", res.FailedIndexs), zap.Error(werr.ErrMissingSegment))
	}

	_, sp = tracer.StartStage(ctx, "WriteOutput")
	defer sp.End()
	return bitstr.BinToFile(segment.Merge(res.Segments, plan.TotalBit), d.outputPath)
}

func (d *Decoder) decodeSequences(ctx context.Context, sch scheme.SegmentScheme, sequences []string, leftLen, rightLen, indexLength int) ([]string, error) {
	ctx, sp := tracer.StartStage(ctx, "DecodeBases", attribute.Int("sequences", len(sequences)))
	defer sp.End()
	out := make([]string, len(sequences))
	lost := make([]bool, len(sequences))
	virtual, err := runBatches(ctx, d.workers, len(sequences), func(i int) (bool, error) {
		bits, virtual, err := sch.Decode(primer.Strip(sequences[i], leftLen, rightLen), indexLength)
		if err != nil && !werr.IsFatal(err) {
			// left empty, sorting and repair treat it as never received
			lost[i] = true
			return false, nil
		}
		if err != nil {
			return false, errors.Wrapf(err, "sequence %d", i+1)
		}
		out[i] = bits
		return virtual, nil
	})
	if err != nil {
		return nil, err
	}
	d.stats.VirtualSegments += virtual
	d.recordMalformed(ctx, len(lo.Filter(lost, func(l bool, _ int) bool { return l })))
	return out, nil
}

func (d *Decoder) recordMalformed(ctx context.Context, n int) {
	d.stats.MalformedSegments = n
	if n > 0 {
		logger.Ctx(ctx).Warn("unreadable sequences were dropped", zap.Int("malformedSegments", n), zap.Error(werr.ErrMissingSegment))
	}
}

func (d *Decoder) removeParity(sorted []string, plan *segment.Plan) ([]string, error) {
	codec, err := fec.NewCodec(plan.RSNum)
	if err != nil {
		return nil, werr.ErrDecoding.WithCauseErr(err)
	}
	res, err := codec.Remove(sorted, plan.OriLen(), plan.RSGroup)
	if err != nil {
		return nil, err
	}
	d.stats.RsErrRate = res.ErrRate
	failed := make([]int, 0, len(res.ErrIndices))
	for _, i := range res.ErrIndices {
		if idx := bitstr.ParseIndex(sorted[i], plan.IndexLength); idx >= 0 && idx < plan.SeqNum {
			failed = append(failed, idx)
		}
	}
	d.stats.RsErrIndexs = lo.Uniq(failed)
	sort.Ints(d.stats.RsErrIndexs)
	return res.Segments, nil
}

func (d *Decoder) runGoldman(ctx context.Context, reader *format.Reader) error {
	header, err := format.ParseGoldmanHeader(reader.Header())
	if err != nil {
		return err
	}
	d.setOutputPath(header.FileExtension)
	sequences, err := reader.Sequences()
	if err != nil {
		return err
	}
	d.stats.ReceivedSegments = len(sequences)

	_, sp := tracer.StartStage(ctx, "DecodeBases", attribute.Int("sequences", len(sequences)))
	res, err := scheme.NewGoldman().Decode(sequences, header.IndexLen, header.AddLen)
	sp.End()
	if err != nil {
		return err
	}
	d.stats.TotalSegments = res.SegmentNum
	d.stats.RepairedIndexs, d.stats.MissErrIndexs = res.RepairedIndexs, res.MissIndexs
	if res.SegmentNum > 0 {
		d.stats.RepairedRate = float64(len(res.RepairedIndexs)) / float64(res.SegmentNum)
		d.stats.MissErrRate = float64(len(res.MissIndexs)) / float64(res.SegmentNum)
	}
	d.recordMalformed(ctx, res.Malformed)
	if len(res.ErrIndexs) > 0 {
		logger.Ctx(ctx).Info("unreadable or conflicting goldman copies were outvoted", zap.Ints("indexs", res.ErrIndexs))
	}

	_, sp = tracer.StartStage(ctx, "WriteOutput")
	defer sp.End()
	if err := os.WriteFile(d.outputPath, res.Data, 0o644); err != nil {
		return werr.ErrFileIO.WithCauseErr(errors.Wrapf(err, "write %s", d.outputPath))
	}
	return nil
}
