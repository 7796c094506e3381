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
	"time"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/zilliztech/dnastore/codec/fec"
	"github.com/zilliztech/dnastore/codec/format"
	"github.com/zilliztech/dnastore/codec/primer"
	"github.com/zilliztech/dnastore/codec/scheme"
	"github.com/zilliztech/dnastore/codec/segment"
	"github.com/zilliztech/dnastore/common/bitstr"
	"github.com/zilliztech/dnastore/common/hardware"
	"github.com/zilliztech/dnastore/common/logger"
	"github.com/zilliztech/dnastore/common/metrics"
	"github.com/zilliztech/dnastore/common/tracer"
	"github.com/zilliztech/dnastore/common/werr"
)

// EncodeStats describes the file an encode run produced.
type EncodeStats struct {
	TotalBit        int           `json:"totalBit"`
	TotalBase       int           `json:"totalBase"`
	Density         float64       `json:"density"`
	SeqNum          int           `json:"seqNum"`
	IndexLength     int           `json:"indexLength"`
	BinSplitLen     int           `json:"binSplitLen"`
	RSGroup         int           `json:"rsGroup"`
	VirtualSegments int           `json:"virtualSegments"`
	LeftPrimer      string        `json:"leftPrimer,omitempty"`
	RightPrimer     string        `json:"rightPrimer,omitempty"`
	Duration        time.Duration `json:"duration"`
}

type EncoderOption func(*Encoder)

// WithDesigner sets the primer designer used when primers are added.
func WithDesigner(d primer.Designer) EncoderOption {
	return func(e *Encoder) {
		e.designer = d
	}
}

// WithMaxInputSize rejects inputs larger than n bytes. Zero means no limit.
func WithMaxInputSize(n int64) EncoderOption {
	return func(e *Encoder) {
		e.maxInputSize = n
	}
}

// WithWorkers sets how many segments are encoded in parallel, GOMAXPROCS when not positive.
func WithWorkers(n int) EncoderOption {
	return func(e *Encoder) {
		e.workers = n
	}
}

// Encoder turns one file into an encoded sequence file.
type Encoder struct {
	inputPath    string
	outputDir    string
	schemeName   string
	params       Params
	designer     primer.Designer
	maxInputSize int64
	workers      int

	outputPath string
	stats      EncodeStats
}

// NewEncoder validates everything it can before any file is touched.
func NewEncoder(inputPath, outputDir, schemeName string, params Params, opts ...EncoderOption) (*Encoder, error) {
	if err := checkOutputDir(outputDir); err != nil {
		return nil, err
	}
	if err := checkScheme(schemeName); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if schemeName == scheme.Wukong && params.segmentParams().PayloadBases()%2 != 0 {
		return nil, werr.ErrConfiguration.WithCauseErrMsg(
			fmt.Sprintf("wukong needs an even number of payload bases, got %d", params.segmentParams().PayloadBases()))
	}
	e := &Encoder{
		inputPath:  inputPath,
		outputDir:  outputDir,
		schemeName: schemeName,
		params:     params,
		designer:   primer.NewStaticDesigner("", ""),
	}
	for _, opt := range opts {
		opt(e)
	}
	base, _ := splitName(inputPath)
	e.outputPath = filepath.Join(outputDir, fmt.Sprintf("%s_%s.fasta", base, schemeName))
	return e, nil
}

func (e *Encoder) OutputPath() string {
	return e.outputPath
}

func (e *Encoder) Stats() EncodeStats {
	return e.stats
}

// Run encodes the input and returns the path of the written file.
func (e *Encoder) Run(ctx context.Context) (string, error) {
	ctx = logger.WithRunID(ctx, "encode")
	ctx, sp := tracer.StartStage(ctx, "Encode", attribute.String("scheme", e.schemeName))
	defer sp.End()
	start := time.Now()

	var err error
	if e.schemeName == scheme.Goldman {
		err = e.runGoldman(ctx)
	} else {
		err = e.runSegments(ctx)
	}
	e.stats.Duration = time.Since(start)
	if err != nil {
		sp.RecordError(err)
		logger.Ctx(ctx).Warn("encode failed", zap.String("input", e.inputPath), zap.String("scheme", e.schemeName), zap.Error(err))
		e.observe("error")
		return "", err
	}
	if e.stats.TotalBase > 0 {
		e.stats.Density = float64(e.stats.TotalBit) / float64(e.stats.TotalBase)
	} else {
		logger.Ctx(ctx).Error("set density failed, total base is 0", zap.String("input", e.inputPath))
	}
	e.observe("success")
	logger.Ctx(ctx).Info("encode finished",
		zap.String("output", e.outputPath),
		zap.Int("totalBit", e.stats.TotalBit),
		zap.Int("totalBase", e.stats.TotalBase),
		zap.Float64("density", e.stats.Density),
		zap.Int("sequences", e.stats.SeqNum),
		zap.Int("virtualSegments", e.stats.VirtualSegments),
		zap.Duration("duration", e.stats.Duration))
	return e.outputPath, nil
}

func (e *Encoder) observe(status string) {
	if !metrics.Registered() {
		return
	}
	metrics.DnaEncodeRunsTotal.WithLabelValues(e.schemeName, status).Inc()
	metrics.DnaEncodeLatency.WithLabelValues(e.schemeName).Observe(float64(e.stats.Duration.Milliseconds()))
	if status != "success" {
		return
	}
	metrics.DnaEncodeBasesTotal.WithLabelValues(e.schemeName).Add(float64(e.stats.TotalBase))
	metrics.DnaEncodeSegmentsTotal.WithLabelValues(e.schemeName).Add(float64(e.stats.SeqNum))
	metrics.DnaEncodeDensity.WithLabelValues(e.schemeName).Set(e.stats.Density)
	metrics.DnaEncodeMaskedTotal.WithLabelValues(e.schemeName).Add(float64(e.stats.VirtualSegments))
}

func (e *Encoder) checkInput(ctx context.Context) error {
	info, err := os.Stat(e.inputPath)
	if err != nil {
		return werr.ErrFileIO.WithCauseErr(errors.Wrapf(err, "stat %s", e.inputPath))
	}
	if e.maxInputSize > 0 && info.Size() > e.maxInputSize {
		return werr.ErrConfiguration.WithCauseErrMsg(
			fmt.Sprintf("input %s has %d bytes, limit is %d", e.inputPath, info.Size(), e.maxInputSize))
	}
	need := uint64(info.Size()) * outputBytesPerInputByte
	if free, err := hardware.GetDiskFree(e.outputDir); err == nil && free > 0 && free < need {
		logger.Ctx(ctx).Warn("output dir may run out of space",
			zap.String("outputDir", e.outputDir), zap.Uint64("free", free), zap.Uint64("estimated", need))
	}
	return nil
}

func (e *Encoder) runSegments(ctx context.Context) error {
	sch, err := scheme.NewSegmentScheme(e.schemeName, e.params.constraints())
	if err != nil {
		return err
	}
	if err := e.checkInput(ctx); err != nil {
		return err
	}
	_, sp := tracer.StartStage(ctx, "ReadInput")
	bits, err := bitstr.FileToBin(e.inputPath)
	sp.End()
	if err != nil {
		return err
	}
	e.stats.TotalBit = len(bits)

	splitCtx, sp := tracer.StartStage(ctx, "Split")
	plan, err := segment.NewPlan(len(bits), sch.Layout(), e.params.segmentParams())
	if err != nil {
		sp.End()
		return err
	}
	segments, err := plan.Split(bits)
	sp.End()
	if err != nil {
		return err
	}
	e.stats.SeqNum, e.stats.IndexLength, e.stats.BinSplitLen, e.stats.RSGroup = plan.SeqNum, plan.IndexLength, plan.BinSplitLen, plan.RSGroup
	logger.Ctx(splitCtx).Debug("bits split into segments",
		zap.Int("totalBit", plan.TotalBit), zap.Int("indexLength", plan.IndexLength), zap.Int("binSplitLen", plan.BinSplitLen),
		zap.Int("dataNum", plan.DataNum), zap.Int("seqNum", plan.SeqNum), zap.Int("rsGroup", plan.RSGroup))

	if e.params.RSNum > 0 {
		_, sp := tracer.StartStage(ctx, "AddParity", attribute.Int("rsNum", e.params.RSNum))
		codec, err := fec.NewCodec(e.params.RSNum)
		if err == nil {
			segments, err = codec.Add(segments, plan.RSGroup)
		}
		sp.End()
		if err != nil {
			return err
		}
	}

	sequences, err := e.encodeSegments(ctx, sch, segments, plan.IndexLength)
	if err != nil {
		return err
	}

	header := format.SegmentHeader{
		TotalBit:      plan.TotalBit,
		BinSegLen:     plan.BinSplitLen,
		FileExtension: filepath.Ext(e.inputPath),
		Redundancy:    e.params.AddRedundancy,
		RSNum:         e.params.RSNum,
	}
	if err := e.write(ctx, header.String(), sequences); err != nil {
		return err
	}

	if e.params.AddPrimer {
		pair, err := e.designPrimers(ctx)
		if err != nil {
			return err
		}
		if pair != nil {
			header.LeftPrimer, header.RightPrimer = pair.Left, pair.Right
			for i, seq := range sequences {
				sequences[i] = primer.Flank(seq, *pair)
			}
			if err := e.write(ctx, header.String(), sequences); err != nil {
				return err
			}
			e.stats.LeftPrimer, e.stats.RightPrimer = pair.Left, pair.Right
		}
	}

	for _, seq := range sequences {
		e.stats.TotalBase += len(seq)
	}
	return nil
}

func (e *Encoder) encodeSegments(ctx context.Context, sch scheme.SegmentScheme, segments []string, indexLength int) ([]string, error) {
	ctx, sp := tracer.StartStage(ctx, "EncodeBases", attribute.Int("segments", len(segments)))
	defer sp.End()
	sequences := make([]string, len(segments))
	virtual, err := runBatches(ctx, e.workers, len(segments), func(i int) (bool, error) {
		bases, virtual, err := sch.Encode(segments[i], indexLength)
		if err != nil {
			return false, errors.Wrapf(err, "segment %d", i)
		}
		sequences[i] = bases
		return virtual, nil
	})
	if err != nil {
		return nil, err
	}
	e.stats.VirtualSegments += virtual
	return sequences, nil
}

func (e *Encoder) write(ctx context.Context, header string, sequences []string) error {
	_, sp := tracer.StartStage(ctx, "WriteOutput")
	defer sp.End()
	return format.WriteFile(e.outputPath, header, sequences)
}

func (e *Encoder) designPrimers(ctx context.Context) (*primer.Pair, error) {
	ctx, sp := tracer.StartStage(ctx, "DesignPrimers")
	defer sp.End()
	pair, err := e.designer.Design(ctx, e.outputPath, e.params.primerConstraints())
	if err != nil {
		return nil, err
	}
	if pair == nil {
		logger.Ctx(ctx).Error("no primer pair found, sequences are left unflanked", zap.String("output", e.outputPath))
	}
	return pair, nil
}

func (e *Encoder) runGoldman(ctx context.Context) error {
	if e.params.RSNum > 0 || e.params.AddRedundancy || e.params.AddPrimer {
		logger.Ctx(ctx).Warn("goldman ignores rs, redundancy and primer settings",
			zap.Int("rsNum", e.params.RSNum), zap.Bool("addRedundancy", e.params.AddRedundancy), zap.Bool("addPrimer", e.params.AddPrimer))
	}
	if err := e.checkInput(ctx); err != nil {
		return err
	}
	data, err := os.ReadFile(e.inputPath)
	if err != nil {
		return werr.ErrFileIO.WithCauseErr(errors.Wrapf(err, "read %s", e.inputPath))
	}
	e.stats.TotalBit = 8 * len(data)

	_, sp := tracer.StartStage(ctx, "EncodeBases")
	enc, err := scheme.NewGoldman().Encode(data, e.params.SequenceLength)
	sp.End()
	if err != nil {
		return err
	}
	e.stats.SeqNum, e.stats.IndexLength, e.stats.RSGroup = len(enc.Sequences), enc.IndexLength, 0

	header := format.GoldmanHeader{IndexLen: enc.IndexLength, AddLen: enc.AddLen, FileExtension: filepath.Ext(e.inputPath)}
	if err := e.write(ctx, header.String(), enc.Sequences); err != nil {
		return err
	}
	for _, seq := range enc.Sequences {
		e.stats.TotalBase += len(seq)
	}
	return nil
}
