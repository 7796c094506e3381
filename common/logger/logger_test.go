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

package logger

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/zilliztech/dnastore/common/werr"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level    string
		expected zap.AtomicLevel
	}{
		{"debug", zap.NewAtomicLevelAt(zap.DebugLevel)},
		{"info", zap.NewAtomicLevelAt(zap.InfoLevel)},
		{"warn", zap.NewAtomicLevelAt(zap.WarnLevel)},
		{"error", zap.NewAtomicLevelAt(zap.ErrorLevel)},
		{"invalid", zap.NewAtomicLevelAt(zap.WarnLevel)}, // unknown levels fall back to warn
	}

	for _, test := range tests {
		logger := Ctx(WithLevel(context.Background(), test.level))
		assert.True(t, logger.Core().Enabled(test.expected.Level()), fmt.Sprintf("level:%s should enable:%v", test.level, test.expected.Level()))
	}
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	_, err := newLogger("text", "verbose")
	assert.ErrorIs(t, err, werr.ErrConfiguration)

	l, err := newLogger("json", "info")
	assert.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
}

func TestLoggerMethods(t *testing.T) {
	logger := Ctx(WithLevel(context.Background(), "debug"))

	assert.NotPanics(t, func() {
		logger.Debug("debug message", zap.String("key", "value"))
		logger.Info("info message", zap.String("key", "value"))
		logger.Warn("warn message", zap.String("key", "value"))
		logger.Error("error message", zap.Error(werr.ErrMissingSegment))
	})
}

func TestLoggerMethodsWithContext(t *testing.T) {
	logger := Ctx(WithLevel(context.Background(), "info"))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))
	assert.True(t, logger.Core().Enabled(zap.ErrorLevel))

	// default level is warn until InitLogger runs
	defaultLogger := Ctx(context.Background())
	assert.False(t, defaultLogger.Core().Enabled(zap.DebugLevel))
	assert.False(t, defaultLogger.Core().Enabled(zap.InfoLevel))
	assert.True(t, defaultLogger.Core().Enabled(zap.WarnLevel))
	assert.True(t, defaultLogger.Core().Enabled(zap.ErrorLevel))
}

func TestWithRunID(t *testing.T) {
	ctx := WithRunID(WithLevel(context.Background(), "debug"), "encode")
	runID := RunID(ctx)
	assert.Len(t, runID, 36)
	assert.True(t, Ctx(ctx).Core().Enabled(zap.DebugLevel))

	other := WithRunID(context.Background(), "decode")
	assert.NotEqual(t, runID, RunID(other))
	assert.Equal(t, "", RunID(context.Background()))
}
