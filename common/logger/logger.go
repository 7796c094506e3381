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
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zilliztech/dnastore/common/config"
	"github.com/zilliztech/dnastore/common/werr"
)

type ctxKey string

const (
	loggerCtxKey   ctxKey = "__Logger__"
	logLevelCtxKey ctxKey = "__LogLevel__"
	runIDCtxKey    ctxKey = "__RunID__"
)

var (
	_globalLevelLogger sync.Map
	_globalLogger      atomic.Value
	initLogOnce        sync.Once
	levels             = []string{"debug", "info", "warn", "error"}
)

func init() {
	buildLevelLoggers("text")
}

func buildLevelLoggers(format string) {
	for _, level := range levels {
		levelLogger, err := newLogger(format, level)
		if err != nil {
			continue
		}
		_globalLevelLogger.Store(level, levelLogger)
	}
}

func InitLogger(cfg *config.Configuration) {
	initLogOnce.Do(func() {
		if cfg.Log.Format != "" && cfg.Log.Format != "text" {
			buildLevelLoggers(cfg.Log.Format)
		}
		logLevel := cfg.Log.Level
		if len(logLevel) == 0 {
			logLevel = "info"
		}
		if v, ok := _globalLevelLogger.Load(logLevel); ok {
			_globalLogger.Store(v)
		}
	})
}

func debugLogger() *zap.Logger {
	v, _ := _globalLevelLogger.Load("debug")
	return v.(*zap.Logger)
}

func warnLogger() *zap.Logger {
	v, _ := _globalLevelLogger.Load("warn")
	return v.(*zap.Logger)
}

func Ctx(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return debugLogger()
	}
	if logger, ok := ctx.Value(loggerCtxKey).(*zap.Logger); ok {
		return logger
	}
	if level, ok := ctx.Value(logLevelCtxKey).(string); ok {
		if l, ok := _globalLevelLogger.Load(level); ok {
			return l.(*zap.Logger)
		}
	}
	l := _globalLogger.Load()
	if l != nil {
		return l.(*zap.Logger)
	}
	return warnLogger()
}

// WithLevel returns a context whose logger is the shared logger of the given level.
func WithLevel(ctx context.Context, level string) context.Context {
	return context.WithValue(ctx, logLevelCtxKey, level)
}

// WithRunID tags ctx with a fresh run id and binds a logger carrying it.
func WithRunID(ctx context.Context, operation string) context.Context {
	runID := uuid.NewString()
	ctx = context.WithValue(ctx, runIDCtxKey, runID)
	l := Ctx(ctx).With(zap.String("op", operation), zap.String("runId", runID))
	return context.WithValue(ctx, loggerCtxKey, l)
}

// RunID returns the run id bound by WithRunID, or an empty string.
func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	runID, _ := ctx.Value(runIDCtxKey).(string)
	return runID
}

func newLogger(format string, level string) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()

	switch level {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return nil, werr.ErrConfiguration.WithCauseErrMsg(fmt.Sprintf("invalid log level: %s", level))
	}

	if format == "json" {
		config.Encoding = "json"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.EncoderConfig.EncodeTime = customTimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	config.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	// development config panics on DPanic and prints stacks on warn
	config.Development = false
	config.DisableStacktrace = true

	return config.Build()
}

func customTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006/01/02 15:04:05.000 -07:00"))
}
