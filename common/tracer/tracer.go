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

package tracer

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	stdout "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/zilliztech/dnastore/common/config"
)

const instrumentationName = "github.com/zilliztech/dnastore"

var initOnce sync.Once

// InitTracer installs the configured tracer provider once per process.
func InitTracer(cfg *config.Configuration, serviceName string) error {
	var err error
	initOnce.Do(func() {
		err = Init(cfg, serviceName)
	})
	return err
}

func Init(cfg *config.Configuration, serviceName string) error {
	exp, err := CreateTracerExporter(cfg)
	if err != nil {
		return err
	}
	if exp == nil {
		return nil
	}

	SetTracerProvider(exp, cfg.Trace.SampleFraction, serviceName)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return nil
}

func CloseTracerProvider(ctx context.Context) error {
	provider, ok := otel.GetTracerProvider().(*sdk.TracerProvider)
	if ok {
		return provider.Shutdown(ctx)
	}
	return nil
}

func SetTracerProvider(exp sdk.SpanExporter, traceIDRatio float64, serviceName string) {
	tp := sdk.NewTracerProvider(
		sdk.WithBatcher(exp),
		sdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
		)),
		sdk.WithSampler(sdk.ParentBased(
			sdk.TraceIDRatioBased(traceIDRatio),
		)),
	)
	otel.SetTracerProvider(tp)
}

// CreateTracerExporter returns a nil exporter for "noop".
func CreateTracerExporter(cfg *config.Configuration) (sdk.SpanExporter, error) {
	switch cfg.Trace.Exporter {
	case "", "noop":
		return nil, nil
	case "stdout":
		return stdout.New()
	case "otlp":
		secure := cfg.Trace.Otlp.Secure
		switch cfg.Trace.Otlp.Method {
		case "", "grpc":
			opts := []otlptracegrpc.Option{
				otlptracegrpc.WithEndpoint(cfg.Trace.Otlp.Endpoint),
			}
			if !secure {
				opts = append(opts, otlptracegrpc.WithInsecure())
			}
			return otlptracegrpc.New(context.Background(), opts...)
		case "http":
			opts := []otlptracehttp.Option{
				otlptracehttp.WithEndpoint(cfg.Trace.Otlp.Endpoint),
			}
			if !secure {
				opts = append(opts, otlptracehttp.WithInsecure())
			}
			return otlptracehttp.New(context.Background(), opts...)
		default:
			return nil, errors.Newf("otlp method not supported: %s", cfg.Trace.Otlp.Method)
		}
	default:
		return nil, errors.Newf("trace exporter not supported: %s", cfg.Trace.Exporter)
	}
}

// StartStage opens a span for one pipeline stage.
func StartStage(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, stage, trace.WithAttributes(attrs...))
}
