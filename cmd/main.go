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

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zilliztech/dnastore/common/config"
	dnahttp "github.com/zilliztech/dnastore/common/http"
	"github.com/zilliztech/dnastore/common/logger"
	"github.com/zilliztech/dnastore/common/metrics"
	"github.com/zilliztech/dnastore/common/tracer"
	"github.com/zilliztech/dnastore/common/werr"
)

const (
	serviceName = "dnastore"
	version     = "0.1.0"
)

var (
	configFile string
	cfg        *config.Configuration

	registry      = prometheus.NewRegistry()
	metricsServer *dnahttp.Server
)

var rootCmd = &cobra.Command{
	Use:   "dnastore",
	Short: "Store files in synthetic DNA sequences and read them back",
	Long: `Encode any file into a FASTA file of constrained DNA sequences with the
church, goldman or wukong scheme, and decode sequenced reads back into the file.`,
	Version:           version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML configuration file, defaults apply when empty")
}

// setup loads the configuration and brings up logging, tracing and metrics.
func setup(cmd *cobra.Command, _ []string) error {
	var files []string
	if configFile != "" {
		files = append(files, configFile)
	}
	c, err := config.NewConfiguration(files...)
	if err != nil {
		return werr.ErrConfiguration.WithCauseErr(err)
	}
	cfg = c
	logger.InitLogger(cfg)
	if err := tracer.InitTracer(cfg, serviceName); err != nil {
		return werr.ErrConfiguration.WithCauseErr(err)
	}
	if !cfg.Metrics.Enabled {
		return nil
	}
	metrics.RegisterCodecMetrics(registry)
	if cfg.Metrics.ListenAddr != "" && metricsServer == nil {
		metricsServer = dnahttp.NewServer(registry)
		if err := metricsServer.Start(cfg.Metrics.ListenAddr); err != nil {
			metricsServer = nil
			return werr.ErrConfiguration.WithCauseErr(err)
		}
	}
	return nil
}

// shutdown flushes spans and metrics whether or not the command succeeded.
func shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := tracer.CloseTracerProvider(ctx); err != nil {
		logger.Ctx(ctx).Warn("close tracer provider failed", zap.Error(err))
	}
	if cfg == nil || !cfg.Metrics.Enabled {
		return
	}
	if cfg.Metrics.Textfile != "" {
		if err := prometheus.WriteToTextfile(cfg.Metrics.Textfile, registry); err != nil {
			logger.Ctx(ctx).Warn("write metrics textfile failed", zap.String("path", cfg.Metrics.Textfile), zap.Error(err))
		}
	}
	if metricsServer != nil {
		_ = metricsServer.Stop(ctx)
		metricsServer = nil
	}
}

func execute(args []string) error {
	rootCmd.SetArgs(args)
	defer shutdown()
	return rootCmd.Execute()
}

func main() {
	if err := execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(werr.ExitCode(err))
	}
}
