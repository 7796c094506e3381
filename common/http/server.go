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

package http

import (
	"context"
	"net"
	"net/http"
	_ "net/http/pprof" // registers pprof handlers on DefaultServeMux
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zilliztech/dnastore/common/logger"
)

const (
	HealthRouterPath  = "/healthz"
	MetricsRouterPath = "/metrics"

	PprofEnableEnvKey = "PPROF_ENABLE"
)

type Handler struct {
	Path        string
	HandlerFunc http.HandlerFunc
	Handler     http.Handler
}

// Server exposes codec metrics while a long encode or decode is running.
type Server struct {
	mux      *http.ServeMux
	server   *http.Server
	listener net.Listener
}

func NewServer(gatherer prometheus.Gatherer) *Server {
	s := &Server{}
	pprofEnable := os.Getenv(PprofEnableEnvKey)
	if pprofEnable == "true" {
		s.mux = http.DefaultServeMux
	} else {
		s.mux = http.NewServeMux()
	}
	s.Register(&Handler{
		Path: HealthRouterPath,
		HandlerFunc: func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("OK"))
		},
	})
	s.Register(&Handler{
		Path:    MetricsRouterPath,
		Handler: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	})
	return s
}

func (s *Server) Register(h *Handler) {
	if h.HandlerFunc != nil {
		s.mux.HandleFunc(h.Path, h.HandlerFunc)
		return
	}
	if h.Handler != nil {
		s.mux.Handle(h.Path, h.Handler)
	}
}

// Start binds addr and serves in the background.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen %s", addr)
	}
	s.listener = lis
	s.server = &http.Server{
		Handler:      s.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Ctx(context.Background()).Info("Starting HTTP server",
		zap.String("addr", lis.Addr().String()),
		zap.Bool("pprof_enabled", s.mux == http.DefaultServeMux))

	go func() {
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Ctx(context.Background()).Error("HTTP server failed", zap.Error(err))
		}
	}()
	return nil
}

// Addr is the bound address, useful when started on port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logger.Ctx(ctx).Error("HTTP server shutdown failed", zap.Error(err))
		return err
	}
	logger.Ctx(ctx).Info("HTTP server stopped")
	return nil
}
