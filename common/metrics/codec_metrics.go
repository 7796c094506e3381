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

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	dnastoreNamespace = "dnastore"
	encodeRole        = "encode"
	decodeRole        = "decode"

	SchemeLabelName = "scheme"
	StatusLabelName = "status"
)

var (
	DnaCodecRegisterOnce sync.Once

	DnaEncodeRunsTotal     *prometheus.CounterVec
	DnaEncodeLatency       *prometheus.HistogramVec
	DnaEncodeBasesTotal    *prometheus.CounterVec
	DnaEncodeSegmentsTotal *prometheus.CounterVec
	DnaEncodeDensity       *prometheus.GaugeVec
	DnaEncodeMaskedTotal   *prometheus.CounterVec

	DnaDecodeRunsTotal       *prometheus.CounterVec
	DnaDecodeLatency         *prometheus.HistogramVec
	DnaDecodeSegmentsTotal   *prometheus.CounterVec
	DnaDecodeRsFailedTotal   *prometheus.CounterVec
	DnaDecodeRepairedTotal   *prometheus.CounterVec
	DnaDecodeMissingTotal    *prometheus.CounterVec
	DnaDecodeErrorRateGauges *prometheus.GaugeVec
)

func initCodecMetrics() {
	DnaEncodeRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: dnastoreNamespace,
		Subsystem: encodeRole,
		Name:      "runs_total",
		Help:      "Total number of encode runs",
	}, []string{SchemeLabelName, StatusLabelName})
	DnaEncodeLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: dnastoreNamespace,
		Subsystem: encodeRole,
		Name:      "run_latency",
		Help:      "Latency of encode runs in milliseconds",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 16), // 1ms to ~32s
	}, []string{SchemeLabelName})
	DnaEncodeBasesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: dnastoreNamespace,
		Subsystem: encodeRole,
		Name:      "bases_total",
		Help:      "Total number of bases written, flanking primers included",
	}, []string{SchemeLabelName})
	DnaEncodeSegmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: dnastoreNamespace,
		Subsystem: encodeRole,
		Name:      "segments_total",
		Help:      "Total number of sequences written",
	}, []string{SchemeLabelName})
	DnaEncodeDensity = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: dnastoreNamespace,
		Subsystem: encodeRole,
		Name:      "density_bits_per_base",
		Help:      "Information density of the last encode run",
	}, []string{SchemeLabelName})
	DnaEncodeMaskedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: dnastoreNamespace,
		Subsystem: encodeRole,
		Name:      "masked_segments_total",
		Help:      "Total number of segments re-masked to satisfy sequence constraints",
	}, []string{SchemeLabelName})

	DnaDecodeRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: dnastoreNamespace,
		Subsystem: decodeRole,
		Name:      "runs_total",
		Help:      "Total number of decode runs",
	}, []string{SchemeLabelName, StatusLabelName})
	DnaDecodeLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: dnastoreNamespace,
		Subsystem: decodeRole,
		Name:      "run_latency",
		Help:      "Latency of decode runs in milliseconds",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 16), // 1ms to ~32s
	}, []string{SchemeLabelName})
	DnaDecodeSegmentsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: dnastoreNamespace,
		Subsystem: decodeRole,
		Name:      "segments_total",
		Help:      "Total number of sequences read",
	}, []string{SchemeLabelName})
	DnaDecodeRsFailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: dnastoreNamespace,
		Subsystem: decodeRole,
		Name:      "rs_failed_segments_total",
		Help:      "Total number of segments whose parity budget was exceeded",
	}, []string{SchemeLabelName})
	DnaDecodeRepairedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: dnastoreNamespace,
		Subsystem: decodeRole,
		Name:      "repaired_segments_total",
		Help:      "Total number of missing segments rebuilt from redundancy",
	}, []string{SchemeLabelName})
	DnaDecodeMissingTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: dnastoreNamespace,
		Subsystem: decodeRole,
		Name:      "missing_segments_total",
		Help:      "Total number of segments neither received nor repaired",
	}, []string{SchemeLabelName})
	DnaDecodeErrorRateGauges = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: dnastoreNamespace,
		Subsystem: decodeRole,
		Name:      "last_rate",
		Help:      "Rates reported by the last decode run",
	}, []string{SchemeLabelName, "kind"})
}

// RegisterCodecMetricsWithRegisterer initializes and registers all codec metrics once.
func RegisterCodecMetricsWithRegisterer(registerer prometheus.Registerer) {
	DnaCodecRegisterOnce.Do(func() {
		initCodecMetrics()

		registerer.MustRegister(DnaEncodeRunsTotal)
		registerer.MustRegister(DnaEncodeLatency)
		registerer.MustRegister(DnaEncodeBasesTotal)
		registerer.MustRegister(DnaEncodeSegmentsTotal)
		registerer.MustRegister(DnaEncodeDensity)
		registerer.MustRegister(DnaEncodeMaskedTotal)

		registerer.MustRegister(DnaDecodeRunsTotal)
		registerer.MustRegister(DnaDecodeLatency)
		registerer.MustRegister(DnaDecodeSegmentsTotal)
		registerer.MustRegister(DnaDecodeRsFailedTotal)
		registerer.MustRegister(DnaDecodeRepairedTotal)
		registerer.MustRegister(DnaDecodeMissingTotal)
		registerer.MustRegister(DnaDecodeErrorRateGauges)
	})
}

// RegisterCodecMetrics registers codec metrics to the given registry.
func RegisterCodecMetrics(registry *prometheus.Registry) {
	RegisterCodecMetricsWithRegisterer(registry)
}

// Registered reports whether codec metrics have been initialized.
func Registered() bool {
	return DnaEncodeRunsTotal != nil
}
