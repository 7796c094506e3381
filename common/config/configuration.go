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

package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// CodecConfig stores the encode-side codec parameters.
type CodecConfig struct {
	Scheme         string   `yaml:"scheme"`
	SequenceLength int      `yaml:"sequenceLength"`
	MaxHomopolymer int      `yaml:"maxHomopolymer"`
	MinGC          float64  `yaml:"minGC"`
	MaxGC          float64  `yaml:"maxGC"`
	RSNum          int      `yaml:"rsNum"`
	AddRedundancy  bool     `yaml:"addRedundancy"`
	AddPrimer      bool     `yaml:"addPrimer"`
	PrimerLength   int      `yaml:"primerLength"`
	RuleNum        int      `yaml:"ruleNum"`
	MaxInputSize   ByteSize `yaml:"maxInputSize"`
	WriteReport    bool     `yaml:"writeReport"`
	Workers        int      `yaml:"workers"`
}

// PrimerConfig stores the primer designer configuration.
type PrimerConfig struct {
	Designer         string          `yaml:"designer"`
	LeftPrimer       string          `yaml:"leftPrimer"`
	RightPrimer      string          `yaml:"rightPrimer"`
	Primer3Path      string          `yaml:"primer3Path"`
	ThermoParamsPath string          `yaml:"thermoParamsPath"`
	Timeout          DurationSeconds `yaml:"timeout"`
}

// LogConfig stores the log configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// OtlpConfig stores the OTLP configuration.
type OtlpConfig struct {
	Endpoint string `yaml:"endpoint"`
	Method   string `yaml:"method"`
	Secure   bool   `yaml:"secure"`
}

// TraceConfig stores the trace configuration.
type TraceConfig struct {
	Exporter       string     `yaml:"exporter"`
	SampleFraction float64    `yaml:"sampleFraction"`
	Otlp           OtlpConfig `yaml:"otlp"`
}

// MetricsConfig stores the metrics configuration.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	// ListenAddr serves /metrics during a run when set, e.g. ":9091".
	ListenAddr string `yaml:"listenAddr"`
	// Textfile receives a prometheus text dump when the run ends.
	Textfile string `yaml:"textfile"`
}

type Configuration struct {
	Codec   CodecConfig   `yaml:"codec"`
	Primer  PrimerConfig  `yaml:"primer"`
	Log     LogConfig     `yaml:"log"`
	Trace   TraceConfig   `yaml:"trace"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// NewConfiguration builds the defaults and overlays every given YAML file in order.
func NewConfiguration(files ...string) (*Configuration, error) {
	config := &Configuration{
		Codec:   getDefaultCodecConfig(),
		Primer:  getDefaultPrimerConfig(),
		Log:     getDefaultLoggerConfig(),
		Trace:   getDefaultTraceConfig(),
		Metrics: MetricsConfig{Enabled: true},
	}
	if len(files) == 0 {
		return config, nil
	}

	for _, filePath := range files {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}
		err = yaml.Unmarshal(data, config)
		if err != nil {
			return nil, err
		}
	}
	return config, nil
}

func getDefaultCodecConfig() CodecConfig {
	return CodecConfig{
		Scheme:         "church",
		SequenceLength: 200,
		MaxHomopolymer: 4,
		MinGC:          0.4,
		MaxGC:          0.6,
		RSNum:          4,
		AddRedundancy:  true,
		AddPrimer:      false,
		PrimerLength:   20,
		RuleNum:        0,
		MaxInputSize:   64 << 20,
		WriteReport:    false,
		Workers:        0,
	}
}

func getDefaultPrimerConfig() PrimerConfig {
	return PrimerConfig{
		Designer:    "static",
		LeftPrimer:  "CGACATCTCGATGGCAGCAT",
		RightPrimer: "CAGTGAGCTGGCAACTTCCA",
		Primer3Path: "primer3_core",
		Timeout:     NewDurationSecondsFromInt(300),
	}
}

func getDefaultLoggerConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "text",
	}
}

func getDefaultTraceConfig() TraceConfig {
	return TraceConfig{
		Exporter: "noop",
		Otlp: OtlpConfig{
			Endpoint: "localhost:4317",
			Method:   "grpc",
			Secure:   false,
		},
		SampleFraction: 1.0,
	}
}
