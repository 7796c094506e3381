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
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ByteSize is a size that accepts plain byte counts or K/M/G suffixed strings in YAML.
type ByteSize int64

var sizeUnits = []struct {
	suffix string
	scale  int64
}{
	{"kb", 1 << 10}, {"k", 1 << 10},
	{"mb", 1 << 20}, {"m", 1 << 20},
	{"gb", 1 << 30}, {"g", 1 << 30},
}

// UnmarshalYAML implements yaml.Unmarshaler for ByteSize
func (b *ByteSize) UnmarshalYAML(value *yaml.Node) error {
	var v interface{}
	if err := value.Decode(&v); err != nil {
		return err
	}

	switch val := v.(type) {
	case int:
		*b = ByteSize(val)
	case int64:
		*b = ByteSize(val)
	case string:
		size, err := parseSize(val)
		if err != nil {
			return err
		}
		*b = ByteSize(size)
	default:
		return fmt.Errorf("invalid type for ByteSize: %T", v)
	}
	return nil
}

// Int64 returns the int64 value of ByteSize
func (b ByteSize) Int64() int64 {
	return int64(b)
}

// DurationSeconds is a duration that reads plain numbers as seconds.
type DurationSeconds struct {
	duration time.Duration
}

// NewDurationSecondsFromInt creates a DurationSeconds from whole seconds
func NewDurationSecondsFromInt(seconds int) DurationSeconds {
	return DurationSeconds{duration: time.Duration(seconds) * time.Second}
}

// UnmarshalYAML implements yaml.Unmarshaler for DurationSeconds
func (d *DurationSeconds) UnmarshalYAML(value *yaml.Node) error {
	var v interface{}
	if err := value.Decode(&v); err != nil {
		return err
	}

	switch val := v.(type) {
	case int:
		d.duration = time.Duration(val) * time.Second
	case string:
		duration, err := parseDuration(val)
		if err != nil {
			return err
		}
		d.duration = duration
	default:
		return fmt.Errorf("invalid type for Duration: %T", v)
	}
	return nil
}

// Duration returns the underlying time.Duration
func (d DurationSeconds) Duration() time.Duration {
	return d.duration
}

func parseSize(sizeStr string) (int64, error) {
	valueStr := strings.ToLower(strings.TrimSpace(sizeStr))
	if valueStr == "" {
		return 0, nil
	}

	scale := int64(1)
	for _, unit := range sizeUnits {
		if strings.HasSuffix(valueStr, unit.suffix) {
			valueStr = strings.TrimSuffix(valueStr, unit.suffix)
			scale = unit.scale
			break
		}
	}
	size, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size format '%s': %w", sizeStr, err)
	}
	return size * scale, nil
}

func parseDuration(durationStr string) (time.Duration, error) {
	durationStr = strings.TrimSpace(durationStr)
	if durationStr == "" {
		return 0, nil
	}
	if value, err := strconv.ParseInt(durationStr, 10, 64); err == nil {
		return time.Duration(value) * time.Second, nil
	}
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format '%s': %w", durationStr, err)
	}
	return duration, nil
}
