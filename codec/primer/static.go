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

package primer

import (
	"context"
	"strings"
)

// StaticDesigner hands out a fixed, pre-validated pair.
type StaticDesigner struct {
	pair Pair
}

func NewStaticDesigner(left, right string) *StaticDesigner {
	return &StaticDesigner{pair: Pair{Left: strings.ToUpper(left), Right: strings.ToUpper(right)}}
}

func (s *StaticDesigner) Design(_ context.Context, _ string, c Constraints) (*Pair, error) {
	if s.pair.Left == "" || s.pair.Right == "" {
		return nil, nil
	}
	if err := Validate(s.pair.Left, c); err != nil {
		return nil, err
	}
	if err := Validate(s.pair.Right, c); err != nil {
		return nil, err
	}
	pair := s.pair
	return &pair, nil
}
