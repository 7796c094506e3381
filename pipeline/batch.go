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
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/zilliztech/dnastore/common/conc"
	"github.com/zilliztech/dnastore/common/logger"
)

const batchSize = 256

// runBatches applies fn to every index in [0, n) on a worker pool and counts the flagged results.
// fn must only write to state owned by its index.
func runBatches(ctx context.Context, workers, n int, fn func(i int) (bool, error)) (int, error) {
	if n == 0 {
		return 0, nil
	}
	pool := conc.NewPool[int](workers, conc.WithPreAlloc(true))
	defer pool.Release()

	var done atomic.Int64
	futures := make([]*conc.Future[int], 0, (n+batchSize-1)/batchSize)
	for start := 0; start < n; start += batchSize {
		end := min(start+batchSize, n)
		futures = append(futures, pool.Submit(func() (int, error) {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			flagged := 0
			for i := start; i < end; i++ {
				ok, err := fn(i)
				if err != nil {
					return 0, err
				}
				if ok {
					flagged++
				}
			}
			size := int64(end - start)
			if d := done.Add(size); d/progressEvery != (d-size)/progressEvery {
				logger.Ctx(ctx).Debug("progress", zap.Int64("done", d), zap.Int("total", n), zap.Int("workers", pool.Cap()))
			}
			return flagged, nil
		}))
	}
	if err := conc.AwaitAll(futures...); err != nil {
		return 0, err
	}
	total := 0
	for _, f := range futures {
		total += f.Value()
	}
	return total, nil
}
