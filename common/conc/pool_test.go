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

package conc

import (
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zilliztech/dnastore/common/hardware"
)

func TestPoolSubmit(t *testing.T) {
	pool := NewPool[int](4, WithPreAlloc(true))
	defer pool.Release()
	assert.Equal(t, 4, pool.Cap())

	var calls atomic.Int32
	futures := make([]*Future[int], 0, 32)
	for i := 0; i < 32; i++ {
		i := i
		futures = append(futures, pool.Submit(func() (int, error) {
			calls.Add(1)
			return i * i, nil
		}))
	}
	require.NoError(t, AwaitAll(futures...))
	for i, f := range futures {
		assert.True(t, f.Done())
		assert.True(t, f.OK())
		assert.Equal(t, i*i, f.Value())
	}
	assert.EqualValues(t, 32, calls.Load())
}

func TestPoolDefaultSize(t *testing.T) {
	pool := NewPool[struct{}](0)
	defer pool.Release()
	assert.Equal(t, hardware.GetCPUNum(), pool.Cap())
}

func TestFutureErrors(t *testing.T) {
	pool := NewPool[string](2)
	defer pool.Release()

	boom := errors.New("boom")
	ok := pool.Submit(func() (string, error) { return "fine", nil })
	failed := pool.Submit(func() (string, error) { return "", boom })
	panicked := pool.Submit(func() (string, error) { panic("bad segment") })

	v, err := ok.Await()
	assert.NoError(t, err)
	assert.Equal(t, "fine", v)
	assert.ErrorIs(t, failed.Err(), boom)
	assert.ErrorContains(t, panicked.Err(), "bad segment")
	assert.ErrorIs(t, AwaitAll(ok, failed, panicked), boom)
}

func TestSubmitAfterRelease(t *testing.T) {
	pool := NewPool[int](1)
	pool.Release()
	f := pool.Submit(func() (int, error) { return 1, nil })
	assert.Error(t, f.Err())
}
