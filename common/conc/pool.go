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
	"fmt"

	"github.com/panjf2000/ants/v2"

	"github.com/zilliztech/dnastore/common/hardware"
)

type poolOption struct {
	preAlloc bool
}

type PoolOption func(*poolOption)

func WithPreAlloc(v bool) PoolOption {
	return func(opt *poolOption) {
		opt.preAlloc = v
	}
}

// Pool runs typed tasks on a fixed set of ants workers.
type Pool[T any] struct {
	inner *ants.Pool
}

// NewPool creates a pool of size workers, one per cpu when size is not positive.
func NewPool[T any](size int, opts ...PoolOption) *Pool[T] {
	opt := &poolOption{}
	for _, o := range opts {
		o(opt)
	}
	if size <= 0 {
		size = hardware.GetCPUNum()
	}
	pool, err := ants.NewPool(size, ants.WithPreAlloc(opt.preAlloc))
	if err != nil {
		// only reachable with invalid options
		panic(err)
	}
	return &Pool[T]{inner: pool}
}

// Submit schedules method and returns its future. A panic inside method becomes the future's error.
func (p *Pool[T]) Submit(method func() (T, error)) *Future[T] {
	future := newFuture[T]()
	err := p.inner.Submit(func() {
		defer close(future.ch)
		defer func() {
			if x := recover(); x != nil {
				future.err = fmt.Errorf("task panicked: %v", x)
			}
		}()
		res, err := method()
		if err != nil {
			future.err = err
		} else {
			future.value = res
		}
	})
	if err != nil {
		future.err = err
		close(future.ch)
	}
	return future
}

func (p *Pool[T]) Cap() int {
	return p.inner.Cap()
}

func (p *Pool[T]) Release() {
	p.inner.Release()
}
