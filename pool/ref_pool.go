// Copyright (c) 2023 Keel Contributors.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package pool

import (
	"github.com/keeldb/keelx/checked"
)

// RefPool recycles checked entities through an object pool: each
// pooled entity's finalizer returns it to the pool, so the zero
// transition of its last handle recycles it instead of freeing it.
// Automatic finalization stays enabled, recycling is just what
// finalization means for pooled entities.
type RefPool[T checked.Referent] struct {
	pool  ObjectPool
	alloc func() T
	reset func(T)
}

// NewRefPool creates a new recycling pool of checked entities. The
// reset callback, if any, runs on each entity as it returns to the
// pool.
func NewRefPool[T checked.Referent](
	alloc func() T,
	reset func(T),
	opts ObjectPoolOptions,
) *RefPool[T] {
	return &RefPool[T]{
		pool:  NewObjectPool(opts),
		alloc: alloc,
		reset: reset,
	}
}

// Init initializes the pool, allocating its entities.
func (p *RefPool[T]) Init() {
	p.pool.Init(func() interface{} {
		return p.newEntity()
	})
}

// Get returns a pooled entity with a zero ref count, callers bind it
// to a handle to take ownership.
func (p *RefPool[T]) Get() T {
	return p.pool.Get().(T)
}

// Close closes the underlying object pool.
func (p *RefPool[T]) Close() {
	p.pool.Close()
}

func (p *RefPool[T]) newEntity() T {
	e := p.alloc()
	e.SetOnFinalize(checked.OnFinalizeFn(func() {
		if p.reset != nil {
			p.reset(e)
		}
		p.pool.Put(e)
	}))
	return e
}
