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
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/keeldb/keelx/checked"
	"github.com/keeldb/keelx/instrument"
)

// Arena is a bulk allocation of checked entities whose individual
// lifetimes are not governed by their ref counts. Every element has
// automatic finalization disabled before it can be observed, so
// handles to elements behave normally except that zero transitions
// never finalize. The arena owner reclaims all elements at once with
// Teardown, which must not run while any handle may still dereference
// an element.
//
// The arena is fixed size: its backing storage never relocates, so raw
// references and handles to elements stay stable for the arena's life.
type Arena[T checked.Referent] struct {
	elems    []T
	torndown checked.FinalizeableOnce
	iopts    instrument.Options
}

// NewArena bulk-allocates count entities with the supplied allocator,
// disabling automatic finalization on each before returning.
func NewArena[T checked.Referent](count int, alloc func() T, iopts instrument.Options) *Arena[T] {
	if iopts == nil {
		iopts = instrument.NewOptions()
	}

	elems := make([]T, 0, count)
	for i := 0; i < count; i++ {
		e := alloc()
		e.SetAutomaticFinalize(false)
		elems = append(elems, e)
	}

	iopts.Logger().Debug("arena allocated", zap.Int("elements", count))
	iopts.MetricsScope().Gauge("arena-elements").Update(float64(count))

	return &Arena[T]{elems: elems, iopts: iopts}
}

// Len returns the number of elements in the arena.
func (a *Arena[T]) Len() int {
	return len(a.elems)
}

// Get returns the raw reference to the i-th element. Accessing a torn
// down arena or an out of range index is fatal.
func (a *Arena[T]) Get(i int) T {
	var zero T
	if a.torndown.Finalized() {
		checked.Panic(errors.New("arena get after teardown"))
		return zero
	}
	if i < 0 || i >= len(a.elems) {
		checked.Panic(errors.Errorf("arena index out of range, index=%d, len=%d", i, len(a.elems)))
		return zero
	}
	return a.elems[i]
}

// Teardown finalizes every element exactly once and releases the
// backing storage. It is fatal to tear down twice or while any element
// still has live refs: the owner must prove no handle can still
// observe the arena before calling.
func (a *Arena[T]) Teardown() {
	if !a.torndown.MarkFinalized() {
		checked.Panic(errors.New("arena teardown more than once"))
		return
	}

	for i, e := range a.elems {
		if n := e.NumRef(); n != 0 {
			a.iopts.Logger().Error("arena teardown with live refs",
				zap.Int("index", i), zap.Int("ref", n))
			// Rearm so the owner can tear down once the refs drop.
			a.torndown.SetFinalized(false)
			checked.Panic(errors.Errorf("arena teardown with live refs, index=%d, ref=%d", i, n))
			return
		}
	}
	for _, e := range a.elems {
		e.Finalize()
	}

	a.iopts.Logger().Debug("arena teardown", zap.Int("elements", len(a.elems)))
	a.iopts.MetricsScope().Gauge("arena-elements").Update(0)
	a.elems = nil
}
