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

package checked

import (
	"fmt"

	"go.uber.org/atomic"

	"github.com/keeldb/keelx/resource"
)

// AtomicRefCount is an embeddable checked ref count safe for sharing
// across goroutines. Increments and decrements are lock free, the zero
// crossing is detected from the value returned by the atomic add so
// finalization runs exactly once even under contention.
//
// The on finalize callback must be set before the entity is shared.
//
// The zero value is ready for use with a count of zero and automatic
// finalization enabled.
type AtomicRefCount struct {
	ref            atomic.Int32
	noAutoFinalize atomic.Bool
	finalized      atomic.Bool
	onFinalize     OnFinalize
	gate           finalizeGate
	origin         []byte
}

// IncRef increments the ref count.
func (c *AtomicRefCount) IncRef() {
	n := c.ref.Inc()
	if n <= 0 {
		panicRef(c, fmt.Errorf("inc ref on entity with negative ref count, ref=%d", n))
		return
	}
	c.finalized.Store(false)
	tracebackEvent(c, int(n), incRefEvent)
}

// DecRef decrements the ref count and returns whether the decrement
// was a zero transition. A zero transition finalizes the entity when
// automatic finalization is enabled at that moment.
func (c *AtomicRefCount) DecRef() bool {
	n := c.ref.Dec()
	tracebackEvent(c, int(n), decRefEvent)

	if n < 0 {
		panicRef(c, fmt.Errorf("negative ref count, ref=%d", n))
		return false
	}

	zero := n == 0
	if zero && !c.noAutoFinalize.Load() {
		c.Finalize()
	}
	return zero
}

// MoveRef signals a move of the ref to this entity.
func (c *AtomicRefCount) MoveRef() {
	tracebackEvent(c, int(c.ref.Load()), moveRefEvent)
}

// NumRef returns the ref count.
func (c *AtomicRefCount) NumRef() int {
	return int(c.ref.Load())
}

// SetAutomaticFinalize sets whether a zero transition finalizes the
// entity, the flag is consulted at the moment of each zero transition
// only.
func (c *AtomicRefCount) SetAutomaticFinalize(enabled bool) {
	c.noAutoFinalize.Store(!enabled)
}

// AutomaticFinalize returns whether a zero transition finalizes the
// entity.
func (c *AtomicRefCount) AutomaticFinalize() bool {
	return !c.noAutoFinalize.Load()
}

// Finalize will call the on finalize callback if any, the ref count
// must be zero. Finalization is deferred while delays registered with
// DelayFinalizer remain outstanding and runs exactly once per request
// regardless of how delay closes interleave.
func (c *AtomicRefCount) Finalize() {
	n := c.ref.Load()
	tracebackEvent(c, int(n), finalizeEvent)

	if n != 0 {
		panicRef(c, fmt.Errorf("finalize before zero ref count, ref=%d", n))
		return
	}
	if c.finalized.Load() {
		panicRef(c, fmt.Errorf("finalize of already finalized entity"))
		return
	}

	c.gate.request(c.finalizeNow)
}

// DelayFinalizer delays finalization until the returned closer is
// closed. All delays must be registered before finalization is
// requested.
func (c *AtomicRefCount) DelayFinalizer() resource.SimpleCloser {
	tracebackEvent(c, int(c.ref.Load()), delayFinalizeEvent)
	return c.gate.delay(c.finalizeNow)
}

func (c *AtomicRefCount) finalizeNow() {
	c.finalized.Store(true)
	if f := c.onFinalize; f != nil {
		f.OnFinalize()
	}
}

// OnFinalize returns the on finalize callback if any or nil otherwise.
func (c *AtomicRefCount) OnFinalize() OnFinalize {
	return c.onFinalize
}

// SetOnFinalize sets the on finalize callback, must be called before
// the entity is shared across goroutines.
func (c *AtomicRefCount) SetOnFinalize(f OnFinalize) {
	c.onFinalize = f
}

// TrackObject sets up the internal state of the ref count for leak
// detection, v must be the outermost value embedding this ref count.
func (c *AtomicRefCount) TrackObject(v interface{}) {
	if !leakDetectionEnabled() {
		return
	}
	c.origin = originStack()
	trackLeakObject(v)
}

func (c *AtomicRefCount) leakOrigin() []byte {
	return c.origin
}
