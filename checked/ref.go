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

	"github.com/keeldb/keelx/resource"
)

// RefCount is an embeddable checked ref count. Count mutation is
// deliberately unsynchronized: all handle operations touching a given
// entity must occur on a single goroutine. Use AtomicRefCount when an
// entity is shared across goroutines.
//
// The zero value is ready for use with a count of zero and automatic
// finalization enabled.
type RefCount struct {
	ref            int
	noAutoFinalize bool
	finalized      bool
	onFinalize     OnFinalize
	gate           finalizeGate
	origin         []byte
}

// IncRef increments the ref count.
func (c *RefCount) IncRef() {
	c.ref++
	c.finalized = false
	tracebackEvent(c, c.ref, incRefEvent)
}

// DecRef decrements the ref count and returns whether the decrement
// was a zero transition. A zero transition finalizes the entity when
// automatic finalization is enabled at that moment. Decrementing below
// zero is fatal and routed through the package panic function, the
// count is never silently wrapped.
func (c *RefCount) DecRef() bool {
	c.ref--
	tracebackEvent(c, c.ref, decRefEvent)

	if n := c.ref; n < 0 {
		panicRef(c, fmt.Errorf("negative ref count, ref=%d", n))
		return false
	}

	zero := c.ref == 0
	if zero && !c.noAutoFinalize {
		c.Finalize()
	}
	return zero
}

// MoveRef signals a move of the ref to this entity, the count is
// unchanged since exactly one handle owns the ref before and after.
func (c *RefCount) MoveRef() {
	tracebackEvent(c, c.ref, moveRefEvent)
}

// NumRef returns the ref count.
func (c *RefCount) NumRef() int {
	return c.ref
}

// SetAutomaticFinalize sets whether a zero transition finalizes the
// entity. Toggling the flag is idempotent and only affects zero
// transitions that occur after the call: an already finalized entity
// is never resurrected and an entity whose flag is false at the moment
// of a zero transition is never finalized by it.
func (c *RefCount) SetAutomaticFinalize(enabled bool) {
	c.noAutoFinalize = !enabled
}

// AutomaticFinalize returns whether a zero transition finalizes the
// entity.
func (c *RefCount) AutomaticFinalize() bool {
	return !c.noAutoFinalize
}

// Finalize will call the on finalize callback if any. The ref count
// must be zero and the entity must not have already been finalized,
// both violations are fatal. Finalization is deferred while delays
// registered with DelayFinalizer remain outstanding.
func (c *RefCount) Finalize() {
	tracebackEvent(c, c.ref, finalizeEvent)

	if n := c.ref; n != 0 {
		panicRef(c, fmt.Errorf("finalize before zero ref count, ref=%d", n))
		return
	}
	if c.finalized {
		panicRef(c, fmt.Errorf("finalize of already finalized entity"))
		return
	}

	c.gate.request(c.finalizeNow)
}

// DelayFinalizer delays finalization until the returned closer is
// closed. All delays must be registered before finalization is
// requested.
func (c *RefCount) DelayFinalizer() resource.SimpleCloser {
	tracebackEvent(c, c.ref, delayFinalizeEvent)
	return c.gate.delay(c.finalizeNow)
}

func (c *RefCount) finalizeNow() {
	c.finalized = true
	if f := c.onFinalize; f != nil {
		f.OnFinalize()
	}
}

// OnFinalize returns the on finalize callback if any or nil otherwise.
func (c *RefCount) OnFinalize() OnFinalize {
	return c.onFinalize
}

// SetOnFinalize sets the on finalize callback.
func (c *RefCount) SetOnFinalize(f OnFinalize) {
	c.onFinalize = f
}

// TrackObject sets up the internal state of the ref count for leak
// detection, v must be the outermost value embedding this ref count.
func (c *RefCount) TrackObject(v interface{}) {
	if !leakDetectionEnabled() {
		return
	}
	c.origin = originStack()
	trackLeakObject(v)
}

func (c *RefCount) leakOrigin() []byte {
	return c.origin
}
