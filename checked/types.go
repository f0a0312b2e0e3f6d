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
	"github.com/keeldb/keelx/resource"
)

// OnFinalize is a callback to cleanup resources when an entity is finalized.
type OnFinalize interface {
	OnFinalize()
}

// OnFinalizeFn is a function literal that is an on finalize callback.
type OnFinalizeFn func()

// OnFinalize will call the function literal as an on finalize callback.
func (fn OnFinalizeFn) OnFinalize() {
	fn()
}

// Ref is an entity that checks ref counts.
type Ref interface {
	// IncRef increments the ref count to this entity.
	IncRef()

	// DecRef decrements the ref count to this entity and returns
	// whether the decrement was a zero transition. Decrementing an
	// entity whose ref count is already zero is a fatal programming
	// error routed through the package panic function.
	DecRef() bool

	// MoveRef signals a move of the ref to this entity, the ref
	// count is unchanged.
	MoveRef()

	// NumRef returns the ref count to this entity.
	NumRef() int

	// SetAutomaticFinalize sets whether a zero transition finalizes
	// the entity. The flag is consulted at the moment of each zero
	// transition only, it is never retroactive. Entities default to
	// automatic finalization enabled.
	SetAutomaticFinalize(enabled bool)

	// AutomaticFinalize returns whether a zero transition finalizes
	// the entity.
	AutomaticFinalize() bool

	// Finalize will call the on finalize callback if any, the ref
	// count must be zero.
	Finalize()

	// DelayFinalizer will delay calling the finalizer on this entity
	// until the closer returned is closed. Finalization occurs once
	// all delays are closed and finalization has been requested.
	DelayFinalizer() resource.SimpleCloser

	// OnFinalize returns the on finalize callback if any or nil otherwise.
	OnFinalize() OnFinalize

	// SetOnFinalize sets the on finalize callback.
	SetOnFinalize(f OnFinalize)

	// TrackObject sets up the initial internal state of the Ref for
	// leak detection.
	TrackObject(v interface{})
}

// Referent is the constraint for entity types a Ptr can own. Referents
// must be comparable so handles can detect null targets and serve
// directly as hashed container keys; in practice referents are pointer
// types embedding a RefCount or AtomicRefCount.
type Referent interface {
	comparable
	Ref
}
