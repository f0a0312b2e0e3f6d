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
	"errors"
	"reflect"
)

var errNilDereference = errors.New("dereference of null checked ptr")

// Ptr is an owning handle to a checked entity. A live entity's ref
// count always equals the number of valid handles targeting it, every
// handle operation preserves that equality.
//
// The zero value is the null handle. Handles are values: pass and
// store them freely, but every copy that was acquired through NewPtr,
// Clone, Copy or Reset owns a ref that must eventually be dropped with
// Release (or a rebinding operation). Plain struct assignment of a Ptr
// does not acquire a ref and must not be used to create new owners,
// use Clone instead.
//
// All rebinding operations acquire the new target before releasing the
// old one, so rebinding a handle to its current target, directly or
// through a cycle, never drives the count through a transient zero.
type Ptr[T Referent] struct {
	target T
}

// NewPtr returns a handle owning a ref to target, which may be the
// zero (null) referent for a null handle.
func NewPtr[T Referent](target T) Ptr[T] {
	var p Ptr[T]
	p.Reset(target)
	return p
}

// Valid returns whether the handle currently targets an entity.
func (p Ptr[T]) Valid() bool {
	var zero T
	return p.target != zero
}

// Get returns the raw target without affecting the ref count, the zero
// referent when null. The caller must not retain the raw reference
// beyond the handle's ownership of it.
func (p Ptr[T]) Get() T {
	return p.target
}

// Deref returns the raw target, dereferencing a null handle is a fatal
// programming error routed through the package panic function.
func (p Ptr[T]) Deref() T {
	if !p.Valid() {
		Panic(errNilDereference)
	}
	return p.target
}

// Clone returns a new handle owning its own ref to the same target.
func (p Ptr[T]) Clone() Ptr[T] {
	if p.Valid() {
		p.target.IncRef()
	}
	return Ptr[T]{target: p.target}
}

// Copy rebinds the handle to other's target, acquiring the new ref
// before dropping the old one. Copying a handle over itself leaves the
// target's count unchanged and the target alive.
func (p *Ptr[T]) Copy(other Ptr[T]) {
	if other.Valid() {
		other.target.IncRef()
	}
	old := p.target
	p.target = other.target
	release(old)
}

// Reset rebinds the handle to a raw target, acquiring the new ref
// before dropping the old one. Resetting to the zero referent is
// equivalent to Release.
func (p *Ptr[T]) Reset(target T) {
	var zero T
	if target != zero {
		target.IncRef()
	}
	old := p.target
	p.target = target
	release(old)
}

// Move transfers ownership of the ref to the returned handle, the
// receiver becomes null and the target's count is unchanged.
func (p *Ptr[T]) Move() Ptr[T] {
	moved := Ptr[T]{target: p.target}
	if moved.Valid() {
		moved.target.MoveRef()
	}
	var zero T
	p.target = zero
	return moved
}

// Take transfers other's ref into the handle, other becomes null. The
// handle's previous target is released after the transfer is recorded.
func (p *Ptr[T]) Take(other *Ptr[T]) {
	if p == other {
		return
	}
	old := p.target
	p.target = other.target
	if p.Valid() {
		p.target.MoveRef()
	}
	var zero T
	other.target = zero
	release(old)
}

// Release drops the handle's ref and nulls the handle. Dropping the
// last ref finalizes the target if automatic finalization is enabled
// at that moment.
func (p *Ptr[T]) Release() {
	old := p.target
	var zero T
	p.target = zero
	release(old)
}

// Finalize drops the handle's ref, letting *Ptr satisfy
// resource.Finalizer so handles can be registered with lifecycle
// scopes.
func (p *Ptr[T]) Finalize() {
	p.Release()
}

// Equal returns whether two handles target the same entity, two null
// handles are equal. Ptr is also directly comparable with == and
// usable as a hashed container key.
func (p Ptr[T]) Equal(other Ptr[T]) bool {
	return p.target == other.target
}

// Less returns an identity ordering over handle targets so handles can
// be kept in ordered containers. Null handles order before all valid
// handles. The ordering is only meaningful for pointer shaped
// referents, which all practical referents are.
func (p Ptr[T]) Less(other Ptr[T]) bool {
	return p.id() < other.id()
}

func (p Ptr[T]) id() uintptr {
	if !p.Valid() {
		return 0
	}
	v := reflect.ValueOf(p.target)
	switch v.Kind() {
	case reflect.Ptr, reflect.UnsafePointer, reflect.Map, reflect.Chan, reflect.Func:
		return v.Pointer()
	default:
		return 0
	}
}

func release[T Referent](old T) {
	var zero T
	if old != zero {
		old.DecRef()
	}
}
