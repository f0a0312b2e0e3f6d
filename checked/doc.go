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

// Package checked implements intrusive reference counting with loud
// failure on misuse.
//
// An entity embeds a RefCount (or AtomicRefCount when shared across
// goroutines) and is held through Ptr handles. A live entity's ref
// count always equals the number of valid handles targeting it. When
// the last handle is released the count transitions from one to zero
// and, if automatic finalization is enabled at that moment, the
// entity's on finalize callback runs exactly once. Entities backed by
// externally owned storage disable automatic finalization and are
// reclaimed by the storage owner instead, see the pool package.
//
// # Ownership discipline
//
// Wherever two entities can reach each other, exactly one direction of
// the relationship is owning and expressed as a Ptr, the reverse
// direction is a plain Go pointer that does not participate in the
// count. A parent owns its children through Ptr handles, a child
// reaches its parent through a raw pointer. Dropping the unique owning
// chain from a root then cascades: each zero transition releases the
// handles the finalized entity itself holds, reclaiming every
// reachable entity in dependency order with no manual teardown.
//
// Raw back pointers are unchecked. Dereferencing one after its
// referent was finalized is undefined behavior by contract, validity
// is the caller's responsibility. Where that risk is unacceptable,
// store entities in a central table and hold stable indices with an
// explicit liveness check instead of raw pointers, trading a lookup
// for safety.
//
// Modeling both directions of a relationship as owning handles, or
// closing any cycle purely through owning handles, leaks the whole
// cycle: every participant keeps a positive count with no reachable
// handle left to drop. The package does not detect or collect such
// cycles. The remedy is to explicitly Release one owning edge, after
// which the cascade proceeds outward from the broken edge in the order
// each zero transition occurs.
//
// # Misuse
//
// Decrementing a zero count, dereferencing a null handle, finalizing
// an entity with live refs and re-finalizing an already finalized
// entity are programming errors: they are routed through the package
// panic function immediately rather than corrupting state. Tests may
// capture them with SetPanicFn.
package checked
