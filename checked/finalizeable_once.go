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

import "go.uber.org/atomic"

// FinalizeableOnce guards teardown paths that must run at most once,
// such as pool close and arena teardown.
type FinalizeableOnce struct {
	finalized atomic.Bool
}

// Finalized returns true iff the guarded teardown has run.
func (c *FinalizeableOnce) Finalized() bool {
	return c.finalized.Load()
}

// MarkFinalized attempts to claim the teardown, returning true exactly
// once across all callers.
func (c *FinalizeableOnce) MarkFinalized() bool {
	return c.finalized.CompareAndSwap(false, true)
}

// SetFinalized sets the finalized flag directly, useful to rearm a
// recycled guard.
func (c *FinalizeableOnce) SetFinalized(f bool) {
	c.finalized.Store(f)
}
