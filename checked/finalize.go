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
	"go.uber.org/atomic"

	"github.com/keeldb/keelx/resource"
)

const (
	// Low bit records that finalization was requested while delays
	// were outstanding, remaining bits count outstanding delays.
	finalizePendingBit = int64(1)
	finalizeDelayUnit  = int64(2)
)

// finalizeGate coalesces an arbitrary number of finalizer delays with
// at most one pending finalization request, guaranteeing the
// finalization callback runs exactly once no matter how delay closes
// and finalize requests interleave across goroutines.
type finalizeGate struct {
	state atomic.Int64
}

// delay registers an outstanding delay, the returned closer releases
// it. When the last delay closes and finalization was requested the
// run callback fires.
func (g *finalizeGate) delay(run func()) resource.SimpleCloser {
	g.state.Add(finalizeDelayUnit)
	return resource.SimpleCloserFn(func() {
		n := g.state.Add(-finalizeDelayUnit)
		if n == finalizePendingBit && g.state.CompareAndSwap(finalizePendingBit, 0) {
			run()
		}
	})
}

// request asks for finalization, running the callback immediately when
// no delays are outstanding and deferring to the last delay close
// otherwise. Repeat requests while one is pending are no-ops.
func (g *finalizeGate) request(run func()) {
	for {
		n := g.state.Load()
		if n == 0 {
			run()
			return
		}
		if n&finalizePendingBit != 0 {
			// Already requested.
			return
		}
		if g.state.CompareAndSwap(n, n|finalizePendingBit) {
			return
		}
	}
}
