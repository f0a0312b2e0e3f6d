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
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// Leak detection records entities that are garbage collected while
// their ref count is still positive, meaning every handle to them was
// dropped without releasing the ref. It relies on runtime finalizers
// and is intended for tests and debug builds, not production use.

type leakTracked interface {
	NumRef() int
	leakOrigin() []byte
}

var leakState struct {
	sync.Mutex
	enabled bool
	leaks   map[string]uint64
}

// EnableLeakDetection turns on tracking of objects registered with
// TrackObject.
func EnableLeakDetection() {
	leakState.Lock()
	leakState.enabled = true
	leakState.Unlock()
}

// DisableLeakDetection turns off tracking of objects registered with
// TrackObject.
func DisableLeakDetection() {
	leakState.Lock()
	leakState.enabled = false
	leakState.Unlock()
}

func leakDetectionEnabled() bool {
	leakState.Lock()
	enabled := leakState.enabled
	leakState.Unlock()
	return enabled
}

// DumpLeaks returns all detected leaks so far, each entry describing
// the outstanding ref count and the origin stack of the leaked entity.
func DumpLeaks() []string {
	var r []string
	leakState.Lock()
	for k, v := range leakState.leaks {
		r = append(r, fmt.Sprintf("leaked %d objects, origin:\n%s", v, k))
	}
	leakState.Unlock()
	return r
}

// ClearLeaks removes all recorded leaks, useful between test cases.
func ClearLeaks() {
	leakState.Lock()
	leakState.leaks = nil
	leakState.Unlock()
}

// LogLeaks writes every recorded leak to the logger at error level.
func LogLeaks(logger *zap.Logger) {
	for _, leak := range DumpLeaks() {
		logger.Error("checked entity leaked", zap.String("leak", leak))
	}
}

func trackLeakObject(v interface{}) {
	// The finalizer must not capture v or the closure would keep the
	// object reachable forever, it receives the object as its argument
	// instead.
	runtime.SetFinalizer(v, leakFinalizer)
}

func leakFinalizer(v interface{}) {
	t, ok := v.(leakTracked)
	if !ok || t.NumRef() == 0 {
		return
	}
	key := string(t.leakOrigin())
	leakState.Lock()
	if leakState.leaks == nil {
		leakState.leaks = make(map[string]uint64)
	}
	leakState.leaks[key]++
	leakState.Unlock()
}

func originStack() []byte {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return buf[:n]
}
