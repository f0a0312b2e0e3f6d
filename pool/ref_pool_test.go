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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keeldb/keelx/checked"
)

type pooledBuffer struct {
	checked.RefCount
	data []byte
}

func TestRefPoolRecyclesOnZeroTransition(t *testing.T) {
	resets := 0
	p := NewRefPool(
		func() *pooledBuffer {
			return &pooledBuffer{data: make([]byte, 0, 16)}
		},
		func(b *pooledBuffer) {
			b.data = b.data[:0]
			resets++
		},
		NewObjectPoolOptions().SetSize(1).SetShardCount(1),
	)
	p.Init()
	defer p.Close()

	b := p.Get()
	require.Equal(t, 0, b.NumRef())

	h := checked.NewPtr(b)
	b.data = append(b.data, 'x')

	// Dropping the last handle recycles the entity instead of
	// freeing it.
	h.Release()
	assert.Equal(t, 1, resets)

	reused := p.Get()
	assert.Same(t, b, reused)
	assert.Empty(t, reused.data)
}

func TestRefPoolSharedHandlesRecycleOnce(t *testing.T) {
	resets := 0
	p := NewRefPool(
		func() *pooledBuffer { return &pooledBuffer{} },
		func(*pooledBuffer) { resets++ },
		NewObjectPoolOptions().SetSize(2).SetShardCount(1),
	)
	p.Init()
	defer p.Close()

	b := p.Get()
	h1 := checked.NewPtr(b)
	h2 := h1.Clone()
	require.Equal(t, 2, b.NumRef())

	h1.Release()
	assert.Equal(t, 0, resets)

	h2.Release()
	assert.Equal(t, 1, resets)
}
