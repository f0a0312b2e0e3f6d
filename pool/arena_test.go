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

type arenaEntity struct {
	checked.RefCount
	id        int
	finalized bool
}

func newArenaEntityAllocator() func() *arenaEntity {
	next := 0
	return func() *arenaEntity {
		e := &arenaEntity{id: next}
		e.SetOnFinalize(checked.OnFinalizeFn(func() {
			e.finalized = true
		}))
		next++
		return e
	}
}

func TestArenaElementsSurviveZeroTransitions(t *testing.T) {
	arena := NewArena(100, newArenaEntityAllocator(), nil)
	require.Equal(t, 100, arena.Len())

	// Automatic finalization is disabled before any handle can
	// observe an element.
	for i := 0; i < arena.Len(); i++ {
		require.False(t, arena.Get(i).AutomaticFinalize())
	}

	// Bind handles to several elements and drop them all.
	handles := make([]checked.Ptr[*arenaEntity], 0, 10)
	for i := 0; i < 10; i++ {
		handles = append(handles, checked.NewPtr(arena.Get(i*7)))
	}
	for i := range handles {
		assert.Equal(t, 1, handles[i].Get().NumRef())
	}
	for i := range handles {
		handles[i].Release()
	}

	// Elements remain intact after every count dropped to zero.
	for i := 0; i < arena.Len(); i++ {
		e := arena.Get(i)
		assert.Equal(t, 0, e.NumRef())
		assert.False(t, e.finalized)
	}

	// Only explicit teardown reclaims them.
	arena.Teardown()
}

func TestArenaTeardownFinalizesEachElementOnce(t *testing.T) {
	alloc := newArenaEntityAllocator()
	var elems []*arenaEntity
	arena := NewArena(10, func() *arenaEntity {
		e := alloc()
		elems = append(elems, e)
		return e
	}, nil)

	arena.Teardown()

	for _, e := range elems {
		assert.True(t, e.finalized)
	}
}

func TestArenaTeardownWithLiveRefs(t *testing.T) {
	var err error
	checked.SetPanicFn(func(e error) {
		err = e
	})
	defer checked.ResetPanicFn()

	arena := NewArena(10, newArenaEntityAllocator(), nil)

	h := checked.NewPtr(arena.Get(3))
	arena.Teardown()
	require.Error(t, err)
	assert.Equal(t, "arena teardown with live refs, index=3, ref=1", err.Error())

	// Dropping the handle permits teardown.
	err = nil
	h.Release()
	arena.Teardown()
	assert.NoError(t, err)
}

func TestArenaUseAfterTeardown(t *testing.T) {
	var err error
	checked.SetPanicFn(func(e error) {
		err = e
	})
	defer checked.ResetPanicFn()

	arena := NewArena(4, newArenaEntityAllocator(), nil)
	arena.Teardown()

	arena.Get(0)
	require.Error(t, err)
	assert.Equal(t, "arena get after teardown", err.Error())

	err = nil
	arena.Teardown()
	require.Error(t, err)
	assert.Equal(t, "arena teardown more than once", err.Error())
}

func TestArenaIndexOutOfRange(t *testing.T) {
	var err error
	checked.SetPanicFn(func(e error) {
		err = e
	})
	defer checked.ResetPanicFn()

	arena := NewArena(4, newArenaEntityAllocator(), nil)
	defer arena.Teardown()

	arena.Get(4)
	require.Error(t, err)
	assert.Equal(t, "arena index out of range, index=4, len=4", err.Error())
}
