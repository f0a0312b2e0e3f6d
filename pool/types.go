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

// Package pool provides object recycling pools and bulk arenas for
// checked entities whose individual lifetimes are not governed by
// their ref counts.
package pool

import (
	"github.com/keeldb/keelx/instrument"
)

// Allocator allocates an object for a pool.
type Allocator func() interface{}

// ObjectPool provides a pool for objects.
type ObjectPool interface {
	// Init initializes the pool.
	Init(alloc Allocator)

	// Get provides an object from the pool.
	Get() interface{}

	// Put returns an object to the pool.
	Put(obj interface{})

	// Close waits for any background refills to drain, the pool must
	// not be used afterwards.
	Close()
}

// ObjectPoolOptions provides options for an object pool.
type ObjectPoolOptions interface {
	// SetSize sets the total capacity of the pool across all shards.
	SetSize(value int) ObjectPoolOptions

	// Size returns the total capacity of the pool across all shards.
	Size() int

	// SetShardCount sets the number of internal shards.
	SetShardCount(value int) ObjectPoolOptions

	// ShardCount returns the number of internal shards.
	ShardCount() int

	// SetRefillLowWatermark sets the refill low watermark as a
	// fraction of shard capacity, if zero the pool never refills in
	// the background.
	SetRefillLowWatermark(value float64) ObjectPoolOptions

	// RefillLowWatermark returns the refill low watermark.
	RefillLowWatermark() float64

	// SetRefillHighWatermark sets the refill high watermark as a
	// fraction of shard capacity.
	SetRefillHighWatermark(value float64) ObjectPoolOptions

	// RefillHighWatermark returns the refill high watermark.
	RefillHighWatermark() float64

	// SetInstrumentOptions sets the instrument options.
	SetInstrumentOptions(value instrument.Options) ObjectPoolOptions

	// InstrumentOptions returns the instrument options.
	InstrumentOptions() instrument.Options
}
