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
	"github.com/pkg/errors"

	"github.com/keeldb/keelx/instrument"
)

// ObjectPoolConfiguration contains configuration for object pools.
type ObjectPoolConfiguration struct {
	// The total size of the pool.
	Size int `yaml:"size"`

	// The number of internal shards.
	ShardCount int `yaml:"shardCount"`

	// The watermark configuration.
	WaterMark WaterMarkConfiguration `yaml:"waterMark"`
}

// NewObjectPoolOptions creates a new set of object pool options.
func (c *ObjectPoolConfiguration) NewObjectPoolOptions(
	instrumentOpts instrument.Options,
) ObjectPoolOptions {
	size := defaultSize
	if c.Size != 0 {
		size = c.Size
	}
	shardCount := defaultShardCount
	if c.ShardCount != 0 {
		shardCount = c.ShardCount
	}
	return NewObjectPoolOptions().
		SetInstrumentOptions(instrumentOpts).
		SetSize(size).
		SetShardCount(shardCount).
		SetRefillLowWatermark(c.WaterMark.RefillLowWaterMark).
		SetRefillHighWatermark(c.WaterMark.RefillHighWaterMark)
}

// ArenaConfiguration contains configuration for entity arenas.
type ArenaConfiguration struct {
	// The number of elements to bulk-allocate.
	Size int `yaml:"size" validate:"min=1"`
}

// Validate validates the arena configuration.
func (c *ArenaConfiguration) Validate() error {
	if c.Size <= 0 {
		return errors.Errorf("arena size must be positive, size=%d", c.Size)
	}
	return nil
}

// WaterMarkConfiguration contains watermark configuration for pools.
type WaterMarkConfiguration struct {
	// The low watermark to start refilling the pool, if zero none.
	RefillLowWaterMark float64 `yaml:"lowWatermark" validate:"min=0.0,max=1.0"`

	// The high watermark to stop refilling the pool, if zero none.
	RefillHighWaterMark float64 `yaml:"highWatermark" validate:"min=0.0,max=1.0"`
}
