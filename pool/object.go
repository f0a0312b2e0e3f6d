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
	"sync"

	"github.com/uber-go/tally"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type objectPool struct {
	opts     ObjectPoolOptions
	alloc    Allocator
	shards   []poolShard
	seq      atomic.Uint64
	initOnce atomic.Bool
	closed   atomic.Bool
	refillWg sync.WaitGroup
	metrics  objectPoolMetrics
}

type poolShard struct {
	values              chan interface{}
	refillLowWatermark  int
	refillHighWatermark int
	refilling           atomic.Bool
}

type objectPoolMetrics struct {
	free       tally.Gauge
	total      tally.Gauge
	getOnEmpty tally.Counter
	putOnFull  tally.Counter
}

// NewObjectPool creates a new object pool.
func NewObjectPool(opts ObjectPoolOptions) ObjectPool {
	if opts == nil {
		opts = NewObjectPoolOptions()
	}

	shardCount := opts.ShardCount()
	if shardCount < 1 {
		shardCount = 1
	}
	shardSize := (opts.Size() + shardCount - 1) / shardCount
	if shardSize < 1 {
		shardSize = 1
	}

	shards := make([]poolShard, shardCount)
	for i := range shards {
		shards[i] = poolShard{
			values:              make(chan interface{}, shardSize),
			refillLowWatermark:  int(opts.RefillLowWatermark() * float64(shardSize)),
			refillHighWatermark: int(opts.RefillHighWatermark() * float64(shardSize)),
		}
	}

	scope := opts.InstrumentOptions().MetricsScope()

	return &objectPool{
		opts:   opts,
		shards: shards,
		metrics: objectPoolMetrics{
			free:       scope.Gauge("free"),
			total:      scope.Gauge("total"),
			getOnEmpty: scope.Counter("get-on-empty"),
			putOnFull:  scope.Counter("put-on-full"),
		},
	}
}

func (p *objectPool) Init(alloc Allocator) {
	if !p.initOnce.CompareAndSwap(false, true) {
		panic("object pool already initialized")
	}

	p.alloc = alloc
	total := 0
	for i := range p.shards {
		shard := &p.shards[i]
		for len(shard.values) < cap(shard.values) {
			shard.values <- p.alloc()
			total++
		}
	}

	p.metrics.total.Update(float64(total))
	p.opts.InstrumentOptions().Logger().Debug("object pool initialized",
		zap.Int("size", total),
		zap.Int("shards", len(p.shards)))
}

func (p *objectPool) Get() interface{} {
	shard := p.shard()

	var v interface{}
	select {
	case v = <-shard.values:
	default:
		v = p.alloc()
		p.metrics.getOnEmpty.Inc(1)
	}

	free := len(shard.values)
	p.metrics.free.Update(float64(free))

	if shard.refillLowWatermark > 0 && free <= shard.refillLowWatermark {
		p.tryRefill(shard)
	}

	return v
}

func (p *objectPool) Put(obj interface{}) {
	shard := p.shard()
	select {
	case shard.values <- obj:
	default:
		p.metrics.putOnFull.Inc(1)
	}
}

func (p *objectPool) Close() {
	p.closed.Store(true)
	p.refillWg.Wait()
}

func (p *objectPool) shard() *poolShard {
	idx := p.seq.Inc() % uint64(len(p.shards))
	return &p.shards[idx]
}

func (p *objectPool) tryRefill(shard *poolShard) {
	if !shard.refilling.CompareAndSwap(false, true) {
		return
	}
	if p.closed.Load() {
		shard.refilling.Store(false)
		return
	}

	p.refillWg.Add(1)
	go func() {
		defer func() {
			shard.refilling.Store(false)
			p.refillWg.Done()
		}()
		for len(shard.values) < shard.refillHighWatermark && !p.closed.Load() {
			select {
			case shard.values <- p.alloc():
			default:
				// Raced with puts past the high watermark.
				return
			}
		}
	}()
}
