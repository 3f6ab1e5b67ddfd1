// Package pool implements a sharded, backpressure-aware object pool for
// multi-threaded Go hosts: a process-local cache of pre-constructed objects
// that callers lease and return, amortising allocation and initialisation
// costs on hot paths.
package pool

import (
	"sync/atomic"
)

// Config holds the configuration for a new Pool.
type Config[T any, P Poolable[T]] struct {
	// PoolSize is the total number of objects to construct across all
	// shards, partitioned by balanced division.
	PoolSize int

	// ShardCount is the number of independent lock-protected shards.
	ShardCount int

	// QueueCapacity is the backpressure queue's initial capacity.
	QueueCapacity int

	// Allocator supplies the object lifecycle hooks.
	Allocator Allocator[T]

	// ErrorSink receives one report per distinct failure. Defaults to a
	// zap-backed sink writing to the process's standard error channel.
	ErrorSink ErrorSink
}

// DefaultConfig returns a modest starting point: total size 16, shard
// count 4, queue capacity 32.
func DefaultConfig[T any, P Poolable[T]](alloc Allocator[T]) Config[T, P] {
	return Config[T, P]{
		PoolSize:      16,
		ShardCount:    4,
		QueueCapacity: 32,
		Allocator:     alloc,
	}
}

// Pool is the sharded object pool core.
type Pool[T any, P Poolable[T]] struct {
	shards []*shard[T, P]
	queue  *backpressureQueue[T, P]

	alloc Allocator[T]
	sink  ErrorSink

	peakBusyGlobal atomic.Int64
	totalAllocated atomic.Uint64
	growCount      atomic.Uint64
	shrinkCount    atomic.Uint64

	destroyed atomic.Bool
}

// Create builds a fully populated Pool per cfg. PoolSize and ShardCount
// must each be >= 1, ShardCount must not exceed MaxShardCount.
func Create[T any, P Poolable[T]](cfg Config[T, P]) (*Pool[T, P], error) {
	sink := cfg.ErrorSink
	if sink == nil {
		sink = defaultErrorSink
	}

	if cfg.PoolSize < 1 || cfg.ShardCount < 1 {
		sink(KindInvalidSize, "PoolSize and ShardCount must each be >= 1", cfg)
		return nil, ErrInvalidSize
	}
	if cfg.ShardCount > MaxShardCount {
		sink(KindInvalidSize, "ShardCount exceeds MaxShardCount", cfg.ShardCount)
		return nil, ErrTooManyShards
	}
	if cfg.Allocator.Allocate == nil {
		sink(KindAllocFailed, "no Allocate hook configured", nil)
		return nil, ErrNoAllocator
	}
	if cfg.Allocator.Release == nil {
		sink(KindAllocFailed, "no Release hook configured", nil)
		return nil, ErrNoRelease
	}

	qc := cfg.QueueCapacity
	if qc < 1 {
		qc = 32
	}

	alloc := cfg.Allocator.withDefaults()

	p := &Pool[T, P]{
		alloc: alloc,
		sink:  sink,
		queue: newBackpressureQueue[T, P](qc),
	}

	p.shards = make([]*shard[T, P], cfg.ShardCount)
	for i := range p.shards {
		p.shards[i] = &shard[T, P]{
			id:    uint16(i),
			alloc: alloc,
			sink:  sink,
			queue: p.queue,
		}
	}

	base, rem := partition(cfg.PoolSize, cfg.ShardCount)
	for i, s := range p.shards {
		n := base
		if i < rem {
			n++
		}
		if n == 0 {
			continue
		}
		if _, err := s.growBy(n); err != nil {
			sink(KindAllocFailed, "failed to construct initial pool objects", err)
			return nil, err
		}
	}

	p.totalAllocated.Store(uint64(cfg.PoolSize))
	return p, nil
}

// partition balances n across shardCount: shard i gets base+(1 if i<rem
// else 0). Used by Create, Grow, and Shrink so no shard drifts far from
// its neighbors.
func partition(n, shardCount int) (base, rem int) {
	return n / shardCount, n % shardCount
}

func (p *Pool[T, P]) reportf(kind ErrorKind, msg string, ctx any) {
	p.sink(kind, msg, ctx)
}

// Lease acquires an object from the pool without parking. Returns
// ErrExhausted if no shard has a free, valid slot.
func (p *Pool[T, P]) Lease() (P, error) {
	var zero P
	if p.destroyed.Load() {
		p.reportf(KindInvalidPool, "Lease called on destroyed pool", nil)
		return zero, ErrInvalidPool
	}

	if obj, ok := p.tryLeaseAnyShard(); ok {
		return obj, nil
	}

	p.reportf(KindExhausted, "no free object available and no parked-lease callback supplied", nil)
	return zero, ErrExhausted
}

// LeasePark acquires an object if one is immediately available. Otherwise,
// if the backpressure queue has room (growing it if needed), it parks
// (callback, ctx) and returns with parked=true; callback fires exactly
// once, later, under the shard lock of whichever shard services it — it
// must not block and must not re-enter this pool.
func (p *Pool[T, P]) LeasePark(callback func(obj P, ctx any), ctx any) (obj P, parked bool, err error) {
	var zero P
	if p.destroyed.Load() {
		p.reportf(KindInvalidPool, "LeasePark called on destroyed pool", nil)
		return zero, false, ErrInvalidPool
	}

	if obj, ok := p.tryLeaseAnyShard(); ok {
		return obj, false, nil
	}

	req := parkedRequest[T, P]{callback: callback, ctx: ctx}

	p.queue.mu.Lock()
	if p.queue.push(req) {
		p.queue.mu.Unlock()
		return zero, true, nil
	}
	grownCap := p.queue.capacity()
	p.queue.grow(grownCap)
	ok := p.queue.push(req)
	p.queue.mu.Unlock()

	if !ok {
		p.reportf(KindQueueFull, "backpressure queue full and growth failed", nil)
		return zero, false, ErrQueueFull
	}

	return zero, true, nil
}

// tryLeaseAnyShard picks a random entry shard, then linearly probes every
// shard mod shardCount, one lock acquisition per shard tried, until one
// yields a free slot or all have been tried.
func (p *Pool[T, P]) tryLeaseAnyShard() (P, bool) {
	shardCount := len(p.shards)
	entry := nextShardEntry(shardCount)

	for i := 0; i < shardCount; i++ {
		idx := (entry + i) % shardCount
		if obj, ok := p.shards[idx].lease(); ok {
			p.bumpGlobalPeak()
			return obj, true
		}
	}

	var zero P
	return zero, false
}

// bumpGlobalPeak recomputes the pool-global peak via a second scan over
// all shards, taken after releasing the shard lock that produced the
// lease. This is best-effort and racy with concurrent leases in flight;
// only monotonicity is required, which a max-with-CAS loop guarantees
// regardless of races.
func (p *Pool[T, P]) bumpGlobalPeak() {
	var sum int64
	for _, s := range p.shards {
		sum += int64(s.used())
	}
	for {
		cur := p.peakBusyGlobal.Load()
		if sum <= cur {
			return
		}
		if p.peakBusyGlobal.CompareAndSwap(cur, sum) {
			return
		}
	}
}

// Return gives an object back to the pool. If a request is parked, the
// object is handed off to the oldest one synchronously, before Return
// returns.
func (p *Pool[T, P]) Return(obj P) error {
	if p.destroyed.Load() {
		p.reportf(KindInvalidPool, "Return called on destroyed pool", nil)
		return ErrInvalidPool
	}

	shardID, slot := obj.location()
	if int(shardID) >= len(p.shards) {
		p.reportf(KindInvalidObject, "object does not belong to this pool", obj)
		return ErrInvalidObject
	}

	ok, _ := p.shards[shardID].verifyAndFree(obj, slot)
	if !ok {
		p.reportf(KindInvalidObject, "stale, already-free, or foreign object returned", obj)
		return ErrInvalidObject
	}

	return nil
}

// Grow adds n objects to the pool, partitioned across shards by balanced
// division. If allocation fails partway through, shards already grown
// keep their new size; the operation reports AllocFailed and pool-level
// counters (TotalAllocated, GrowCount) are left unchanged unless every
// shard grows successfully (see DESIGN.md's Open Question Decisions).
func (p *Pool[T, P]) Grow(n int) error {
	if p.destroyed.Load() {
		p.reportf(KindInvalidPool, "Grow called on destroyed pool", nil)
		return ErrInvalidPool
	}
	if n < 1 {
		p.reportf(KindInvalidSize, "Grow requires n >= 1", n)
		return ErrInvalidSize
	}

	base, rem := partition(n, len(p.shards))
	var added uint64
	for i, s := range p.shards {
		want := base
		if i < rem {
			want++
		}
		if want == 0 {
			continue
		}
		got, err := s.growBy(want)
		added += uint64(got)
		if err != nil {
			p.reportf(KindAllocFailed, "grow failed partway through; earlier shards keep their new size", err)
			return err
		}
	}

	p.totalAllocated.Add(added)
	p.growCount.Add(1)
	return nil
}

// Shrink removes n objects from the pool, partitioned the same way as
// Grow. If any affected shard cannot free n/shardCount (+1) slots without
// touching a busy slot, Shrink stops at that shard: earlier shards that
// already shrank stay shrunk, later shards are left untouched, and
// ErrInsufficientFree is returned. The failing shard itself destroys no
// objects; objects already removed from earlier shards stay destroyed.
func (p *Pool[T, P]) Shrink(n int) error {
	if p.destroyed.Load() {
		p.reportf(KindInvalidPool, "Shrink called on destroyed pool", nil)
		return ErrInvalidPool
	}
	if n < 1 || n > p.Capacity() {
		p.reportf(KindInvalidSize, "Shrink requires 1 <= n <= Capacity()", n)
		return ErrInvalidSize
	}

	base, rem := partition(n, len(p.shards))
	for i, s := range p.shards {
		want := base
		if i < rem {
			want++
		}
		if want == 0 {
			continue
		}
		if err := s.shrinkBy(want); err != nil {
			p.reportf(KindInsufficientFree, "shrink stopped at a shard with too few free slots", i)
			return err
		}
	}

	p.shrinkCount.Add(1)
	return nil
}

// GrowQueue increases the backpressure queue's capacity by delta.
func (p *Pool[T, P]) GrowQueue(delta int) error {
	if p.destroyed.Load() {
		p.reportf(KindInvalidPool, "GrowQueue called on destroyed pool", nil)
		return ErrInvalidPool
	}
	if delta < 1 {
		p.reportf(KindInvalidSize, "GrowQueue requires delta >= 1", delta)
		return ErrInvalidSize
	}

	p.queue.mu.Lock()
	p.queue.grow(delta)
	p.queue.mu.Unlock()
	return nil
}

// UsedCount returns the current sum of busy counts across all shards.
func (p *Pool[T, P]) UsedCount() int {
	var sum int
	for _, s := range p.shards {
		sum += s.used()
	}
	return sum
}

// Capacity returns the current sum of shard sizes.
func (p *Pool[T, P]) Capacity() int {
	var sum int
	for _, s := range p.shards {
		sum += s.size()
	}
	return sum
}

// Destroy fires OnDestruct/Release on every slot across every shard and
// drops any remaining parked requests without invoking them. Safe to call
// once; subsequent public operations report InvalidPool and no-op.
func (p *Pool[T, P]) Destroy() {
	if !p.destroyed.CompareAndSwap(false, true) {
		return
	}

	for _, s := range p.shards {
		s.destroy()
	}

	p.queue.mu.Lock()
	p.queue.buf = nil
	p.queue.size = 0
	p.queue.head = 0
	p.queue.mu.Unlock()
}
