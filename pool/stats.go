package pool

// Stats is a point-in-time, eventually-consistent snapshot of pool
// counters. Per-shard fields are summed under brief per-shard locks;
// pool-global counters are loaded atomically without any lock and the
// queue fields are read under the queue lock, so the fields together may
// lag slightly behind concurrent mutators — they are still monotonic.
type Stats struct {
	Leases             uint64
	Returns            uint64
	ContentionAttempts uint64
	ContentionNanos    uint64

	PeakBusyGlobal int64
	TotalAllocated uint64
	GrowCount      uint64
	ShrinkCount    uint64

	QueueMaxSize      int
	QueueGrowthEvents uint64
}

// SnapshotStats fills out with a fresh aggregate reading taken across all
// shards and the backpressure queue.
func (p *Pool[T, P]) SnapshotStats(out *Stats) {
	var leases, returns, waitAttempts, waitNanos uint64

	for _, s := range p.shards {
		l, r, wa, wn, _, _, _ := s.snapshot()
		leases += l
		returns += r
		waitAttempts += wa
		waitNanos += wn
	}

	out.Leases = leases
	out.Returns = returns
	out.ContentionAttempts = waitAttempts
	out.ContentionNanos = waitNanos

	out.PeakBusyGlobal = p.peakBusyGlobal.Load()
	out.TotalAllocated = p.totalAllocated.Load()
	out.GrowCount = p.growCount.Load()
	out.ShrinkCount = p.shrinkCount.Load()

	p.queue.mu.Lock()
	out.QueueMaxSize = p.queue.maxSize
	out.QueueGrowthEvents = p.queue.growthEvents
	p.queue.mu.Unlock()
}

// PerShardLeaseCounts returns one lifetime lease count per shard, each read
// under that shard's own lock (the same discipline SnapshotStats uses).
func (p *Pool[T, P]) PerShardLeaseCounts() ([]uint64, error) {
	if p.destroyed.Load() {
		p.reportf(KindInvalidPool, "PerShardLeaseCounts called on destroyed pool", nil)
		return nil, ErrInvalidPool
	}

	counts := make([]uint64, len(p.shards))
	for i, s := range p.shards {
		counts[i] = s.leaseCountOnly()
	}
	return counts, nil
}
