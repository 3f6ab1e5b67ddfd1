package pool

import "github.com/prometheus/client_golang/prometheus"

// Collector adapts a Pool's Stats into a read-only prometheus.Collector,
// for hosts that already register their own metrics with a
// prometheus.Registry.
type Collector[T any, P Poolable[T]] struct {
	pool *Pool[T, P]

	leases        *prometheus.Desc
	returns       *prometheus.Desc
	contention    *prometheus.Desc
	peakBusy      *prometheus.Desc
	totalAlloc    *prometheus.Desc
	growCount     *prometheus.Desc
	shrinkCount   *prometheus.Desc
	queueMaxSize  *prometheus.Desc
	queueGrowth   *prometheus.Desc
	usedCount     *prometheus.Desc
	capacityCount *prometheus.Desc
}

// NewCollector wraps p for registration with a prometheus.Registry.
// Metric names are namespaced under "concpool".
func NewCollector[T any, P Poolable[T]](p *Pool[T, P]) *Collector[T, P] {
	return &Collector[T, P]{
		pool:          p,
		leases:        prometheus.NewDesc("concpool_leases_total", "Lifetime lease count across all shards.", nil, nil),
		returns:       prometheus.NewDesc("concpool_returns_total", "Lifetime return count across all shards.", nil, nil),
		contention:    prometheus.NewDesc("concpool_lock_wait_nanoseconds_total", "Cumulative shard lock wait time.", nil, nil),
		peakBusy:      prometheus.NewDesc("concpool_peak_busy", "Maximum concurrent busy slots observed pool-wide.", nil, nil),
		totalAlloc:    prometheus.NewDesc("concpool_total_allocated", "Lifetime count of objects constructed.", nil, nil),
		growCount:     prometheus.NewDesc("concpool_grow_events_total", "Number of successful Grow calls.", nil, nil),
		shrinkCount:   prometheus.NewDesc("concpool_shrink_events_total", "Number of successful Shrink calls.", nil, nil),
		queueMaxSize:  prometheus.NewDesc("concpool_queue_max_size", "Historical maximum backpressure queue size.", nil, nil),
		queueGrowth:   prometheus.NewDesc("concpool_queue_growth_events_total", "Number of backpressure queue growth events.", nil, nil),
		usedCount:     prometheus.NewDesc("concpool_used", "Current sum of busy counts across all shards.", nil, nil),
		capacityCount: prometheus.NewDesc("concpool_capacity", "Current sum of shard sizes.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector[T, P]) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.leases
	ch <- c.returns
	ch <- c.contention
	ch <- c.peakBusy
	ch <- c.totalAlloc
	ch <- c.growCount
	ch <- c.shrinkCount
	ch <- c.queueMaxSize
	ch <- c.queueGrowth
	ch <- c.usedCount
	ch <- c.capacityCount
}

// Collect implements prometheus.Collector. It is a thin read-only view
// over SnapshotStats and does not redefine the pool's statistics
// semantics.
func (c *Collector[T, P]) Collect(ch chan<- prometheus.Metric) {
	var s Stats
	c.pool.SnapshotStats(&s)

	ch <- prometheus.MustNewConstMetric(c.leases, prometheus.CounterValue, float64(s.Leases))
	ch <- prometheus.MustNewConstMetric(c.returns, prometheus.CounterValue, float64(s.Returns))
	ch <- prometheus.MustNewConstMetric(c.contention, prometheus.CounterValue, float64(s.ContentionNanos))
	ch <- prometheus.MustNewConstMetric(c.peakBusy, prometheus.GaugeValue, float64(s.PeakBusyGlobal))
	ch <- prometheus.MustNewConstMetric(c.totalAlloc, prometheus.CounterValue, float64(s.TotalAllocated))
	ch <- prometheus.MustNewConstMetric(c.growCount, prometheus.CounterValue, float64(s.GrowCount))
	ch <- prometheus.MustNewConstMetric(c.shrinkCount, prometheus.CounterValue, float64(s.ShrinkCount))
	ch <- prometheus.MustNewConstMetric(c.queueMaxSize, prometheus.GaugeValue, float64(s.QueueMaxSize))
	ch <- prometheus.MustNewConstMetric(c.queueGrowth, prometheus.CounterValue, float64(s.QueueGrowthEvents))
	ch <- prometheus.MustNewConstMetric(c.usedCount, prometheus.GaugeValue, float64(c.pool.UsedCount()))
	ch <- prometheus.MustNewConstMetric(c.capacityCount, prometheus.GaugeValue, float64(c.pool.Capacity()))
}
