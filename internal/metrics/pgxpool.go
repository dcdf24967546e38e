package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is a snapshot of connection pool usage.
type PoolStats struct {
	Acquired int32
	Idle     int32
	Total    int32
	Max      int32
}

// PgxPoolStats adapts a pgx pool to a PoolStats source.
func PgxPoolStats(pool *pgxpool.Pool) func() PoolStats {
	return func() PoolStats {
		s := pool.Stat()
		return PoolStats{
			Acquired: s.AcquiredConns(),
			Idle:     s.IdleConns(),
			Total:    s.TotalConns(),
			Max:      s.MaxConns(),
		}
	}
}

type poolCollector struct {
	stats    func() PoolStats
	acquired *prometheus.Desc
	idle     *prometheus.Desc
	total    *prometheus.Desc
	max      *prometheus.Desc
}

// NewPoolCollector exposes pool statistics as gauges, read at scrape time.
func NewPoolCollector(stats func() PoolStats) prometheus.Collector {
	return &poolCollector{
		stats:    stats,
		acquired: prometheus.NewDesc("pgxpool_acquired_conns", "Number of currently acquired connections in the pool", nil, nil),
		idle:     prometheus.NewDesc("pgxpool_idle_conns", "Number of idle connections in the pool", nil, nil),
		total:    prometheus.NewDesc("pgxpool_total_conns", "Total number of connections in the pool", nil, nil),
		max:      prometheus.NewDesc("pgxpool_max_conns", "Maximum number of connections in the pool", nil, nil),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.acquired
	ch <- c.idle
	ch <- c.total
	ch <- c.max
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	ch <- prometheus.MustNewConstMetric(c.acquired, prometheus.GaugeValue, float64(s.Acquired))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(s.Idle))
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(s.Total))
	ch <- prometheus.MustNewConstMetric(c.max, prometheus.GaugeValue, float64(s.Max))
}

// RegisterPgxPoolMetrics exposes pgx connection pool statistics on the
// default registry.
func RegisterPgxPoolMetrics(pool *pgxpool.Pool) {
	prometheus.MustRegister(NewPoolCollector(PgxPoolStats(pool)))
}
