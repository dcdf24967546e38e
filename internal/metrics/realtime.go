package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RealtimeSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_subscribers",
		Help: "Number of connected realtime subscribers",
	})

	RealtimeNotices = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_notices_total",
		Help: "Invalidation notices by outcome",
	}, []string{"outcome"})
)
