package departures

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	fetchCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "departures_fetch_count",
		Help: "Number of departure requests sent to the upstream provider",
	}, []string{"source"})
	fetchErrorCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "departures_fetch_error_count",
		Help: "Number of departure requests that failed after all retries",
	}, []string{"source"})
	fetchDuration = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: "departures_fetch_seconds",
		Help: "Time spent fetching departures from the upstream provider",
	}, []string{"source"})
	cacheHitCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "departures_cache_hit_count",
		Help: "Number of departure lookups answered from the cache",
	})
)

func init() {
	prometheus.MustRegister(fetchCount, fetchErrorCount, fetchDuration, cacheHitCount)
}
