package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UpstreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ippure_upstream_requests_total",
		Help: "Upstream IPPure requests by source and outcome",
	}, []string{"source", "outcome"})
	UpstreamDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ippure_upstream_duration_ms",
		Help:    "Upstream IPPure request duration in milliseconds",
		Buckets: []float64{50, 100, 200, 500, 1000, 2000, 5000, 10000, 15000},
	}, []string{"source"})
	LookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ippure_lookups_total",
		Help: "Merged lookups by result (complete, degraded, failed, cached)",
	}, []string{"result"})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ippure_cache_hits_total",
		Help: "Report cache hits by layer",
	}, []string{"layer"})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ippure_cache_misses_total",
		Help: "Lookups not answered by any cache layer",
	})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ippure_http_requests_total",
		Help: "Aggregator HTTP requests by path and status code",
	}, []string{"path", "code"})
)

func init() {
	prometheus.MustRegister(UpstreamRequestsTotal)
	prometheus.MustRegister(UpstreamDurationMs)
	prometheus.MustRegister(LookupsTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(HTTPRequestsTotal)
}

// ObserveUpstream records one upstream call.
func ObserveUpstream(source, outcome string, started time.Time) {
	UpstreamRequestsTotal.WithLabelValues(source, outcome).Inc()
	UpstreamDurationMs.WithLabelValues(source).Observe(float64(time.Since(started).Milliseconds()))
}

// Handler exposes the registered metrics.
func Handler() http.Handler { return promhttp.Handler() }
