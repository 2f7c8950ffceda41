package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal *prometheus.CounterVec
	votesCastTotal    prometheus.Counter
	cacheHitsTotal    prometheus.Counter
	cacheMissesTotal  prometheus.Counter
	streamSubscribers prometheus.Gauge
	registerOnce      sync.Once
)

// Register initializes Prometheus metrics on the default registry.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "onevote",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed by the API.",
		}, []string{"method", "path", "status"})
		votesCastTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "onevote",
			Name:      "votes_cast_total",
			Help:      "Total votes accepted by the ledger.",
		})
		cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "onevote",
			Name:      "results_cache_hits_total",
			Help:      "Results served from the in-memory cache.",
		})
		cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "onevote",
			Name:      "results_cache_misses_total",
			Help:      "Results recomputed on a cache miss or expiry.",
		})
		streamSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "onevote",
			Name:      "stream_subscribers",
			Help:      "Live result stream connections currently open.",
		})
	})
}

// IncRequest increments the http_requests_total counter with the given labels.
func IncRequest(method, path string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func IncVote() {
	if votesCastTotal != nil {
		votesCastTotal.Inc()
	}
}

func IncCacheHit() {
	if cacheHitsTotal != nil {
		cacheHitsTotal.Inc()
	}
}

func IncCacheMiss() {
	if cacheMissesTotal != nil {
		cacheMissesTotal.Inc()
	}
}

func StreamSubscriberOpened() {
	if streamSubscribers != nil {
		streamSubscribers.Inc()
	}
}

func StreamSubscriberClosed() {
	if streamSubscribers != nil {
		streamSubscribers.Dec()
	}
}
