package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "hyperdemos"

var (
	RemoteCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_calls_total",
			Help:      "Total number of outbound calls to hosted services, labeled by outcome.",
		},
		[]string{"service", "operation", "outcome"},
	)

	RemoteCallRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_call_retries_total",
			Help:      "Total number of retries issued after transient failures.",
		},
		[]string{"service", "operation"},
	)

	RemoteCallLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_call_latency_seconds",
			Help:      "Latency of outbound calls including retries (seconds).",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "operation"},
	)

	RemoteJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_jobs_total",
			Help:      "Total number of extraction and scrape jobs, labeled by final status.",
		},
		[]string{"kind", "status"},
	)

	RecordsExcludedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_excluded_total",
			Help:      "Total number of extracted records dropped for failing validation.",
		},
		[]string{"kind"},
	)

	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Total number of memoized lookups, labeled by hit or miss.",
		},
		[]string{"cache", "outcome"},
	)

	RateLimitHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total number of calls delayed or rejected by a rate limit.",
		},
		[]string{"scope"},
	)
)

func init() {
	prometheus.MustRegister(
		RemoteCallsTotal,
		RemoteCallRetriesTotal,
		RemoteCallLatencySeconds,
		RemoteJobsTotal,
		RecordsExcludedTotal,
		CacheLookupsTotal,
		RateLimitHitsTotal,
	)
}
