package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProviderCalls counts outbound DNS provider calls by outcome
	ProviderCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subdns_provider_calls_total",
		Help: "Total number of DNS provider API calls",
	}, []string{"provider", "operation", "result"})

	// ProviderCallDuration tracks provider call latency
	ProviderCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "subdns_provider_call_duration_seconds",
		Help:    "Histogram of DNS provider API call duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "operation"})

	// DomainTransitions counts subdomain records entering each status
	DomainTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subdns_domain_transitions_total",
		Help: "Total number of subdomain records entering a status",
	}, []string{"status"})

	// RateLimited counts requests rejected by the rate limiter
	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subdns_rate_limited_total",
		Help: "Total number of requests rejected by rate limiting",
	}, []string{"scope"})
)
