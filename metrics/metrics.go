package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samu_rewards_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "samu_rewards_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	VotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samu_rewards_votes_total",
			Help: "Vote submissions by outcome",
		},
		[]string{"result"},
	)

	DistributionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samu_rewards_distributions_total",
			Help: "Distribution recording attempts by outcome",
		},
		[]string{"result"},
	)

	StaleDistributions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "samu_rewards_stale_distributions",
			Help: "Distributions not completed within the configured window at last sweep",
		},
	)

	BreakdownCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samu_rewards_breakdown_cache_total",
			Help: "Reward breakdown cache lookups",
		},
		[]string{"result"},
	)

	ReconcilerEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samu_rewards_balance_reconciler_events_total",
			Help: "Optimistic balance events: applied, rollback, refresh, refresh_error",
		},
		[]string{"event"},
	)

	RPCRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "samu_rewards_solana_rpc_requests_total",
			Help: "Solana RPC calls by method and status",
		},
		[]string{"method", "status"},
	)
)
