// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for AuthorizationsTotal.
const (
	OutcomeLinked          = "linked"
	OutcomeAccountInactive = "account_inactive"
	OutcomeIneligible      = "ineligible"
	OutcomeFault           = "fault"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildlink_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "guildlink_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// AuthorizationsTotal counts authorization attempts by outcome.
	AuthorizationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildlink_authorizations_total",
		Help: "Authorization attempts by outcome",
	}, []string{"outcome"})

	// LinkedAccountRemovals counts best-effort guild removals of linked chat accounts.
	LinkedAccountRemovals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guildlink_linked_account_removals_total",
		Help: "Guild removals of previously linked chat accounts by result",
	}, []string{"result"})

	// GatewayLatency records outbound API call latency by operation.
	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "guildlink_gateway_latency_seconds",
		Help:    "Latency of calls to the chat platform and identity provider",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// TrackGateway returns a function that records outbound call latency when called.
func TrackGateway(operation string) func() {
	start := time.Now()
	return func() {
		GatewayLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// RecordRemoval counts one linked-account removal result.
func RecordRemoval(err error) {
	if err != nil {
		LinkedAccountRemovals.WithLabelValues("failed").Inc()
		return
	}
	LinkedAccountRemovals.WithLabelValues("removed").Inc()
}
