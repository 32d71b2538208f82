// Package metrics holds the Prometheus collectors exposed at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocatalog_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geocatalog_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// AuthEvents counts login, register and logout attempts.
	// Labels:
	//   - event: "login", "register", "logout"
	//   - outcome: "success", "failure", "error"
	AuthEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocatalog_auth_events_total",
			Help: "Total number of authentication events",
		},
		[]string{"event", "outcome"},
	)

	// EntityMutations counts entity writes by operation.
	EntityMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geocatalog_entity_mutations_total",
			Help: "Total number of entity create, update and delete operations",
		},
		[]string{"operation", "outcome"},
	)
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordAuthEvent records an authentication event.
func RecordAuthEvent(event, outcome string) {
	AuthEvents.WithLabelValues(event, outcome).Inc()
}

// RecordEntityMutation records an entity write.
func RecordEntityMutation(operation, outcome string) {
	EntityMutations.WithLabelValues(operation, outcome).Inc()
}
