package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

const (
	// Namespace is the metrics namespace for the CAST AI bindings
	Namespace = "castai_iac"
)

var (
	// APIRequests tracks the number of CAST AI API requests
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "api_requests_total",
			Help:      "Total number of CAST AI API requests",
		},
		[]string{"method", "status"},
	)

	// APIRequestDuration tracks the duration of CAST AI API requests
	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Duration of CAST AI API requests",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to 40s
		},
		[]string{"method"},
	)

	// APIErrors tracks API errors by type
	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "api_errors_total",
			Help:      "Total number of CAST AI API errors by type",
		},
		[]string{"method", "error_type"},
	)

	// APIRetries tracks retried API requests
	APIRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "api_retries_total",
			Help:      "Total number of retried CAST AI API requests",
		},
		[]string{"method"},
	)

	// APIRateLimitedTotal tracks the number of times API requests were rate limited
	APIRateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "api_rate_limited_total",
			Help:      "Total number of times CAST AI API requests were rate limited",
		},
		[]string{"method"},
	)

	// APIRateLimitWaitDuration tracks the time spent waiting for rate limiter
	APIRateLimitWaitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "api_rate_limit_wait_duration_seconds",
			Help:      "Time spent waiting for CAST AI API rate limiter",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to 4s
		},
		[]string{"method"},
	)

	// CircuitBreakerState is 1 for the current circuit breaker state and 0 otherwise
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "api_circuit_breaker_state",
			Help:      "Current state of the CAST AI API circuit breaker",
		},
		[]string{"state"},
	)

	// CircuitBreakerStateChanges tracks circuit breaker transitions
	CircuitBreakerStateChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "api_circuit_breaker_state_changes_total",
			Help:      "Total number of CAST AI API circuit breaker state changes",
		},
		[]string{"from", "to"},
	)

	// CircuitBreakerRejected tracks calls rejected while the circuit was open
	CircuitBreakerRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "api_circuit_breaker_rejected_total",
			Help:      "Total number of CAST AI API calls rejected by the circuit breaker",
		},
	)

	// ResourceOperations tracks stack resource operations
	ResourceOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "resource_operations_total",
			Help:      "Total number of resource operations by token, operation and result",
		},
		[]string{"token", "operation", "result"},
	)

	// ResourceOperationDuration tracks the duration of stack resource operations
	ResourceOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "resource_operation_duration_seconds",
			Help:      "Duration of resource operations",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to 32s
		},
		[]string{"token", "operation"},
	)

	// InvokeCacheRequests tracks data source cache lookups
	InvokeCacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "invoke_cache_requests_total",
			Help:      "Total number of data source cache lookups by result",
		},
		[]string{"token", "result"},
	)

	// AgentReleases tracks helm release operations for CAST AI components
	AgentReleases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "agent_releases_total",
			Help:      "Total number of CAST AI helm release operations",
		},
		[]string{"release", "action", "result"},
	)

	// AuditEventsTotal tracks audit events by type, category and severity
	AuditEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "audit_events_total",
			Help:      "Total number of audit events",
		},
		[]string{"event_type", "category", "severity"},
	)
)

var collectors = []prometheus.Collector{
	APIRequests,
	APIRequestDuration,
	APIErrors,
	APIRetries,
	APIRateLimitedTotal,
	APIRateLimitWaitDuration,
	CircuitBreakerState,
	CircuitBreakerStateChanges,
	CircuitBreakerRejected,
	ResourceOperations,
	ResourceOperationDuration,
	InvokeCacheRequests,
	AgentReleases,
	AuditEventsTotal,
}

// RegisterMetrics registers all metrics with the controller-runtime metrics registry.
// Collectors that are already registered are skipped.
func RegisterMetrics() error {
	for _, c := range collectors {
		if err := metrics.Registry.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ResetMetrics resets all metrics (useful for testing)
func ResetMetrics() {
	APIRequests.Reset()
	APIRequestDuration.Reset()
	APIErrors.Reset()
	APIRetries.Reset()
	APIRateLimitedTotal.Reset()
	APIRateLimitWaitDuration.Reset()
	CircuitBreakerState.Reset()
	CircuitBreakerStateChanges.Reset()
	ResourceOperations.Reset()
	ResourceOperationDuration.Reset()
	InvokeCacheRequests.Reset()
	AgentReleases.Reset()
	AuditEventsTotal.Reset()
}

// Dump writes the registry contents in the Prometheus text exposition format
func Dump(w io.Writer) error {
	families, err := metrics.Registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
