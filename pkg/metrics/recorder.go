package metrics

import (
	"time"
)

// RecordAPIRequest records an API request with its status and duration
func RecordAPIRequest(method string, status string, duration time.Duration) {
	APIRequests.WithLabelValues(method, status).Inc()
	APIRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordAPIError records an API error by type
func RecordAPIError(method string, errorType string) {
	errorTypeSan, _ := SanitizeLabel(errorType)
	APIErrors.WithLabelValues(method, errorTypeSan).Inc()
}

// RecordRateLimitWait records time spent in the rate limiter; waits above
// 10ms count as a rate-limited request
func RecordRateLimitWait(method string, wait time.Duration) {
	APIRateLimitWaitDuration.WithLabelValues(method).Observe(wait.Seconds())
	if wait > 10*time.Millisecond {
		APIRateLimitedTotal.WithLabelValues(method).Inc()
	}
}

// RecordCircuitBreakerTransition moves the state gauge from one state to another
func RecordCircuitBreakerTransition(from, to string) {
	CircuitBreakerState.WithLabelValues(from).Set(0)
	CircuitBreakerState.WithLabelValues(to).Set(1)
	if from != to {
		CircuitBreakerStateChanges.WithLabelValues(from, to).Inc()
	}
}

// RecordResourceOperation records a stack resource operation
func RecordResourceOperation(token, operation string, err error, duration time.Duration) {
	tokenSan, _ := SanitizeLabel(token)
	result := "success"
	if err != nil {
		result = "error"
	}
	ResourceOperations.WithLabelValues(tokenSan, operation, result).Inc()
	ResourceOperationDuration.WithLabelValues(tokenSan, operation).Observe(duration.Seconds())
}

// RecordInvokeCache records a data source cache hit or miss
func RecordInvokeCache(token string, hit bool) {
	tokenSan, _ := SanitizeLabel(token)
	result := "miss"
	if hit {
		result = "hit"
	}
	InvokeCacheRequests.WithLabelValues(tokenSan, result).Inc()
}

// RecordAgentRelease records a helm release operation
func RecordAgentRelease(release, action string, err error) {
	releaseSan, _ := SanitizeLabel(release)
	result := "success"
	if err != nil {
		result = "error"
	}
	AgentReleases.WithLabelValues(releaseSan, action, result).Inc()
}
