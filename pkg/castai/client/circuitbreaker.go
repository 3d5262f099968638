package client

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/castai/pulumi-castai/pkg/metrics"
)

var (
	// ErrCircuitOpen is returned when the circuit breaker rejects a call
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// CircuitBreakerState represents the state of the circuit breaker
type CircuitBreakerState string

const (
	// StateClosed means requests are allowed through
	StateClosed CircuitBreakerState = "closed"

	// StateOpen means requests are blocked
	StateOpen CircuitBreakerState = "open"

	// StateHalfOpen means a limited number of probe requests are allowed
	StateHalfOpen CircuitBreakerState = "half-open"
)

// CircuitBreakerConfig configures the circuit breaker behavior
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before opening
	FailureThreshold int

	// SuccessThreshold is the number of consecutive successes to close from half-open
	SuccessThreshold int

	// Timeout is how long to stay open before probing in half-open
	Timeout time.Duration

	// MaxHalfOpenRequests is the max concurrent probes in half-open state
	MaxHalfOpenRequests int

	// OnStateChange is an optional callback invoked asynchronously on transitions
	OnStateChange func(from, to CircuitBreakerState, reason string)
}

// DefaultCircuitBreakerConfig returns the default circuit breaker configuration
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:    5,
		SuccessThreshold:    2,
		Timeout:             30 * time.Second,
		MaxHalfOpenRequests: 1,
	}
}

// CircuitBreakerStats is a snapshot of circuit breaker counters
type CircuitBreakerStats struct {
	State               CircuitBreakerState
	ConsecutiveFailures int
	ConsecutiveSuccess  int
	LastStateChange     time.Time
	TotalRequests       int64
	TotalFailures       int64
	TotalRejected       int64
}

// CircuitBreaker guards calls to the CAST AI API. Only transport failures
// and server-side errors count as failures; client errors (4xx) do not.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	logger *zap.Logger
	mu     sync.Mutex

	state            CircuitBreakerState
	failures         int
	successes        int
	halfOpenInFlight int
	lastStateChange  time.Time

	totalRequests int64
	totalFailures int64
	totalRejected int64
}

// NewCircuitBreaker creates a closed circuit breaker
func NewCircuitBreaker(config CircuitBreakerConfig, logger *zap.Logger) *CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxHalfOpenRequests <= 0 {
		config.MaxHalfOpenRequests = 1
	}

	metrics.CircuitBreakerState.WithLabelValues(string(StateClosed)).Set(1)
	metrics.CircuitBreakerState.WithLabelValues(string(StateOpen)).Set(0)
	metrics.CircuitBreakerState.WithLabelValues(string(StateHalfOpen)).Set(0)

	return &CircuitBreaker{
		config:          config,
		logger:          logger,
		state:           StateClosed,
		lastStateChange: time.Now(),
	}
}

// Call executes fn with circuit breaker protection. The failure classifier
// decides whether a returned error should count against the breaker.
func (cb *CircuitBreaker) Call(fn func() error, isFailure func(error) bool) error {
	if err := cb.beforeCall(); err != nil {
		return err
	}

	err := fn()
	failed := err != nil
	if failed && isFailure != nil {
		failed = isFailure(err)
	}
	cb.afterCall(failed)

	return err
}

func (cb *CircuitBreaker) beforeCall() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.totalRequests++

	switch cb.state {
	case StateClosed:
		return nil

	case StateOpen:
		if time.Since(cb.lastStateChange) >= cb.config.Timeout {
			cb.transitionTo(StateHalfOpen, "timeout elapsed")
			cb.halfOpenInFlight++
			return nil
		}
		cb.reject()
		return ErrCircuitOpen

	case StateHalfOpen:
		if cb.halfOpenInFlight >= cb.config.MaxHalfOpenRequests {
			cb.reject()
			return ErrCircuitOpen
		}
		cb.halfOpenInFlight++
		return nil

	default:
		return fmt.Errorf("unknown circuit breaker state: %s", cb.state)
	}
}

func (cb *CircuitBreaker) reject() {
	cb.totalRejected++
	metrics.CircuitBreakerRejected.Inc()
}

func (cb *CircuitBreaker) afterCall(failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if failed {
		cb.totalFailures++
	}

	switch cb.state {
	case StateClosed:
		if !failed {
			cb.failures = 0
			return
		}
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.transitionTo(StateOpen, fmt.Sprintf("failure threshold reached (%d failures)", cb.failures))
		}

	case StateHalfOpen:
		if cb.halfOpenInFlight > 0 {
			cb.halfOpenInFlight--
		}
		if failed {
			cb.transitionTo(StateOpen, "failure in half-open state")
			return
		}
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.transitionTo(StateClosed, fmt.Sprintf("success threshold reached (%d successes)", cb.successes))
		}

	case StateOpen:
		// a call admitted before another goroutine opened the circuit
	}
}

// transitionTo must be called with the lock held
func (cb *CircuitBreaker) transitionTo(newState CircuitBreakerState, reason string) {
	oldState := cb.state
	if newState == oldState {
		return
	}

	cb.state = newState
	cb.lastStateChange = time.Now()
	cb.failures = 0
	cb.successes = 0
	cb.halfOpenInFlight = 0

	metrics.RecordCircuitBreakerTransition(string(oldState), string(newState))

	cb.logger.Info("circuit breaker state changed",
		zap.String("from", string(oldState)),
		zap.String("to", string(newState)),
		zap.String("reason", reason))

	if cb.config.OnStateChange != nil {
		go cb.config.OnStateChange(oldState, newState, reason)
	}
}

// GetState returns the current circuit breaker state
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetStats returns current circuit breaker statistics
func (cb *CircuitBreaker) GetStats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return CircuitBreakerStats{
		State:               cb.state,
		ConsecutiveFailures: cb.failures,
		ConsecutiveSuccess:  cb.successes,
		LastStateChange:     cb.lastStateChange,
		TotalRequests:       cb.totalRequests,
		TotalFailures:       cb.totalFailures,
		TotalRejected:       cb.totalRejected,
	}
}

// Reset returns the circuit breaker to the closed state
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionTo(StateClosed, "reset")
}
