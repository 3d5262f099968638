package client

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errBoom = errors.New("boom")

func failing() error { return errBoom }
func succeeding() error { return nil }

func testBreaker(threshold int, timeout time.Duration) *CircuitBreaker {
	return NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold:    threshold,
		SuccessThreshold:    2,
		Timeout:             timeout,
		MaxHalfOpenRequests: 1,
	}, zap.NewNop())
}

func TestNewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig(), nil)

	assert.Equal(t, StateClosed, cb.GetState())
	stats := cb.GetStats()
	assert.Zero(t, stats.TotalRequests)
	assert.Zero(t, stats.TotalFailures)
}

func TestCircuitBreaker_ClosedToOpen(t *testing.T) {
	cb := testBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Call(failing, nil), errBoom)
	}
	assert.Equal(t, StateOpen, cb.GetState())

	err := cb.Call(succeeding, nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int64(1), cb.GetStats().TotalRejected)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := testBreaker(3, time.Minute)

	_ = cb.Call(failing, nil)
	_ = cb.Call(failing, nil)
	require.NoError(t, cb.Call(succeeding, nil))
	_ = cb.Call(failing, nil)

	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, 1, cb.GetStats().ConsecutiveFailures)
}

func TestCircuitBreaker_ClassifierIgnoresClientErrors(t *testing.T) {
	cb := testBreaker(2, time.Minute)
	notFound := func() error { return NewAPIError(404, "Not Found", "") }

	for i := 0; i < 5; i++ {
		assert.True(t, IsNotFound(cb.Call(notFound, countsAsFailure)))
	}
	assert.Equal(t, StateClosed, cb.GetState())

	serverError := func() error { return NewAPIError(503, "Service Unavailable", "") }
	_ = cb.Call(serverError, countsAsFailure)
	_ = cb.Call(serverError, countsAsFailure)
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestCircuitBreaker_HalfOpenToClosed(t *testing.T) {
	cb := testBreaker(1, 10*time.Millisecond)

	_ = cb.Call(failing, nil)
	require.Equal(t, StateOpen, cb.GetState())

	time.Sleep(20 * time.Millisecond)

	require.NoError(t, cb.Call(succeeding, nil))
	assert.Equal(t, StateHalfOpen, cb.GetState())

	require.NoError(t, cb.Call(succeeding, nil))
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_HalfOpenToOpen(t *testing.T) {
	cb := testBreaker(1, 10*time.Millisecond)

	_ = cb.Call(failing, nil)
	time.Sleep(20 * time.Millisecond)

	assert.ErrorIs(t, cb.Call(failing, nil), errBoom)
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestCircuitBreaker_MaxHalfOpenRequests(t *testing.T) {
	cb := testBreaker(1, 10*time.Millisecond)

	_ = cb.Call(failing, nil)
	time.Sleep(20 * time.Millisecond)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- cb.Call(func() error {
			close(started)
			<-release
			return nil
		}, nil)
	}()
	<-started

	assert.ErrorIs(t, cb.Call(succeeding, nil), ErrCircuitOpen)

	close(release)
	assert.NoError(t, <-done)
}

func TestCircuitBreaker_ConcurrentCalls(t *testing.T) {
	cb := testBreaker(1000, time.Minute)

	var wg sync.WaitGroup
	var calls int64
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cb.Call(func() error {
				atomic.AddInt64(&calls, 1)
				return nil
			}, nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), calls)
	assert.Equal(t, int64(50), cb.GetStats().TotalRequests)
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	changes := make(chan [2]CircuitBreakerState, 1)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
		OnStateChange: func(from, to CircuitBreakerState, reason string) {
			changes <- [2]CircuitBreakerState{from, to}
		},
	}, zap.NewNop())

	_ = cb.Call(failing, nil)

	select {
	case change := <-changes:
		assert.Equal(t, [2]CircuitBreakerState{StateClosed, StateOpen}, change)
	case <-time.After(time.Second):
		t.Fatal("state change callback not invoked")
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := testBreaker(1, time.Minute)

	_ = cb.Call(failing, nil)
	require.Equal(t, StateOpen, cb.GetState())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.GetState())
	assert.NoError(t, cb.Call(succeeding, nil))
}
