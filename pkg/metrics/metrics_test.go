package metrics

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, c.Write(metric))
	return metric.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, g.Write(metric))
	return metric.GetGauge().GetValue()
}

func TestMetricsNamespace(t *testing.T) {
	assert.Equal(t, "castai_iac", Namespace)
}

func TestRegisterMetrics_Idempotent(t *testing.T) {
	require.NoError(t, RegisterMetrics())
	require.NoError(t, RegisterMetrics())
}

func TestRecordAPIRequest(t *testing.T) {
	ResetMetrics()

	RecordAPIRequest("GET", "200", 150*time.Millisecond)
	RecordAPIRequest("GET", "200", 50*time.Millisecond)

	assert.Equal(t, float64(2), counterValue(t, APIRequests.WithLabelValues("GET", "200")))
}

func TestRecordAPIError(t *testing.T) {
	ResetMetrics()

	RecordAPIError("POST", "server error")

	assert.Equal(t, float64(1), counterValue(t, APIErrors.WithLabelValues("POST", "server_error")))
}

func TestRecordRateLimitWait(t *testing.T) {
	ResetMetrics()

	RecordRateLimitWait("GET", time.Millisecond)
	assert.Equal(t, float64(0), counterValue(t, APIRateLimitedTotal.WithLabelValues("GET")))

	RecordRateLimitWait("GET", 50*time.Millisecond)
	assert.Equal(t, float64(1), counterValue(t, APIRateLimitedTotal.WithLabelValues("GET")))
}

func TestRecordCircuitBreakerTransition(t *testing.T) {
	ResetMetrics()

	RecordCircuitBreakerTransition("closed", "open")

	assert.Equal(t, float64(0), gaugeValue(t, CircuitBreakerState.WithLabelValues("closed")))
	assert.Equal(t, float64(1), gaugeValue(t, CircuitBreakerState.WithLabelValues("open")))
	assert.Equal(t, float64(1), counterValue(t, CircuitBreakerStateChanges.WithLabelValues("closed", "open")))
}

func TestRecordResourceOperation(t *testing.T) {
	ResetMetrics()

	RecordResourceOperation("castai:aws:EksCluster", "create", nil, 10*time.Millisecond)
	RecordResourceOperation("castai:aws:EksCluster", "create", errors.New("boom"), 10*time.Millisecond)

	assert.Equal(t, float64(1), counterValue(t, ResourceOperations.WithLabelValues("castai:aws:EksCluster", "create", "success")))
	assert.Equal(t, float64(1), counterValue(t, ResourceOperations.WithLabelValues("castai:aws:EksCluster", "create", "error")))
}

func TestRecordInvokeCache(t *testing.T) {
	ResetMetrics()

	RecordInvokeCache("castai:organization:GetOrganizationDataSource", true)
	RecordInvokeCache("castai:organization:GetOrganizationDataSource", false)
	RecordInvokeCache("castai:organization:GetOrganizationDataSource", false)

	assert.Equal(t, float64(1), counterValue(t, InvokeCacheRequests.WithLabelValues("castai:organization:GetOrganizationDataSource", "hit")))
	assert.Equal(t, float64(2), counterValue(t, InvokeCacheRequests.WithLabelValues("castai:organization:GetOrganizationDataSource", "miss")))
}

func TestRecordAgentRelease(t *testing.T) {
	ResetMetrics()

	RecordAgentRelease("castai-agent", "install", nil)

	assert.Equal(t, float64(1), counterValue(t, AgentReleases.WithLabelValues("castai-agent", "install", "success")))
}

func TestDump(t *testing.T) {
	require.NoError(t, RegisterMetrics())
	ResetMetrics()
	RecordAPIRequest("GET", "200", time.Millisecond)

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf))
	assert.Contains(t, buf.String(), "castai_iac_api_requests_total")
}
