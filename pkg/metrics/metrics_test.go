package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInitMetrics 重复初始化安全，指标全部创建
func TestInitMetrics(t *testing.T) {
	InitMetrics()
	InitMetrics()

	require.NotNil(t, HTTPRequestsTotal)
	require.NotNil(t, HTTPRequestDuration)
	require.NotNil(t, HTTPRequestsInProgress)
	require.NotNil(t, BookOperationsTotal)
	require.NotNil(t, BookOperationDuration)
	require.NotNil(t, CoverWritesTotal)
	require.NotNil(t, BookCacheRequestsTotal)
	require.NotNil(t, CircuitBreakerState)
	require.NotNil(t, MessagesPublishedTotal)
	require.NotNil(t, SagaCompensationsTotal)
}

func TestObserveBookOperation(t *testing.T) {
	InitMetrics()

	success := BookOperationsTotal.WithLabelValues("create", "success")
	failure := BookOperationsTotal.WithLabelValues("create", "failure")
	beforeSuccess := testutil.ToFloat64(success)
	beforeFailure := testutil.ToFloat64(failure)

	ObserveBookOperation("create", nil, 3*time.Millisecond)
	ObserveBookOperation("create", nil, 5*time.Millisecond)
	ObserveBookOperation("create", errors.New("boom"), time.Millisecond)

	assert.Equal(t, beforeSuccess+2, testutil.ToFloat64(success))
	assert.Equal(t, beforeFailure+1, testutil.ToFloat64(failure))
}

func TestGaugeHelpers(t *testing.T) {
	InitMetrics()

	before := testutil.ToFloat64(HTTPRequestsInProgress)
	IncGauge(HTTPRequestsInProgress)
	IncGauge(HTTPRequestsInProgress)
	DecGauge(HTTPRequestsInProgress)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsInProgress))

	SetGaugeVec(CircuitBreakerState, map[string]string{"name": "book-events"}, 2)
	assert.Equal(t, float64(2), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("book-events")))
}

// TestNilSafe 未初始化的指标不会panic
func TestNilSafe(t *testing.T) {
	var counter prometheus.Counter
	var vec *prometheus.CounterVec
	var gauge prometheus.Gauge
	var gaugeVec *prometheus.GaugeVec
	var hist *prometheus.HistogramVec

	assert.NotPanics(t, func() {
		IncCounter(counter)
		IncCounterVec(vec, map[string]string{"result": "hit"})
		IncGauge(gauge)
		DecGauge(gauge)
		SetGaugeVec(gaugeVec, map[string]string{"name": "x"}, 1)
		ObserveHistogramVec(hist, map[string]string{"operation": "list"}, 0.1)
	})
}

func TestResult(t *testing.T) {
	assert.Equal(t, "success", Result(nil))
	assert.Equal(t, "failure", Result(errors.New("x")))
}
