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

func TestCronJobMetricsObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	require.NotNil(t, m)
	m.now = func() time.Time { return time.Unix(1_757_000_000, 0) }

	m.ObserveRun("export-cleanup", 250*time.Millisecond, nil)
	m.ObserveRun("export-cleanup", time.Second, errors.New("disk full"))
	m.ObserveRun("", time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("export-cleanup", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("export-cleanup", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("unknown", "success")))
	assert.Equal(t, 1_757_000_000.0, testutil.ToFloat64(m.lastSuccess.WithLabelValues("export-cleanup")))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	sum, err := fetchHistogramSum(mfs, "ufsc_cron_run_duration_seconds", "job", "export-cleanup")
	require.NoError(t, err)
	assert.InDelta(t, 1.25, sum, 0.0001)
}

func TestNilMetricsAreNoops(t *testing.T) {
	var cron *CronJobMetrics
	cron.ObserveRun("x", time.Second, nil)
	NewCronJobMetrics(nil).ObserveRun("x", time.Second, errors.New("boom"))

	var commerce *CommerceMetrics
	commerce.ObserveOrder(OrderOutcomeProcessed)
	commerce.AddQuotaCredit(QuotaCreditIncluded, 10)

	var http *HTTPMetrics
	http.Observe("GET", "/health/live", 200, time.Millisecond)
}
