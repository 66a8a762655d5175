package metrics

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry(), "test")

	m.ObserveTransition("cancel", "success")
	m.ObserveTransition("cancel", "success")
	m.IncVersionConflict("no_show")
	m.AddSweepResult("marked", 3)
	m.AddSweepResult("skipped", 0)
	m.IncRefundDispatch("queued")
	m.SetPolicyCacheEntries(7)
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/bookings/{bookingId}", http.StatusOK, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("cancel", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.versionConflicts.WithLabelValues("no_show")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sweeps.WithLabelValues("marked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refunds.WithLabelValues("queued")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.policyCache))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodGet, "/api/v1/bookings/{bookingId}", "200")))
}

func TestMetrics_DB(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry(), "test")

	m.ObserveDBQuery("QueryRowContext", time.Millisecond, nil)
	m.ObserveDBQuery("QueryRowContext", time.Millisecond, sql.ErrNoRows)
	m.ObserveDBQuery("ExecContext", time.Millisecond, errors.New("boom"))
	m.SetDBStats(sql.DBStats{OpenConnections: 4, InUse: 1, Idle: 3})

	assert.Equal(t, 2, testutil.CollectAndCount(m.dbQueries))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.dbConns.WithLabelValues("open")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.dbConns.WithLabelValues("idle")))
}

func TestMetrics_NilReceiver(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveTransition("cancel", "success")
		m.IncVersionConflict("cancel")
		m.AddSweepResult("marked", 1)
		m.IncRefundDispatch("failed")
		m.SetPolicyCacheEntries(1)
		m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Second)
	})
}
