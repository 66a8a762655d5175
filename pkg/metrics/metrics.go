// Package metrics собирает Prometheus метрики сервиса.
// Все методы безопасны для nil receiver: при выключенных метриках передаётся (*Metrics)(nil).
package metrics

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector exported by the service
type Metrics struct {
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	transitions      *prometheus.CounterVec
	versionConflicts *prometheus.CounterVec
	sweeps           *prometheus.CounterVec
	refunds          *prometheus.CounterVec
	policyCache      prometheus.Gauge
	dbQueries        *prometheus.HistogramVec
	dbConns          *prometheus.GaugeVec
}

// New регистрирует метрики в глобальном registry (его отдаёт promhttp.Handler)
func New(serviceName string) *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer, serviceName)
}

// NewWithRegisterer регистрирует метрики в переданном registry
func NewWithRegisterer(reg prometheus.Registerer, serviceName string) *Metrics {
	f := promauto.With(reg)
	labels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"method", "route"}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_transitions_total",
			Help:        "Booking state machine operations by result",
			ConstLabels: labels,
		}, []string{"operation", "result"}),
		versionConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "booking_version_conflicts_total",
			Help:        "Optimistic concurrency conflicts on booking writes",
			ConstLabels: labels,
		}, []string{"operation"}),
		sweeps: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "noshow_sweep_bookings_total",
			Help:        "Bookings processed by the no-show sweeper by result",
			ConstLabels: labels,
		}, []string{"result"}),
		refunds: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "refund_dispatch_total",
			Help:        "Refund gateway invocations by result",
			ConstLabels: labels,
		}, []string{"result"}),
		policyCache: f.NewGauge(prometheus.GaugeOpts{
			Name:        "policy_cache_entries",
			Help:        "Number of cancellation policies held in the read cache",
			ConstLabels: labels,
		}),
		dbQueries: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database call latency by method and outcome",
			Buckets:     []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			ConstLabels: labels,
		}, []string{"method", "status"}),
		dbConns: f.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_connections",
			Help:        "Connection pool state",
			ConstLabels: labels,
		}, []string{"state"}),
	}
}

// ObserveHTTPRequest записывает результат HTTP запроса
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) ObserveTransition(operation, result string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) IncVersionConflict(operation string) {
	if m == nil {
		return
	}
	m.versionConflicts.WithLabelValues(operation).Inc()
}

func (m *Metrics) AddSweepResult(result string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.sweeps.WithLabelValues(result).Add(float64(n))
}

func (m *Metrics) IncRefundDispatch(result string) {
	if m == nil {
		return
	}
	m.refunds.WithLabelValues(result).Inc()
}

func (m *Metrics) SetPolicyCacheEntries(n int) {
	if m == nil {
		return
	}
	m.policyCache.Set(float64(n))
}

// ObserveDBQuery записывает длительность обращения к БД. sql.ErrNoRows не считается ошибкой.
func (m *Metrics) ObserveDBQuery(method string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil && err != sql.ErrNoRows {
		status = "error"
	}
	m.dbQueries.WithLabelValues(method, status).Observe(duration.Seconds())
}

// SetDBStats публикует состояние пула соединений
func (m *Metrics) SetDBStats(stats sql.DBStats) {
	if m == nil {
		return
	}
	m.dbConns.WithLabelValues("open").Set(float64(stats.OpenConnections))
	m.dbConns.WithLabelValues("in_use").Set(float64(stats.InUse))
	m.dbConns.WithLabelValues("idle").Set(float64(stats.Idle))
	m.dbConns.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
}
