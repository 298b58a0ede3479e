package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector of the service. A nil *Metrics is valid and
// records nothing, so components can be built without a registry in tests.
type Metrics struct {
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthErrorsCounter *prometheus.CounterVec

	// Governance metrics
	GovernanceOperations *prometheus.CounterVec
	VoteAdmissions       *prometheus.CounterVec
	LockWaitDuration     prometheus.Histogram
	AuditFailures        prometheus.Counter
	DbOperationDuration  *prometheus.HistogramVec

	// Realtime metrics
	RealtimeSubscribers prometheus.Gauge
	RealtimeEvents      *prometheus.CounterVec
	RealtimeDisconnects *prometheus.CounterVec
}

// InitMetrics registers the collectors on reg using prefix for every name
func InitMetrics(prefix string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HttpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HttpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		AuthErrorsCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_auth_errors_total",
				Help: "Total number of authentication errors",
			},
			[]string{"reason"},
		),
		GovernanceOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_governance_operations_total",
				Help: "Governance operations by name and outcome code",
			},
			[]string{"operation", "code"},
		),
		VoteAdmissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_vote_admissions_total",
				Help: "Vote cast attempts by outcome",
			},
			[]string{"result"},
		),
		LockWaitDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    prefix + "_assembly_lock_wait_seconds",
				Help:    "Time spent waiting for an assembly writer lock",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .25, .5, 1, 2, 5},
			},
		),
		AuditFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_audit_failures_total",
				Help: "Audit entries that could not be recorded",
			},
		),
		DbOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_db_operation_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation_type"},
		),
		RealtimeSubscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "_realtime_subscribers",
				Help: "Currently connected realtime subscribers",
			},
		),
		RealtimeEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_realtime_events_total",
				Help: "Events fanned out to assembly rooms",
			},
			[]string{"type"},
		),
		RealtimeDisconnects: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_realtime_disconnects_total",
				Help: "Subscribers removed from a room, by reason",
			},
			[]string{"reason"},
		),
	}
}

// TrackDBOperation returns a function that records the duration of a database operation
func (m *Metrics) TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if m == nil {
			return
		}
		m.DbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordHTTPRequest records one served HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HttpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordAuthError increments the authentication error counter
func (m *Metrics) RecordAuthError(reason string) {
	if m == nil {
		return
	}
	m.AuthErrorsCounter.WithLabelValues(reason).Inc()
}

// RecordOperation increments the counter for a governance operation outcome
func (m *Metrics) RecordOperation(operation, code string) {
	if m == nil {
		return
	}
	m.GovernanceOperations.WithLabelValues(operation, code).Inc()
}

// RecordVote increments the vote admission counter
func (m *Metrics) RecordVote(result string) {
	if m == nil {
		return
	}
	m.VoteAdmissions.WithLabelValues(result).Inc()
}

// ObserveLockWait records how long a caller waited for an assembly lock
func (m *Metrics) ObserveLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.LockWaitDuration.Observe(d.Seconds())
}

// RecordAuditFailure increments the audit failure counter
func (m *Metrics) RecordAuditFailure() {
	if m == nil {
		return
	}
	m.AuditFailures.Inc()
}

// SubscriberAdded increments the connected subscriber gauge
func (m *Metrics) SubscriberAdded() {
	if m == nil {
		return
	}
	m.RealtimeSubscribers.Inc()
}

// SubscriberRemoved decrements the connected subscriber gauge
func (m *Metrics) SubscriberRemoved(reason string) {
	if m == nil {
		return
	}
	m.RealtimeSubscribers.Dec()
	m.RealtimeDisconnects.WithLabelValues(reason).Inc()
}

// RecordRealtimeEvent increments the fan-out counter for an event type
func (m *Metrics) RecordRealtimeEvent(eventType string) {
	if m == nil {
		return
	}
	m.RealtimeEvents.WithLabelValues(eventType).Inc()
}
