// Package metrics exposes Prometheus instrumentation for the visitation
// service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"visitation-service/internal/models"
)

// Collector holds the service's Prometheus metrics.
type Collector struct {
	assignmentsTotal    *prometheus.CounterVec
	reassignmentsTotal  *prometheus.CounterVec
	cancellationsTotal  prometheus.Counter
	conflictChecksTotal *prometheus.CounterVec

	slaBreachesTotal *prometheus.CounterVec
	slaSweepDuration prometheus.Histogram
	slaSweepLastRun  prometheus.Gauge

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewCollector creates and registers the service metrics.
func NewCollector() *Collector {
	return &Collector{
		assignmentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visitation_assignments_total",
				Help: "Total officer assignments by outcome",
			},
			[]string{"pool", "outcome"},
		),
		reassignmentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visitation_reassignments_total",
				Help: "Total visit reassignments by trigger",
			},
			[]string{"trigger"},
		),
		cancellationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "visitation_system_cancellations_total",
				Help: "Total visits cancelled by the system during cascades",
			},
		),
		conflictChecksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visitation_conflict_checks_total",
				Help: "Total schedule conflict checks by result",
			},
			[]string{"result"},
		),
		slaBreachesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visitation_sla_breaches_total",
				Help: "Total SLA breaches reported by the sweep",
			},
			[]string{"type", "severity"},
		),
		slaSweepDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "visitation_sla_sweep_duration_seconds",
				Help:    "Duration of SLA sweep runs",
				Buckets: prometheus.DefBuckets,
			},
		),
		slaSweepLastRun: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "visitation_sla_sweep_last_run_timestamp",
				Help: "Unix timestamp of the last completed SLA sweep",
			},
		),
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "visitation_http_requests_total",
				Help: "Total HTTP requests by method, path and status",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "visitation_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// RecordAssignment counts an assignment attempt for a candidate pool.
func (c *Collector) RecordAssignment(pool string, assigned bool) {
	outcome := "assigned"
	if !assigned {
		outcome = "no_candidates"
	}
	c.assignmentsTotal.WithLabelValues(pool, outcome).Inc()
}

// RecordReassignments counts visit reassignments for a cascade trigger.
func (c *Collector) RecordReassignments(trigger string, count int) {
	if count > 0 {
		c.reassignmentsTotal.WithLabelValues(trigger).Add(float64(count))
	}
}

// RecordCancellations counts system cancellations during a cascade.
func (c *Collector) RecordCancellations(count int) {
	if count > 0 {
		c.cancellationsTotal.Add(float64(count))
	}
}

// RecordConflictCheck counts a conflict detection result.
func (c *Collector) RecordConflictCheck(hasConflict bool) {
	result := "clear"
	if hasConflict {
		result = "conflict"
	}
	c.conflictChecksTotal.WithLabelValues(result).Inc()
}

// RecordSweep records one completed SLA sweep and its breaches.
func (c *Collector) RecordSweep(duration time.Duration, breaches []models.SLABreach) {
	c.slaSweepDuration.Observe(duration.Seconds())
	c.slaSweepLastRun.SetToCurrentTime()
	for _, b := range breaches {
		c.slaBreachesTotal.WithLabelValues(string(b.Type), string(b.Severity)).Inc()
	}
}

// RecordHTTPRequest records one handled HTTP request.
func (c *Collector) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
