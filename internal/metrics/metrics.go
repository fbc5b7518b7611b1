// Package metrics provides Prometheus metrics for monitoring the orchestrator.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openscouts_cycles_total",
			Help: "Total number of orchestrator cycles by trigger and result",
		},
		[]string{"trigger", "result"},
	)
	CycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openscouts_cycle_duration_seconds",
			Help:    "Full cycle duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"trigger"},
	)
	ScoutExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openscouts_scout_executions_total",
			Help: "Total number of scout executions by outcome status",
		},
		[]string{"status"},
	)
	ExecutionsReconciled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "openscouts_executions_reconciled_total",
			Help: "Total number of stuck executions force-failed by the reconciler",
		},
	)
	ScoutsDeactivated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "openscouts_scouts_deactivated_total",
			Help: "Total number of scouts deactivated by the dormancy sweeper",
		},
	)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "openscouts_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "openscouts_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

func RecordCycle(manual, success bool, duration time.Duration) {
	trigger := "scheduled"
	if manual {
		trigger = "manual"
	}
	result := "success"
	if !success {
		result = "failure"
	}

	CyclesTotal.WithLabelValues(trigger, result).Inc()
	CycleDuration.WithLabelValues(trigger).Observe(duration.Seconds())
}

func RecordScoutExecution(status string) {
	ScoutExecutions.WithLabelValues(status).Inc()
}

func RecordReconciled(count int) {
	ExecutionsReconciled.Add(float64(count))
}

func RecordDeactivated(count int) {
	ScoutsDeactivated.Add(float64(count))
}

func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
