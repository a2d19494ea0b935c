// Copyright (C) 2026 LexForge AI (oss@lexforge.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for revisiond.
//
// # Description
//
// Metrics cover the diff and rollback endpoints plus the SSE/WebSocket
// delivery paths:
//   - Request counters (by endpoint, status)
//   - Diff shape (change count, severity)
//   - Latency histograms
//   - Active stream gauges
//
// Metrics are exposed via the /metrics endpoint.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "lexforge"

// Subsystem for revision engine metrics
const revisionSubsystem = "revision"

// RevisionMetrics holds all Prometheus metrics for the revision endpoints.
//
// # Fields
//
//   - RequestsTotal: Counter of API requests by endpoint and status
//   - DiffChangeCount: Histogram of changes per computed diff
//   - DiffSeverityTotal: Counter of computed diffs by severity
//   - RollbackRiskTotal: Counter of rollback analyses by risk level
//   - RequestDurationSeconds: Histogram of request latency
//   - ActiveStreams: Gauge of live SSE/WebSocket connections
//
// # Thread Safety
//
// All operations are thread-safe.
type RevisionMetrics struct {
	// RequestsTotal counts API requests by endpoint and status.
	// Labels: endpoint (diff, rollback, analyze, chain, stats, session),
	// status (success, error)
	RequestsTotal *prometheus.CounterVec

	// DiffChangeCount measures the number of changes per computed diff.
	DiffChangeCount prometheus.Histogram

	// DiffSeverityTotal counts computed diffs by classified severity.
	// Labels: severity (none, minor, moderate, major, breaking)
	DiffSeverityTotal *prometheus.CounterVec

	// RollbackRiskTotal counts rollback analyses by risk level.
	// Labels: risk (low, medium, high, critical)
	RollbackRiskTotal *prometheus.CounterVec

	// RequestDurationSeconds measures request latency per endpoint.
	// Labels: endpoint
	RequestDurationSeconds *prometheus.HistogramVec

	// ActiveStreams tracks live delivery connections.
	// Labels: transport (sse, websocket)
	ActiveStreams *prometheus.GaugeVec
}

// DefaultMetrics is the singleton instance of RevisionMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *RevisionMetrics

// InitMetrics initializes the default metrics instance.
//
// # Description
//
// Creates and registers all Prometheus metrics. Call once at startup;
// duplicate registration panics.
func InitMetrics() *RevisionMetrics {
	DefaultMetrics = &RevisionMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: revisionSubsystem,
				Name:      "requests_total",
				Help:      "Total API requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		DiffChangeCount: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: revisionSubsystem,
				Name:      "diff_change_count",
				Help:      "Number of changes per computed diff",
				Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100},
			},
		),

		DiffSeverityTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: revisionSubsystem,
				Name:      "diff_severity_total",
				Help:      "Computed diffs by classified severity",
			},
			[]string{"severity"},
		),

		RollbackRiskTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: revisionSubsystem,
				Name:      "rollback_risk_total",
				Help:      "Rollback analyses by risk level",
			},
			[]string{"risk"},
		),

		RequestDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: revisionSubsystem,
				Name:      "request_duration_seconds",
				Help:      "Request latency by endpoint",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"endpoint"},
		),

		ActiveStreams: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: revisionSubsystem,
				Name:      "active_streams",
				Help:      "Live SSE and WebSocket connections",
			},
			[]string{"transport"},
		),
	}
	return DefaultMetrics
}

// ObserveRequest records one finished request. Nil-safe before InitMetrics
// so handler tests do not need the registry.
func ObserveRequest(endpoint, status string, seconds float64) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.RequestsTotal.WithLabelValues(endpoint, status).Inc()
	DefaultMetrics.RequestDurationSeconds.WithLabelValues(endpoint).Observe(seconds)
}

// ObserveDiff records the shape of one computed diff.
func ObserveDiff(changeCount int, severity string) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.DiffChangeCount.Observe(float64(changeCount))
	DefaultMetrics.DiffSeverityTotal.WithLabelValues(severity).Inc()
}

// ObserveRollbackRisk records the risk level of one rollback analysis.
func ObserveRollbackRisk(risk string) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.RollbackRiskTotal.WithLabelValues(risk).Inc()
}

// StreamOpened marks one live delivery connection as open.
func StreamOpened(transport string) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.ActiveStreams.WithLabelValues(transport).Inc()
}

// StreamClosed marks one live delivery connection as closed.
func StreamClosed(transport string) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.ActiveStreams.WithLabelValues(transport).Dec()
}
