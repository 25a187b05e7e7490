/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts API requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gantry_http_requests_total",
		Help: "Total HTTP requests processed.",
	}, []string{"method", "endpoint", "status"})

	// HTTPRequestDuration observes request latency per route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gantry_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	// HTTPActiveConnections gauges in-flight requests.
	HTTPActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gantry_http_active_connections",
		Help: "In-flight HTTP requests.",
	})

	// AgendaComputationsTotal counts daily-agenda calculations by outcome.
	AgendaComputationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gantry_agenda_computations_total",
		Help: "Daily agenda computations by outcome (ok, overflow).",
	}, []string{"outcome"})

	// AssignmentsTotal counts activity assignment attempts by verdict.
	AssignmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gantry_activity_assignments_total",
		Help: "Activity assignment attempts by verdict (accepted, rejected).",
	}, []string{"verdict"})

	// EventsWebSocketConnections gauges open event stream connections.
	EventsWebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gantry_events_websocket_connections",
		Help: "Open event stream WebSocket connections.",
	})

	// DatabaseQueryDuration observes GORM operation latency per table.
	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gantry_db_query_duration_seconds",
		Help:    "Database operation latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DatabaseErrorsTotal counts failed database operations.
	DatabaseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gantry_db_errors_total",
		Help: "Failed database operations.",
	}, []string{"operation"})

	// DatabaseConnectionsActive gauges open connections in the pool.
	DatabaseConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gantry_db_connections_active",
		Help: "Open database connections.",
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
