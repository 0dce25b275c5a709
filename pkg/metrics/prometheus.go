// Package metrics defines the Prometheus instruments shared by Krsna
// services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "krsna_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "krsna_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	WSConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "krsna_ws_connections_active",
		Help: "Number of open websocket connections",
	})

	MessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "krsna_messages_total",
		Help: "Total chat messages processed",
	})

	LLMRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "krsna_llm_requests_total",
		Help: "Total LLM requests",
	}, []string{"model", "status"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "krsna_llm_request_duration_seconds",
		Help:    "LLM request duration",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"model"})

	ToolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "krsna_tool_calls_total",
		Help: "Total tool executions",
	}, []string{"tool", "status"})

	ToolCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "krsna_tool_call_duration_seconds",
		Help:    "Tool execution duration",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"tool"})

	ToolLoopIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "krsna_tool_loop_iterations",
		Help:    "Tool turns taken per user message",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8},
	})

	NudgesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "krsna_nudges_total",
		Help: "Total proactive nudges delivered",
	}, []string{"type"})
)
