// Package metrics holds the prometheus collectors of the service. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "toolchat"

type Metrics struct {
	turns          *prometheus.CounterVec
	decisions      *prometheus.CounterVec
	toolExecutions *prometheus.CounterVec
	toolDuration   *prometheus.HistogramVec
	streamErrors   prometheus.Counter
	activeSessions prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Chat turns processed, by branch taken.",
		}, []string{"branch"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "planner_decisions_total",
			Help:      "Planner decisions, by chosen tool or none.",
		}, []string{"decision"}),
		toolExecutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_executions_total",
			Help:      "Tool executions, by tool and outcome.",
		}, []string{"tool", "outcome"}),
		toolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_duration_seconds",
			Help:      "Tool execution latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 12, 20},
		}, []string{"tool"}),
		streamErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_errors_total",
			Help:      "Streamed completions that ended in an error.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Session actors currently alive.",
		}),
	}
	reg.MustRegister(m.turns, m.decisions, m.toolExecutions, m.toolDuration, m.streamErrors, m.activeSessions)
	return m
}

func (m *Metrics) Turn(branch string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(branch).Inc()
}

func (m *Metrics) Decision(decision string) {
	if m == nil {
		return
	}
	if decision == "" {
		decision = "none"
	}
	m.decisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) ToolExecuted(tool string, ok bool, took time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.toolExecutions.WithLabelValues(tool, outcome).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(took.Seconds())
}

func (m *Metrics) StreamError() {
	if m == nil {
		return
	}
	m.streamErrors.Inc()
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
}

func (m *Metrics) SessionStopped() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}
