package metrics_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go-toolchat/internal/metrics"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	gt.NoError(t, err)
	out := map[string]*dto.MetricFamily{}
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.Turn("tool")
	m.Decision("")
	m.Decision("get_weather")
	m.ToolExecuted("get_weather", false, 20*time.Millisecond)
	m.SessionStarted()
	m.SessionStarted()
	m.SessionStopped()

	families := gather(t, reg)
	gt.Map(t, families).HasKey("toolchat_turns_total")
	gt.Map(t, families).HasKey("toolchat_tool_duration_seconds")
	gt.A(t, families["toolchat_planner_decisions_total"].GetMetric()).Length(2)

	executions := families["toolchat_tool_executions_total"].GetMetric()
	gt.A(t, executions).Length(1)
	labels := map[string]string{}
	for _, l := range executions[0].GetLabel() {
		labels[l.GetName()] = l.GetValue()
	}
	gt.Equal(t, labels["outcome"], "failure")

	gauge := families["toolchat_active_sessions"].GetMetric()[0].GetGauge().GetValue()
	gt.Equal(t, gauge, 1.0)
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics
	m.Turn("chat")
	m.StreamError()
	m.SessionStopped()
}
