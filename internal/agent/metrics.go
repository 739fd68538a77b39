package agent

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mereck/moltbook/pkg/monitoring"
)

// Metrics tracks what the agent does across cycles. All methods are nil-safe
// so tests can run the agent without a collector.
type Metrics struct {
	cycles      *prometheus.CounterVec
	candidates  *prometheus.CounterVec
	actions     *prometheus.CounterVec
	llmFailures *prometheus.CounterVec
}

func NewMetrics(mc *monitoring.MetricsCollector) *Metrics {
	return &Metrics{
		cycles:      mc.NewCounter("cycles_total", "Completed agent cycles", nil),
		candidates:  mc.NewCounter("candidates_total", "Candidate posts discovered", nil),
		actions:     mc.NewCounter("actions_total", "Actions executed against the API", []string{"action", "outcome"}),
		llmFailures: mc.NewCounter("llm_failures_total", "LLM calls that failed or returned unusable output", []string{"stage"}),
	}
}

func (m *Metrics) cycleDone() {
	if m != nil {
		m.cycles.WithLabelValues().Inc()
	}
}

func (m *Metrics) candidatesFound(n int) {
	if m != nil {
		m.candidates.WithLabelValues().Add(float64(n))
	}
}

func (m *Metrics) action(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.actions.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) llmFailure(stage string) {
	if m != nil {
		m.llmFailures.WithLabelValues(stage).Inc()
	}
}
