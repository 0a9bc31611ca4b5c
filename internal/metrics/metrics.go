// Package metrics collects Prometheus counters for the setup run. The
// process is one-shot, so instead of serving an endpoint the driver gathers
// the registry at the end and logs a per-phase summary.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the run's instrumentation on a private registry, one
// instance per run.
type Metrics struct {
	registry *prometheus.Registry

	Operations  *prometheus.CounterVec
	RPCDuration *prometheus.HistogramVec
}

// New creates a Metrics instance with all collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "setup_operations_total",
			Help: "Operations attempted per phase, by outcome.",
		}, []string{"phase", "outcome"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "setup_rpc_duration_seconds",
			Help:    "Remote call latency by contract method.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"method"}),
	}
	m.registry.MustRegister(m.Operations, m.RPCDuration)
	return m
}

// RecordOutcome increments the phase counter for a success or failure.
func (m *Metrics) RecordOutcome(phase string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Operations.WithLabelValues(phase, outcome).Inc()
}

// ObserveRPC records the duration of one remote call.
func (m *Metrics) ObserveRPC(method string, d time.Duration) {
	m.RPCDuration.WithLabelValues(method).Observe(d.Seconds())
}

// PhaseSummary is one row of the end-of-run report.
type PhaseSummary struct {
	Phase   string
	Outcome string
	Count   float64
}

// Summary gathers the registry and returns the operation counts for logging.
func (m *Metrics) Summary() []PhaseSummary {
	families, err := m.registry.Gather()
	if err != nil {
		return nil
	}

	var out []PhaseSummary
	for _, fam := range families {
		if fam.GetName() != "setup_operations_total" {
			continue
		}
		for _, metric := range fam.GetMetric() {
			row := PhaseSummary{Count: metric.GetCounter().GetValue()}
			for _, label := range metric.GetLabel() {
				switch label.GetName() {
				case "phase":
					row.Phase = label.GetValue()
				case "outcome":
					row.Outcome = label.GetValue()
				}
			}
			out = append(out, row)
		}
	}
	return out
}
