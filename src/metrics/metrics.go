// Package metrics exports run outcomes as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cancelbot/src/orchestrator"
)

const namespace = "cancelbot"

// Cancellation outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeError  = "error"
	OutcomeDryRun = "dry_run"
)

// Metrics holds the collectors of one process on a dedicated registry.
type Metrics struct {
	registry *prometheus.Registry

	runs            *prometheus.CounterVec
	runDuration     prometheus.Summary
	backendDuration *prometheus.SummaryVec
	cancellations   *prometheus.CounterVec
	errors          *prometheus.CounterVec
	lastRun         prometheus.Gauge
}

// New creates and registers the collectors. withRuntime adds the Go and
// process collectors, which only make sense for long-running processes.
func New(withRuntime bool) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Runs by result.",
		}, []string{"result"}),
		runDuration: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Run duration in seconds.",
		}),
		backendDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "duration_seconds",
			Help:      "Time until a backend finished all its repositories.",
		}, []string{"backend"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancellations_total",
			Help:      "Cancel decisions by backend, reason and outcome.",
		}, []string{"backend", "reason", "outcome"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repo_errors_total",
			Help:      "Per repository failures by backend and operation.",
		}, []string{"backend", "op"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Start time of the last run.",
		}),
	}

	m.registry.MustRegister(m.runs, m.runDuration, m.backendDuration, m.cancellations, m.errors, m.lastRun)
	if withRuntime {
		m.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return m
}

// Observe records a finished run.
func (m *Metrics) Observe(report *orchestrator.Report) {
	result := "ok"
	if report.TimedOut {
		result = "timeout"
	}
	m.runs.WithLabelValues(result).Inc()
	m.runDuration.Observe(report.Duration.Seconds())
	m.lastRun.Set(float64(report.StartedAt.Unix()))

	for _, b := range report.Backends {
		if b.Enabled && b.State == orchestrator.StateDone {
			m.backendDuration.WithLabelValues(b.Name).Observe(b.Duration.Seconds())
		}
		for _, e := range b.Errors {
			m.errors.WithLabelValues(b.Name, e.Op).Inc()
		}
		for _, c := range b.Cancellations {
			m.cancellations.WithLabelValues(b.Name, c.Reason, outcome(c)).Inc()
		}
	}
}

func outcome(c orchestrator.Cancellation) string {
	switch {
	case c.Err != nil:
		return OutcomeError
	case c.DryRun:
		return OutcomeDryRun
	}
	return OutcomeOK
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// WriteTextfile writes the registry to path for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
