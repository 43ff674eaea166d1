// Package metrics exports per-job outcomes as Prometheus metrics.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/raoulx24/ghee/internal/orchestrator"
	"github.com/raoulx24/ghee/internal/planner"
)

const (
	KindInventory = "inventory"
	KindExecution = "execution"
	KindCanceled  = "canceled"
)

// Metrics holds the collectors of one registry. It implements
// orchestrator.Recorder.
type Metrics struct {
	reg *prometheus.Registry

	// Last plan per job and action
	snapshots *prometheus.GaugeVec

	// Executed creates and deletes
	actions *prometheus.CounterVec

	failures *prometheus.CounterVec
	lastRun  *prometheus.GaugeVec
	duration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		reg: reg,

		snapshots: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ghee_snapshots",
				Help: "Snapshots per action in the last plan of a job",
			},
			[]string{"job", "action"},
		),

		actions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ghee_actions_total",
				Help: "Total number of executed snapshot creates and deletes",
			},
			[]string{"job", "action", "result"},
		),

		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ghee_job_failures_total",
				Help: "Total number of job failures by kind",
			},
			[]string{"job", "kind"},
		),

		lastRun: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ghee_last_run_timestamp_seconds",
				Help: "Unix time of the last invocation that planned a job",
			},
			[]string{"job"},
		),

		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ghee_job_duration_seconds",
				Help:    "Time spent on a job, inventory to last action",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"job"},
		),
	}
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

func (m *Metrics) ObserveJob(r orchestrator.JobResult) {
	name := r.Job.Name
	m.duration.WithLabelValues(name).Observe(r.Duration.Seconds())

	if r.Intents == nil && r.Err != nil {
		var invErr *orchestrator.InventoryError
		kind := KindCanceled
		if errors.As(r.Err, &invErr) {
			kind = KindInventory
		}
		m.failures.WithLabelValues(name, kind).Inc()
		return
	}

	m.lastRun.WithLabelValues(name).Set(float64(r.PlannedAt.Unix()))
	for _, a := range []planner.Action{planner.Create, planner.Keep, planner.Delete} {
		m.snapshots.WithLabelValues(name, a.String()).Set(float64(r.Count(a)))
	}

	for _, res := range r.Results {
		if res.Action == planner.Keep {
			continue
		}
		result := "ok"
		if !res.Ok() {
			result = "failed"
		}
		m.actions.WithLabelValues(name, res.Action.String(), result).Inc()
	}

	if n := len(multierr.Errors(r.Err)); n > 0 {
		m.failures.WithLabelValues(name, KindExecution).Add(float64(n))
	}
}

// WriteTextfile writes the registry in the text exposition format for the
// node_exporter textfile collector. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}

// Handler serves the registry on /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
