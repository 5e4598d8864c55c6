// Package metrics records run and document counters with Prometheus.
//
// The publisher is a batch job, so metrics are pushed to a Pushgateway at
// the end of each run instead of being scraped.
package metrics

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/mfenderov/draftpress/internal/events"
)

// Config holds metrics configuration.
type Config struct {
	PushgatewayURL string // empty disables pushing
	Job            string
}

// Metrics holds all Prometheus metrics for the publisher.
type Metrics struct {
	config   Config
	registry *prometheus.Registry

	DocumentsTotal *prometheus.CounterVec
	RunsTotal      prometheus.Counter
	RunDuration    prometheus.Histogram
	LastRunDrafts  prometheus.Gauge
	RunErrorsTotal prometheus.Counter
}

// New creates the metrics on a private registry.
func New(config Config) *Metrics {
	if config.Job == "" {
		config.Job = "draftpress"
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		config:   config,
		registry: reg,
		DocumentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "draftpress_documents_total",
			Help: "Documents handled, by terminal status and last stage reached.",
		}, []string{"status", "stage"}),
		RunsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "draftpress_runs_total",
			Help: "Completed pipeline runs.",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "draftpress_run_duration_seconds",
			Help:    "Duration of pipeline runs.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		LastRunDrafts: factory.NewGauge(prometheus.GaugeOpts{
			Name: "draftpress_last_run_drafts",
			Help: "Drafts created by the most recent run.",
		}),
		RunErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "draftpress_run_errors_total",
			Help: "Non-fatal download or extraction errors.",
		}),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// DocumentProcessed counts one document outcome.
func (m *Metrics) DocumentProcessed(_ context.Context, e events.DocumentEvent) {
	m.DocumentsTotal.WithLabelValues(string(e.Outcome.Status), string(e.Outcome.Stage)).Inc()
}

// RunComplete records the run and pushes when a gateway is configured.
// Push failures are logged only.
func (m *Metrics) RunComplete(ctx context.Context, e events.RunCompleteEvent) {
	m.RunsTotal.Inc()
	m.RunDuration.Observe(e.Duration.Seconds())
	m.LastRunDrafts.Set(float64(e.Published))
	m.RunErrorsTotal.Add(float64(len(e.Errors)))

	if m.config.PushgatewayURL == "" {
		return
	}
	if err := m.Push(ctx); err != nil {
		slog.Warn("failed to push metrics", "url", m.config.PushgatewayURL, "error", err)
	}
}

// Push sends every metric to the configured Pushgateway.
func (m *Metrics) Push(ctx context.Context) error {
	if m.config.PushgatewayURL == "" {
		return fmt.Errorf("pushgateway URL is not configured")
	}
	err := push.New(m.config.PushgatewayURL, m.config.Job).
		Gatherer(m.registry).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	slog.Debug("pushed metrics", "url", m.config.PushgatewayURL, "job", m.config.Job)
	return nil
}
