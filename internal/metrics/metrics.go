// Package metrics exposes Prometheus metrics for the personas register.
//
// Metrics:
//   - <ns>_searches_total: searches by which filters were present
//   - <ns>_exports_total: export attempts by outcome
//   - <ns>_export_rows: rows written per successful export
//   - <ns>_export_duration_seconds: time to query, project and encode
//   - <ns>_records_mutations_total: creates and deletes by outcome
package metrics

import (
	"net/http"
	"time"

	"github.com/JonMunkholm/registro/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry and the service's metrics.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	searches       *prometheus.CounterVec
	exports        *prometheus.CounterVec
	exportRows     prometheus.Histogram
	exportDuration prometheus.Histogram
	mutations      *prometheus.CounterVec
}

// NewCollector creates and registers all metrics. It returns nil when
// metrics are disabled.
func NewCollector(cfg config.MetricsConfig) *Collector {
	if !cfg.Enabled {
		return nil
	}

	ns := cfg.Namespace
	c := &Collector{
		registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "searches_total",
			Help:      "Number of searches by filters present.",
		}, []string{"filters"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "exports_total",
			Help:      "Number of spreadsheet exports by status.",
		}, []string{"status"}),
		exportRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "export_rows",
			Help:      "Rows written per successful export.",
			Buckets:   []float64{0, 10, 100, 1000, 10000, 100000},
		}),
		exportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "export_duration_seconds",
			Help:      "Time to build an export.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "records_mutations_total",
			Help:      "Record creates and deletes by outcome.",
		}, []string{"op", "status"}),
	}

	c.registry.MustRegister(
		c.searches,
		c.exports,
		c.exportRows,
		c.exportDuration,
		c.mutations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// RecordSearch counts a search. filters is "none", "name", "city" or "name,city".
func (c *Collector) RecordSearch(filters string) {
	if c == nil {
		return
	}
	c.searches.WithLabelValues(filters).Inc()
}

// RecordExport records one export attempt. rows is ignored on failure.
func (c *Collector) RecordExport(err error, rows int, d time.Duration) {
	if c == nil {
		return
	}
	if err != nil {
		c.exports.WithLabelValues("error").Inc()
		return
	}
	c.exports.WithLabelValues("success").Inc()
	c.exportRows.Observe(float64(rows))
	c.exportDuration.Observe(d.Seconds())
}

// RecordMutation counts a create or delete.
func (c *Collector) RecordMutation(op string, err error) {
	if c == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.mutations.WithLabelValues(op, status).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
