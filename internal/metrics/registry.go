// Package metrics exposes Prometheus instrumentation for pipeline runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all pipeline metrics on a dedicated Prometheus registry.
type Registry struct {
	registry *prometheus.Registry

	RecordsProcessed prometheus.Counter
	RecordsFailed    prometheus.Counter
	YearsEmitted     prometheus.Counter
	YearsSkipped     *prometheus.CounterVec
	RecordDuration   prometheus.Histogram
}

// NewRegistry creates and registers all pipeline metrics.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),

		RecordsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cropfeatures_records_processed_total",
			Help: "Records successfully transformed",
		}),
		RecordsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cropfeatures_records_failed_total",
			Help: "Records rejected by contract validation",
		}),
		YearsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cropfeatures_years_emitted_total",
			Help: "Year feature vectors emitted",
		}),
		YearsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cropfeatures_years_skipped_total",
			Help: "Years skipped during processing by reason",
		}, []string{"reason"}),
		RecordDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cropfeatures_record_duration_seconds",
			Help:    "Per-record processing duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}),
	}

	r.registry.MustRegister(
		r.RecordsProcessed,
		r.RecordsFailed,
		r.YearsEmitted,
		r.YearsSkipped,
		r.RecordDuration,
	)
	return r
}

// Handler returns the scrape handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
