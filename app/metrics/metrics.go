// Package metrics exposes Prometheus instrumentation for scrape runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RunsTotal         prometheus.Counter
	RunDuration       prometheus.Histogram
	EventsCreated     prometheus.Counter
	EventsUpdated     prometheus.Counter
	EventsUnchanged   prometheus.Counter
	EventsInactivated prometheus.Counter
	SourceFetched     *prometheus.CounterVec
	SourceErrors      *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "citybeat_scrape_runs_total",
			Help: "Number of scrape pipeline runs.",
		}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "citybeat_scrape_run_duration_seconds",
			Help:    "Duration of scrape pipeline runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		EventsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "citybeat_events_created_total",
			Help: "Catalog events created by reconciliation.",
		}),
		EventsUpdated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "citybeat_events_updated_total",
			Help: "Catalog events updated by reconciliation.",
		}),
		EventsUnchanged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "citybeat_events_unchanged_total",
			Help: "Catalog events re-observed without changes.",
		}),
		EventsInactivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "citybeat_events_inactivated_total",
			Help: "Catalog events marked inactive by reconciliation.",
		}),
		SourceFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "citybeat_source_events_fetched_total",
			Help: "Events fetched per source.",
		}, []string{"source"}),
		SourceErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "citybeat_source_errors_total",
			Help: "Failed source extractions per source.",
		}, []string{"source"}),
	}
}
