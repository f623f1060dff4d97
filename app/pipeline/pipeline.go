package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/citybeat/citybeat/app/metrics"
	"github.com/citybeat/citybeat/app/scraper"
	"github.com/citybeat/citybeat/app/sources"
)

// SourceResult records one source's outcome within a run.
type SourceResult struct {
	SourceName string `json:"sourceName"`
	Fetched    int    `json:"fetched"`
	Error      string `json:"error,omitempty"`
}

// RunResult is the aggregate outcome of one scrape run.
type RunResult struct {
	SourceResults []SourceResult `json:"sourceResults"`
	Created       int            `json:"created"`
	Updated       int            `json:"updated"`
	Unchanged     int            `json:"unchanged"`
	Inactivated   int            `json:"inactivated"`
}

// Pipeline sequences a scrape run: resolve sources, extract each one in
// order, dedupe the union, and reconcile the batch into the catalog.
// Sources are processed strictly one at a time; one source's failure never
// aborts the others or the reconciliation step.
type Pipeline struct {
	registry   *sources.Registry
	extractor  *scraper.Extractor
	reconciler *Reconciler
	metrics    *metrics.Metrics
	timeout    time.Duration
}

func NewPipeline(registry *sources.Registry, extractor *scraper.Extractor, reconciler *Reconciler, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		registry:   registry,
		extractor:  extractor,
		reconciler: reconciler,
		metrics:    m,
		timeout:    scraper.DefaultNavigationTimeout,
	}
}

// Run executes the pipeline for the selected sources. A nil sourceNames
// selects the default registry; a non-empty city re-derives the
// city-parameterized source. Only store errors are fatal.
func (p *Pipeline) Run(ctx context.Context, sourceNames []string, city string) (*RunResult, error) {
	started := time.Now()
	selected := p.registry.Resolve(sourceNames, city)

	result := &RunResult{
		SourceResults: make([]SourceResult, 0, len(selected)),
	}

	var batch []scraper.ScrapedEvent
	var successfulSources []string

	for _, source := range selected {
		events, err := p.extractSource(ctx, source)
		if err != nil {
			slog.Warn("Source extraction failed", "source", source.Name, "error", err)
			result.SourceResults = append(result.SourceResults, SourceResult{
				SourceName: source.Name,
				Error:      err.Error(),
			})
			if p.metrics != nil {
				p.metrics.SourceErrors.WithLabelValues(source.Name).Inc()
			}
			continue
		}

		slog.Info("Source extraction completed", "source", source.Name, "fetched", len(events))
		result.SourceResults = append(result.SourceResults, SourceResult{
			SourceName: source.Name,
			Fetched:    len(events),
		})
		if p.metrics != nil {
			p.metrics.SourceFetched.WithLabelValues(source.Name).Add(float64(len(events)))
		}

		successfulSources = append(successfulSources, source.Name)
		batch = append(batch, events...)
	}

	stats, err := p.reconciler.Run(scraper.Dedupe(batch), successfulSources)
	if err != nil {
		return nil, err
	}

	result.Created = stats.Created
	result.Updated = stats.Updated
	result.Unchanged = stats.Unchanged
	result.Inactivated = stats.Inactivated

	p.recordRunMetrics(stats, time.Since(started))

	slog.Info("Scrape run completed",
		"duration", time.Since(started),
		"sources", len(selected),
		"created", stats.Created,
		"updated", stats.Updated,
		"unchanged", stats.Unchanged,
		"inactivated", stats.Inactivated)

	return result, nil
}

// extractSource runs one source's extraction under its own timeout. Events
// inherit the source city when the page carried none.
func (p *Pipeline) extractSource(ctx context.Context, source scraper.Source) ([]scraper.ScrapedEvent, error) {
	timeout := p.timeout
	if source.TimeoutSeconds > 0 {
		timeout = time.Duration(source.TimeoutSeconds) * time.Second
	}

	sourceCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	events, err := p.extractor.Run(sourceCtx, source)
	if err != nil {
		return nil, err
	}

	for i := range events {
		if scraper.CleanText(events[i].City) == "" {
			events[i].City = source.City
		}
	}

	return events, nil
}

func (p *Pipeline) recordRunMetrics(stats Stats, duration time.Duration) {
	if p.metrics == nil {
		return
	}

	p.metrics.RunsTotal.Inc()
	p.metrics.RunDuration.Observe(duration.Seconds())
	p.metrics.EventsCreated.Add(float64(stats.Created))
	p.metrics.EventsUpdated.Add(float64(stats.Updated))
	p.metrics.EventsUnchanged.Add(float64(stats.Unchanged))
	p.metrics.EventsInactivated.Add(float64(stats.Inactivated))
}
