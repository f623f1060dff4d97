package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/citybeat/citybeat/app/pipeline"
)

// ScrapeRunTask executes one full scrape pipeline run against the default
// source list. Not retried: re-running a failed scrape is a scheduling
// decision, and the next interval tick covers it.
type ScrapeRunTask struct {
	Task
	pipeline *pipeline.Pipeline
	city     string
}

func NewScrapeRunTask(p *pipeline.Pipeline, city string) *ScrapeRunTask {
	return &ScrapeRunTask{
		Task:     NewTask(TaskTypeScrapeRun, 0),
		pipeline: p,
		city:     city,
	}
}

func (t *ScrapeRunTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.pipeline.Run(ctx, nil, t.city)
	if err != nil {
		return fmt.Errorf("scrape run failed: %w", err)
	}

	erroredSources := 0
	for _, sourceResult := range result.SourceResults {
		if sourceResult.Error != "" {
			erroredSources++
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"created", result.Created,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"inactivated", result.Inactivated,
		"errored_sources", erroredSources)

	return nil
}
