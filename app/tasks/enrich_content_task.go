package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/citybeat/citybeat/app/database"
	"github.com/citybeat/citybeat/app/scraper"
)

const (
	enrichBatchSize    = 20
	enrichFetchTimeout = 30 * time.Second
)

// EnrichContentTask fetches the detail page of recently created events and
// stores a readable plain-text description alongside the scraped fields.
// Extraction results never feed back into content hashing.
type EnrichContentTask struct {
	Task
	httpClient       *http.Client
	contentExtractor *scraper.ContentExtractor
	eventRepo        database.EventRepository
	userAgent        string
}

func NewEnrichContentTask(httpClient *http.Client, contentExtractor *scraper.ContentExtractor, eventRepo database.EventRepository, userAgent string) *EnrichContentTask {
	return &EnrichContentTask{
		Task:             NewTask(TaskTypeEnrichContent, DefaultMaxRetries),
		httpClient:       httpClient,
		contentExtractor: contentExtractor,
		eventRepo:        eventRepo,
		userAgent:        userAgent,
	}
}

func (t *EnrichContentTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	events, err := t.eventRepo.GetEventsForEnrichment(enrichBatchSize)
	if err != nil {
		return fmt.Errorf("failed to get events for enrichment: %w", err)
	}

	if len(events) == 0 {
		slog.Debug("No events need content enrichment")
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, event := range events {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := t.enrichEvent(ctx, event)
		if err != nil {
			slog.Error("Failed to enrich event", "event_id", event.ID, "url", event.OriginalURL, "error", err)
			errorCount++

			statusErr := t.eventRepo.UpdateExtractionStatus(event.ID, "failed", time.Now().UTC(), err.Error())
			if statusErr != nil {
				slog.Error("Failed to update content extraction status", "event_id", event.ID, "error", statusErr)
			}
		} else {
			successCount++
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (t *EnrichContentTask) enrichEvent(ctx context.Context, event database.EventForEnrichment) error {
	if event.OriginalURL == "" {
		return fmt.Errorf("event has no original URL")
	}

	data, err := t.fetchPageContent(ctx, event.OriginalURL)
	if err != nil {
		return fmt.Errorf("failed to fetch event page: %w", err)
	}

	extractedContent, err := t.contentExtractor.Run(data)
	if err != nil {
		return fmt.Errorf("failed to extract content: %w", err)
	}

	err = t.eventRepo.UpdateExtractedContent(event.ID, extractedContent, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store extracted content: %w", err)
	}

	slog.Debug("Content extracted successfully", "event_id", event.ID, "url", event.OriginalURL, "content_length", len(extractedContent))
	return nil
}

func (t *EnrichContentTask) fetchPageContent(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, enrichFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
