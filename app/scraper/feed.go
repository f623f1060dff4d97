package scraper

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// runFeed extracts events from a source that publishes its listings as an
// RSS/Atom feed rather than a scrapeable page.
func (e *Extractor) runFeed(ctx context.Context, source Source) ([]ScrapedEvent, error) {
	feed, err := e.feedParser.ParseURLWithContext(source.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source feed: %w", err)
	}

	events := make([]ScrapedEvent, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		event := ScrapedEvent{
			Title:        item.Title,
			Description:  item.Description,
			City:         source.City,
			CategoryTags: sourceTags(source, item.Categories),
			ImageURL:     feedItemImage(item),
			SourceName:   source.Name,
			OriginalURL:  resolveAgainst(item.Link, source.FeedURL),
		}

		if item.PublishedParsed != nil {
			published := *item.PublishedParsed
			event.DateTime = &published
		} else if item.UpdatedParsed != nil {
			updated := *item.UpdatedParsed
			event.DateTime = &updated
		}

		events = append(events, event)
	}

	return capEvents(Dedupe(events), source.EffectiveLimit()), nil
}

func feedItemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	// First enclosure only (RSS 2.0 allows one per item)
	if len(item.Enclosures) > 0 && item.Enclosures[0] != nil {
		return item.Enclosures[0].URL
	}
	return ""
}
