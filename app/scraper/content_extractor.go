package scraper

import (
	"fmt"
	"log/slog"
	"strings"

	readability "codeberg.org/readeck/go-readability"
)

// ContentExtractor pulls readable text out of an event detail page. Used by
// the background enrichment task for events whose listing card carried no
// usable description; the result is stored apart from the hashed fields so
// enrichment never perturbs change detection.
type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

func (e *ContentExtractor) Run(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	article, err := readability.FromReader(strings.NewReader(string(data)), nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	content := CleanText(article.TextContent)
	if content == "" {
		return "", fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted successfully",
		"title", article.Title,
		"content_length", len(content))

	return content, nil
}
