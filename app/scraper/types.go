package scraper

import (
	"time"
)

// Event extraction types

// ScrapedEvent is a single event candidate as observed on a source page,
// before reconciliation against the catalog.
type ScrapedEvent struct {
	Title        string
	DateTime     *time.Time // nil when the source date text could not be parsed
	VenueName    string
	VenueAddress string
	City         string
	Description  string
	CategoryTags []string
	ImageURL     string
	SourceName   string
	OriginalURL  string
}

// SourceKey returns the stable identity of this listing within its source.
func (e ScrapedEvent) SourceKey() string {
	return e.SourceName + ":" + NormalizeURL(e.OriginalURL)
}

// Source configuration types

const DefaultSourceLimit = 60

type Source struct {
	Name        string   `yaml:"name"`
	URL         string   `yaml:"url"`
	FeedURL     string   `yaml:"feed_url"` // when set, the source is read as an RSS/Atom listing
	City        string   `yaml:"city"`
	CountryCode string   `yaml:"country_code"`
	Tags        []string `yaml:"tags"`

	// LinkPatterns are URL substrings identifying event detail links on the
	// page. An empty list matches every link.
	LinkPatterns []string `yaml:"link_patterns"`

	Limit          int `yaml:"limit"`
	TimeoutSeconds int `yaml:"timeout"`
}

// EffectiveLimit returns the per-source result cap, falling back to the
// default when the configuration leaves it unset.
func (s Source) EffectiveLimit() int {
	if s.Limit > 0 {
		return s.Limit
	}
	return DefaultSourceLimit
}
