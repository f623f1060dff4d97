package database

import (
	"time"
)

// EventFilter narrows catalog listings for the query layer.
type EventFilter struct {
	City            string
	Query           string // substring match over title, venue name, description
	Status          StatusTag
	IncludeInactive bool
	From            *time.Time
	To              *time.Time
	Page            int
	Limit           int
}

// EventForEnrichment is the slim projection handed to the content
// extraction task.
type EventForEnrichment struct {
	ID          string
	OriginalURL string
}

// EventRepository is the catalog store consumed by the reconciliation
// pipeline and the API layer. Each create/save is an independent write; no
// transactions are assumed.
type EventRepository interface {
	GetBySourceKey(sourceKey string) (*Event, error)
	GetByID(id string) (*Event, error)
	Create(event *Event) error
	Update(event *Event) error

	// GetActiveBySource returns every active record observed from a source,
	// for post-run inactivation of listings the source no longer carries.
	GetActiveBySource(sourceName string) ([]Event, error)

	// GetActiveStartedBefore returns active records whose start time is
	// older than the cutoff, for grace-window expiry.
	GetActiveStartedBefore(cutoff time.Time) ([]Event, error)

	List(filter EventFilter) ([]Event, int, error)
	GetCityLastScrapedAt(city string) (*time.Time, error)
	GetStats() (EventStats, error)
	GetEventCount() (int, error)

	GetEventsForEnrichment(limit int) ([]EventForEnrichment, error)
	UpdateExtractedContent(id string, content string, extractedAt time.Time) error
	UpdateExtractionStatus(id string, status string, extractedAt time.Time, extractionError string) error
}
