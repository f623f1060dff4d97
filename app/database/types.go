package database

import (
	"time"
)

// StatusTag is a lifecycle flag on a catalog event. Tags are independent bits
// combined into a set, not mutually exclusive states.
type StatusTag string

const (
	StatusNew      StatusTag = "new"
	StatusUpdated  StatusTag = "updated"
	StatusInactive StatusTag = "inactive"
	StatusImported StatusTag = "imported"
)

// ValidStatusTag reports whether a raw string names a known status tag.
func ValidStatusTag(value string) bool {
	switch StatusTag(value) {
	case StatusNew, StatusUpdated, StatusInactive, StatusImported:
		return true
	}
	return false
}

// TagSet is an ordered set of status tags. Helpers preserve insertion order
// and never duplicate a tag; lifecycle transitions themselves live in the
// reconciliation engine, the sole mutator of persisted tag sets.
type TagSet []StatusTag

func (s TagSet) Has(tag StatusTag) bool {
	for _, t := range s {
		if t == tag {
			return true
		}
	}
	return false
}

// With returns the set with tag present.
func (s TagSet) With(tag StatusTag) TagSet {
	if s.Has(tag) {
		return s
	}
	out := make(TagSet, 0, len(s)+1)
	out = append(out, s...)
	return append(out, tag)
}

// Without returns the set with tag absent.
func (s TagSet) Without(tag StatusTag) TagSet {
	if !s.Has(tag) {
		return s
	}
	out := make(TagSet, 0, len(s))
	for _, t := range s {
		if t != tag {
			out = append(out, t)
		}
	}
	return out
}

// Event is a catalog event record. Created on the first observation of its
// source key and mutated on every later one; never physically deleted.
type Event struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	DateTime      time.Time `json:"dateTime"`
	VenueName     string    `json:"venueName,omitempty"`
	VenueAddress  string    `json:"venueAddress,omitempty"`
	City          string    `json:"city"`
	Description   string    `json:"description,omitempty"`
	CategoryTags  []string  `json:"categoryTags"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	SourceName    string    `json:"sourceName"`
	OriginalURL   string    `json:"originalUrl"`
	SourceKey     string    `json:"sourceKey"`
	ContentHash   string    `json:"contentHash"`
	StatusTags    TagSet    `json:"statusTags"`
	LastScrapedAt time.Time `json:"lastScrapedAt"`
	LastSeenAt    time.Time `json:"lastSeenAt"`
	IsActive      bool      `json:"isActive"`

	// Import marking is written by the listing/import layer, never by the
	// reconciliation pipeline; the pipeline only mirrors Imported into the
	// tag set.
	Imported    bool       `json:"imported"`
	ImportedAt  *time.Time `json:"importedAt,omitempty"`
	ImportedBy  string     `json:"importedBy,omitempty"`
	ImportNotes string     `json:"importNotes,omitempty"`

	// Enrichment fields, written by the background content extraction task.
	ExtractedContent        string     `json:"extractedContent,omitempty"`
	ContentExtractedAt      *time.Time `json:"contentExtractedAt,omitempty"`
	ContentExtractionStatus string     `json:"contentExtractionStatus,omitempty"` // pending, success, failed
	ContentExtractionError  string     `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// EventStats summarizes catalog state for the stats endpoint.
type EventStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	Imported int `json:"imported"`
}
