package scraper

import (
	"testing"
	"time"
)

func testEvent() ScrapedEvent {
	dt := time.Date(2026, 3, 15, 19, 30, 0, 0, time.UTC)
	return ScrapedEvent{
		Title:        "Jazz Night",
		DateTime:     &dt,
		VenueName:    "The Basement",
		VenueAddress: "7 Macquarie Pl",
		City:         "Sydney",
		Description:  "Live jazz every Sunday",
		ImageURL:     "https://example.com/jazz.jpg",
		SourceName:   "example",
		OriginalURL:  "https://example.com/events/jazz-night",
	}
}

func TestContentHash_Deterministic(t *testing.T) {
	a := ContentHash(testEvent())
	b := ContentHash(testEvent())

	if a != b {
		t.Errorf("Same event should hash identically: %s vs %s", a, b)
	}
}

func TestContentHash_FieldChangeChangesHash(t *testing.T) {
	base := ContentHash(testEvent())

	changed := testEvent()
	changed.Description = "Live jazz every Saturday"

	if ContentHash(changed) == base {
		t.Error("Description change should change the hash")
	}
}

func TestContentHash_CaseInsensitive(t *testing.T) {
	upper := testEvent()
	upper.Title = "JAZZ NIGHT"
	upper.VenueName = "THE BASEMENT"

	if ContentHash(upper) != ContentHash(testEvent()) {
		t.Error("Text field casing should not affect the hash")
	}
}

func TestContentHash_WhitespaceInsensitive(t *testing.T) {
	messy := testEvent()
	messy.Title = "  Jazz   Night "

	if ContentHash(messy) != ContentHash(testEvent()) {
		t.Error("Whitespace differences should not affect the hash")
	}
}

func TestContentHash_QueryOrderInsensitive(t *testing.T) {
	a := testEvent()
	a.OriginalURL = "https://example.com/e?x=1&y=2"
	b := testEvent()
	b.OriginalURL = "https://example.com/e?y=2&x=1"

	if ContentHash(a) != ContentHash(b) {
		t.Error("Query parameter order should not affect the hash")
	}
}

func TestContentHash_NilDate(t *testing.T) {
	noDate := testEvent()
	noDate.DateTime = nil

	if ContentHash(noDate) == ContentHash(testEvent()) {
		t.Error("Missing date should hash differently from a set date")
	}

	other := testEvent()
	other.DateTime = nil
	if ContentHash(noDate) != ContentHash(other) {
		t.Error("Two events without dates should hash identically")
	}
}

func TestContentHash_IgnoresNonContentFields(t *testing.T) {
	tagged := testEvent()
	tagged.CategoryTags = []string{"music", "nightlife"}
	tagged.SourceName = "other-source"
	tagged.City = "Melbourne"

	if ContentHash(tagged) != ContentHash(testEvent()) {
		t.Error("Tags, source name and city should not affect the hash")
	}
}
