package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/citybeat/citybeat/app/database"
	"github.com/citybeat/citybeat/app/scraper"
)

// fakeEventRepo is an in-memory EventRepository keeping insertion order.
type fakeEventRepo struct {
	events []*database.Event
	nextID int

	getErr    error
	createErr error
	updateErr error
}

var _ database.EventRepository = (*fakeEventRepo)(nil)

func (r *fakeEventRepo) GetBySourceKey(sourceKey string) (*database.Event, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	for _, event := range r.events {
		if event.SourceKey == sourceKey {
			copied := *event
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeEventRepo) GetByID(id string) (*database.Event, error) {
	for _, event := range r.events {
		if event.ID == id {
			copied := *event
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeEventRepo) Create(event *database.Event) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	event.ID = string(rune('a' + r.nextID - 1))
	copied := *event
	r.events = append(r.events, &copied)
	return nil
}

func (r *fakeEventRepo) Update(event *database.Event) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	for i, existing := range r.events {
		if existing.SourceKey == event.SourceKey {
			copied := *event
			r.events[i] = &copied
			return nil
		}
	}
	return errors.New("event not found")
}

func (r *fakeEventRepo) GetActiveBySource(sourceName string) ([]database.Event, error) {
	var out []database.Event
	for _, event := range r.events {
		if event.IsActive && event.SourceName == sourceName {
			out = append(out, *event)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) GetActiveStartedBefore(cutoff time.Time) ([]database.Event, error) {
	var out []database.Event
	for _, event := range r.events {
		if event.IsActive && event.DateTime.Before(cutoff) {
			out = append(out, *event)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) List(database.EventFilter) ([]database.Event, int, error) {
	return nil, 0, nil
}

func (r *fakeEventRepo) GetCityLastScrapedAt(string) (*time.Time, error) { return nil, nil }

func (r *fakeEventRepo) GetStats() (database.EventStats, error) {
	return database.EventStats{}, nil
}

func (r *fakeEventRepo) GetEventCount() (int, error) { return len(r.events), nil }

func (r *fakeEventRepo) GetEventsForEnrichment(int) ([]database.EventForEnrichment, error) {
	return nil, nil
}

func (r *fakeEventRepo) UpdateExtractedContent(string, string, time.Time) error { return nil }

func (r *fakeEventRepo) UpdateExtractionStatus(string, string, time.Time, string) error {
	return nil
}

func (r *fakeEventRepo) bySourceKey(sourceKey string) *database.Event {
	for _, event := range r.events {
		if event.SourceKey == sourceKey {
			return event
		}
	}
	return nil
}

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestReconciler(repo *fakeEventRepo) *Reconciler {
	r := NewReconciler(repo)
	r.now = func() time.Time { return testNow }
	return r
}

func scrapedEvent(title, urlPath string) scraper.ScrapedEvent {
	future := testNow.Add(24 * time.Hour)
	return scraper.ScrapedEvent{
		Title:       title,
		DateTime:    &future,
		City:        "Sydney",
		SourceName:  "test-source",
		OriginalURL: "https://example.com" + urlPath,
	}
}

func TestReconciler_Run_CreatesNewEvent(t *testing.T) {
	repo := &fakeEventRepo{}
	reconciler := newTestReconciler(repo)

	stats, err := reconciler.Run([]scraper.ScrapedEvent{scrapedEvent("Jazz Night", "/e/1")}, []string{"test-source"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if stats.Created != 1 || stats.Updated != 0 || stats.Unchanged != 0 || stats.Inactivated != 0 {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	record := repo.bySourceKey("test-source:https://example.com/e/1")
	if record == nil {
		t.Fatal("Expected record in store")
	}
	if !record.IsActive {
		t.Error("New record should be active")
	}
	if len(record.StatusTags) != 1 || record.StatusTags[0] != database.StatusNew {
		t.Errorf("Expected status {new}, got %v", record.StatusTags)
	}
	if record.ContentHash == "" {
		t.Error("Expected content hash")
	}
	if !record.LastScrapedAt.Equal(testNow) || !record.LastSeenAt.Equal(testNow) {
		t.Error("Expected scrape timestamps set to run time")
	}
}

func TestReconciler_Run_SecondRunUnchanged(t *testing.T) {
	repo := &fakeEventRepo{}
	reconciler := newTestReconciler(repo)
	batch := []scraper.ScrapedEvent{scrapedEvent("Jazz Night", "/e/1"), scrapedEvent("Harbour Lights", "/e/2")}

	if _, err := reconciler.Run(batch, []string{"test-source"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	stats, err := reconciler.Run(batch, []string{"test-source"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if stats.Unchanged != 2 || stats.Created != 0 || stats.Updated != 0 {
		t.Errorf("Expected all unchanged on identical rerun, got %+v", stats)
	}

	// Unchanged re-observation keeps the new tag.
	record := repo.bySourceKey("test-source:https://example.com/e/1")
	if !record.StatusTags.Has(database.StatusNew) {
		t.Errorf("Expected new tag preserved, got %v", record.StatusTags)
	}
}

func TestReconciler_Run_ContentChangeUpdates(t *testing.T) {
	repo := &fakeEventRepo{}
	reconciler := newTestReconciler(repo)

	event := scrapedEvent("Jazz Night", "/e/1")
	if _, err := reconciler.Run([]scraper.ScrapedEvent{event}, []string{"test-source"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	event.Description = "Now with a support act"
	stats, err := reconciler.Run([]scraper.ScrapedEvent{event}, []string{"test-source"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if stats.Updated != 1 {
		t.Errorf("Expected 1 updated, got %+v", stats)
	}

	record := repo.bySourceKey("test-source:https://example.com/e/1")
	if record.Description != "Now with a support act" {
		t.Errorf("Expected overwritten description, got %q", record.Description)
	}
	if record.StatusTags.Has(database.StatusNew) || !record.StatusTags.Has(database.StatusUpdated) {
		t.Errorf("Expected new replaced by updated, got %v", record.StatusTags)
	}
}

func TestReconciler_Run_MissingEventInactivated(t *testing.T) {
	repo := &fakeEventRepo{}
	reconciler := newTestReconciler(repo)

	batch := []scraper.ScrapedEvent{scrapedEvent("Jazz Night", "/e/1"), scrapedEvent("Harbour Lights", "/e/2")}
	if _, err := reconciler.Run(batch, []string{"test-source"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	stats, err := reconciler.Run(batch[:1], []string{"test-source"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if stats.Inactivated != 1 {
		t.Errorf("Expected 1 inactivated, got %+v", stats)
	}

	record := repo.bySourceKey("test-source:https://example.com/e/2")
	if record.IsActive {
		t.Error("Unobserved record should be inactive")
	}
	if !record.StatusTags.Has(database.StatusInactive) {
		t.Errorf("Expected inactive tag, got %v", record.StatusTags)
	}
}

func TestReconciler_Run_ErroredSourceNotInactivated(t *testing.T) {
	repo := &fakeEventRepo{}
	reconciler := newTestReconciler(repo)

	if _, err := reconciler.Run([]scraper.ScrapedEvent{scrapedEvent("Jazz Night", "/e/1")}, []string{"test-source"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// The source errored this run: no events and not in successfulSources.
	stats, err := reconciler.Run(nil, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if stats.Inactivated != 0 {
		t.Errorf("Errored source's records must not be inactivated, got %+v", stats)
	}

	record := repo.bySourceKey("test-source:https://example.com/e/1")
	if !record.IsActive {
		t.Error("Record should stay active when its source errored")
	}
}

func TestReconciler_Run_InactiveReappearanceIsUpdate(t *testing.T) {
	repo := &fakeEventRepo{}
	reconciler := newTestReconciler(repo)

	event := scrapedEvent("Jazz Night", "/e/1")
	if _, err := reconciler.Run([]scraper.ScrapedEvent{event}, []string{"test-source"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Disappears, gets inactivated.
	if _, err := reconciler.Run(nil, []string{"test-source"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Reappears with identical content.
	stats, err := reconciler.Run([]scraper.ScrapedEvent{event}, []string{"test-source"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if stats.Updated != 1 {
		t.Errorf("Reappearance should count as updated, got %+v", stats)
	}

	record := repo.bySourceKey("test-source:https://example.com/e/1")
	if !record.IsActive {
		t.Error("Reappearing record should be active")
	}
	if record.StatusTags.Has(database.StatusInactive) {
		t.Errorf("Inactive tag should be cleared, got %v", record.StatusTags)
	}
	if !record.StatusTags.Has(database.StatusUpdated) {
		t.Errorf("Expected updated tag, got %v", record.StatusTags)
	}
}

func TestReconciler_Run_GraceWindowExpiry(t *testing.T) {
	repo := &fakeEventRepo{}
	reconciler := newTestReconciler(repo)

	started := testNow.Add(-3 * time.Hour)
	event := scrapedEvent("Morning Markets", "/e/1")
	event.DateTime = &started

	if _, err := reconciler.Run([]scraper.ScrapedEvent{event}, []string{"test-source"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	record := repo.bySourceKey("test-source:https://example.com/e/1")
	if record.IsActive {
		t.Error("Event past the grace window should be inactivated in the same run")
	}
}

func TestReconciler_Run_GraceWindowAppliesWithoutSuccessfulSources(t *testing.T) {
	repo := &fakeEventRepo{}
	reconciler := newTestReconciler(repo)

	future := scrapedEvent("Jazz Night", "/e/1")
	if _, err := reconciler.Run([]scraper.ScrapedEvent{future}, []string{"test-source"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Age the stored event past the cutoff by hand.
	record := repo.bySourceKey("test-source:https://example.com/e/1")
	record.DateTime = testNow.Add(-3 * time.Hour)

	stats, err := reconciler.Run(nil, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if stats.Inactivated != 1 {
		t.Errorf("Expiry must run regardless of source outcomes, got %+v", stats)
	}
}

func TestReconciler_Run_WithinGraceWindowStaysActive(t *testing.T) {
	repo := &fakeEventRepo{}
	reconciler := newTestReconciler(repo)

	started := testNow.Add(-time.Hour)
	event := scrapedEvent("Lunch Concert", "/e/1")
	event.DateTime = &started

	stats, err := reconciler.Run([]scraper.ScrapedEvent{event}, []string{"test-source"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if stats.Inactivated != 0 {
		t.Errorf("Event inside the grace window should stay active, got %+v", stats)
	}
}

func TestReconciler_Run_ImportedFlagPreserved(t *testing.T) {
	repo := &fakeEventRepo{}
	reconciler := newTestReconciler(repo)

	event := scrapedEvent("Jazz Night", "/e/1")
	if _, err := reconciler.Run([]scraper.ScrapedEvent{event}, []string{"test-source"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// External collaborator marks the record imported.
	record := repo.bySourceKey("test-source:https://example.com/e/1")
	record.Imported = true
	record.StatusTags = record.StatusTags.With(database.StatusImported)

	event.Description = "changed"
	if _, err := reconciler.Run([]scraper.ScrapedEvent{event}, []string{"test-source"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	record = repo.bySourceKey("test-source:https://example.com/e/1")
	if !record.Imported || !record.StatusTags.Has(database.StatusImported) {
		t.Errorf("Import marking should survive reconciliation, got imported=%v tags=%v", record.Imported, record.StatusTags)
	}

	// And through inactivation.
	if _, err := reconciler.Run(nil, []string{"test-source"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	record = repo.bySourceKey("test-source:https://example.com/e/1")
	if !record.StatusTags.Has(database.StatusImported) || !record.StatusTags.Has(database.StatusInactive) {
		t.Errorf("Expected imported and inactive tags, got %v", record.StatusTags)
	}
}

func TestReconciler_Run_NilDateDefaultsToRunTime(t *testing.T) {
	repo := &fakeEventRepo{}
	reconciler := newTestReconciler(repo)

	event := scrapedEvent("Date TBA Show", "/e/1")
	event.DateTime = nil

	if _, err := reconciler.Run([]scraper.ScrapedEvent{event}, []string{"test-source"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	record := repo.bySourceKey("test-source:https://example.com/e/1")
	if record == nil {
		t.Fatal("Event without a date must still be created")
	}
	if !record.DateTime.Equal(testNow) {
		t.Errorf("Expected run time placeholder, got %v", record.DateTime)
	}
}

func TestReconciler_Run_StoreErrorFatal(t *testing.T) {
	repo := &fakeEventRepo{getErr: errors.New("disk gone")}
	reconciler := newTestReconciler(repo)

	_, err := reconciler.Run([]scraper.ScrapedEvent{scrapedEvent("Jazz Night", "/e/1")}, []string{"test-source"})
	if err == nil {
		t.Error("Expected store error to abort the run")
	}
}
