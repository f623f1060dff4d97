package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/citybeat/citybeat/app/database"
	"github.com/citybeat/citybeat/app/scraper"
)

// InactivityGraceWindow is how far past its start time an event may be
// before reconciliation ages it out of the active catalog.
const InactivityGraceWindow = 2 * time.Hour

// Stats are the catalog mutation counts of one reconciliation pass.
type Stats struct {
	Created     int `json:"created"`
	Updated     int `json:"updated"`
	Unchanged   int `json:"unchanged"`
	Inactivated int `json:"inactivated"`
}

// Reconciler diffs a batch of freshly observed events against the catalog
// and applies the lifecycle state machine: create, update, inactivate.
// Records are never physically deleted.
type Reconciler struct {
	repo database.EventRepository
	now  func() time.Time
}

func NewReconciler(repo database.EventRepository) *Reconciler {
	return &Reconciler{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Run reconciles a deduplicated batch against the catalog.
// successfulSources names the sources whose extraction completed in this
// run: only their unobserved records are inactivated, since an errored
// source's absence of data is not evidence of absence of events. Store
// errors are fatal; reconciliation cannot proceed without the catalog.
func (r *Reconciler) Run(events []scraper.ScrapedEvent, successfulSources []string) (Stats, error) {
	now := r.now()
	seenSourceKeys := make(map[string]bool, len(events))

	var stats Stats

	for _, event := range events {
		if event.Title == "" || scraper.NormalizeURL(event.OriginalURL) == "" {
			continue
		}

		sourceKey := event.SourceKey()
		seenSourceKeys[sourceKey] = true

		contentHash := scraper.ContentHash(event)

		existing, err := r.repo.GetBySourceKey(sourceKey)
		if err != nil {
			return stats, fmt.Errorf("failed to look up event %s: %w", sourceKey, err)
		}

		if existing == nil {
			if err := r.createEvent(event, sourceKey, contentHash, now); err != nil {
				return stats, err
			}
			stats.Created++
			continue
		}

		changed, err := r.updateEvent(existing, event, contentHash, now)
		if err != nil {
			return stats, err
		}

		if changed {
			stats.Updated++
		} else {
			stats.Unchanged++
		}
	}

	inactivated, err := r.inactivateUnobserved(successfulSources, seenSourceKeys, now)
	if err != nil {
		return stats, err
	}
	stats.Inactivated += inactivated

	expired, err := r.inactivateExpired(now)
	if err != nil {
		return stats, err
	}
	stats.Inactivated += expired

	return stats, nil
}

func (r *Reconciler) createEvent(event scraper.ScrapedEvent, sourceKey, contentHash string, now time.Time) error {
	record := &database.Event{
		Title:         event.Title,
		DateTime:      eventTimeOrNow(event, now),
		VenueName:     event.VenueName,
		VenueAddress:  event.VenueAddress,
		City:          event.City,
		Description:   event.Description,
		CategoryTags:  event.CategoryTags,
		ImageURL:      event.ImageURL,
		SourceName:    event.SourceName,
		OriginalURL:   event.OriginalURL,
		SourceKey:     sourceKey,
		ContentHash:   contentHash,
		StatusTags:    database.TagSet{database.StatusNew},
		LastScrapedAt: now,
		LastSeenAt:    now,
		IsActive:      true,
	}

	if err := r.repo.Create(record); err != nil {
		return fmt.Errorf("failed to create event %s: %w", sourceKey, err)
	}

	return nil
}

func (r *Reconciler) updateEvent(existing *database.Event, event scraper.ScrapedEvent, contentHash string, now time.Time) (bool, error) {
	// A reappearing inactive record counts as changed even when its content
	// hash is identical.
	changed := existing.ContentHash != contentHash || !existing.IsActive

	existing.Title = event.Title
	existing.DateTime = eventTimeOrNow(event, now)
	existing.VenueName = event.VenueName
	existing.VenueAddress = event.VenueAddress
	existing.City = event.City
	existing.Description = event.Description
	existing.CategoryTags = event.CategoryTags
	existing.ImageURL = event.ImageURL
	existing.SourceName = event.SourceName
	existing.OriginalURL = event.OriginalURL
	existing.ContentHash = contentHash
	existing.LastScrapedAt = now
	existing.LastSeenAt = now
	existing.IsActive = true
	existing.StatusTags = mergeStatusTags(existing.StatusTags, statusChange{
		changed:  changed,
		imported: existing.Imported,
	})

	if err := r.repo.Update(existing); err != nil {
		return false, fmt.Errorf("failed to update event %s: %w", existing.SourceKey, err)
	}

	return changed, nil
}

// inactivateUnobserved marks as inactive every active record of a
// successfully scraped source whose key was not observed in this batch.
func (r *Reconciler) inactivateUnobserved(successfulSources []string, seenSourceKeys map[string]bool, now time.Time) (int, error) {
	inactivated := 0

	for _, sourceName := range successfulSources {
		candidates, err := r.repo.GetActiveBySource(sourceName)
		if err != nil {
			return inactivated, fmt.Errorf("failed to load active events for %s: %w", sourceName, err)
		}

		for i := range candidates {
			candidate := &candidates[i]
			if seenSourceKeys[candidate.SourceKey] {
				continue
			}

			if err := r.inactivate(candidate, now); err != nil {
				return inactivated, err
			}
			inactivated++
		}
	}

	return inactivated, nil
}

// inactivateExpired ages out active records whose start time passed the
// grace cutoff, regardless of how their source fared this run.
func (r *Reconciler) inactivateExpired(now time.Time) (int, error) {
	cutoff := now.Add(-InactivityGraceWindow)

	expired, err := r.repo.GetActiveStartedBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to load expired events: %w", err)
	}

	for i := range expired {
		if err := r.inactivate(&expired[i], now); err != nil {
			return i, err
		}
	}

	return len(expired), nil
}

func (r *Reconciler) inactivate(event *database.Event, now time.Time) error {
	event.IsActive = false
	event.LastScrapedAt = now
	event.StatusTags = mergeStatusTags(event.StatusTags, statusChange{
		imported:     event.Imported,
		makeInactive: true,
	})

	if err := r.repo.Update(event); err != nil {
		return fmt.Errorf("failed to inactivate event %s: %w", event.SourceKey, err)
	}

	slog.Debug("Event inactivated", "source_key", event.SourceKey, "title", event.Title)
	return nil
}

func eventTimeOrNow(event scraper.ScrapedEvent, now time.Time) time.Time {
	if event.DateTime != nil {
		return event.DateTime.UTC()
	}
	// An unparseable date means "unknown", never a discard signal; the run
	// time stands in until the source publishes something parseable.
	return now
}
