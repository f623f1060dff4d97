package scraper

// Dedupe collapses a batch of extracted events to one per
// {sourceName}:{normalizedURL} key, last write winning on collisions.
// Candidates whose title or URL is empty after cleaning are discarded. The
// surviving copy carries fully normalized fields; order follows the first
// appearance of each key so repeated runs over the same input are stable.
func Dedupe(events []ScrapedEvent) []ScrapedEvent {
	byKey := make(map[string]int, len(events))
	deduped := make([]ScrapedEvent, 0, len(events))

	for _, event := range events {
		title := CleanText(event.Title)
		originalURL := NormalizeURL(event.OriginalURL)
		if title == "" || originalURL == "" {
			continue
		}

		normalized := event
		normalized.Title = title
		normalized.OriginalURL = originalURL
		normalized.City = CleanText(event.City)
		normalized.VenueName = CleanText(event.VenueName)
		normalized.VenueAddress = CleanText(event.VenueAddress)
		normalized.Description = CleanText(event.Description)
		normalized.ImageURL = CleanText(event.ImageURL)
		normalized.CategoryTags = CleanTags(event.CategoryTags)

		key := normalized.SourceKey()
		if idx, ok := byKey[key]; ok {
			deduped[idx] = normalized
			continue
		}

		byKey[key] = len(deduped)
		deduped = append(deduped, normalized)
	}

	return deduped
}
