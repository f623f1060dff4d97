package scraper

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// ContentHash fingerprints the semantically meaningful fields of an event.
// Two events hash equal iff title, date, venue name, venue address,
// description, image URL and normalized URL are all equal after cleaning.
// The hash is a change detector only; listing identity is the source key.
func ContentHash(event ScrapedEvent) string {
	dateTime := ""
	if event.DateTime != nil {
		dateTime = event.DateTime.UTC().Format(time.RFC3339)
	}

	payload := strings.Join([]string{
		strings.ToLower(CleanText(event.Title)),
		dateTime,
		strings.ToLower(CleanText(event.VenueName)),
		strings.ToLower(CleanText(event.VenueAddress)),
		strings.ToLower(CleanText(event.Description)),
		CleanText(event.ImageURL),
		strings.ToLower(NormalizeURL(event.OriginalURL)),
	}, "|")

	hash := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(hash[:])
}
