package scraper

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var ordinalRe = regexp.MustCompile(`(?i)(\d+)(st|nd|rd|th)`)

// Australian timezone abbreviations seen in source date text. Go cannot
// resolve bare abbreviations to offsets, so matching ones select a fixed zone
// for the remaining date text.
var tzAbbreviations = []struct {
	re     *regexp.Regexp
	name   string
	offset int
}{
	{regexp.MustCompile(`(?i)\bAEDT\b`), "AEDT", 11 * 3600},
	{regexp.MustCompile(`(?i)\bAEST\b`), "AEST", 10 * 3600},
	{regexp.MustCompile(`(?i)\bACDT\b`), "ACDT", 10*3600 + 1800},
	{regexp.MustCompile(`(?i)\bACST\b`), "ACST", 9*3600 + 1800},
	{regexp.MustCompile(`(?i)\bAWST\b`), "AWST", 8 * 3600},
}

// ParseDate parses free-text date strings as emitted by source sites. Ordinal
// suffixes are stripped and known timezone abbreviations are substituted with
// their fixed UTC offsets before parsing; a first failure retries with commas
// removed. Returns nil when the text is unparseable, never an error: a bad
// date must not discard an otherwise valid event candidate.
func ParseDate(s string) *time.Time {
	raw := CleanText(s)
	if raw == "" {
		return nil
	}

	text := ordinalRe.ReplaceAllString(raw, "${1}")

	loc := time.UTC
	for _, tz := range tzAbbreviations {
		if tz.re.MatchString(text) {
			loc = time.FixedZone(tz.name, tz.offset)
			text = CleanText(tz.re.ReplaceAllString(text, ""))
			break
		}
	}

	if t, err := dateparse.ParseIn(text, loc); err == nil {
		return &t
	}

	noComma := CleanText(strings.ReplaceAll(text, ",", " "))
	if t, err := dateparse.ParseIn(noComma, loc); err == nil {
		return &t
	}

	return nil
}
