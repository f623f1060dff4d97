package scraper

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	slugRe       = regexp.MustCompile(`[^a-z0-9]+`)

	titleCaser = cases.Title(language.English)
)

// CleanText collapses whitespace runs to a single space and trims the result.
func CleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// CleanTags cleans every tag and drops the ones that end up empty.
func CleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = CleanText(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return cleaned
}

// NormalizeURL produces a stable form of a URL for identity comparison: the
// fragment is stripped and query parameters are sorted by key. A string that
// does not parse as a URL is returned trimmed, never an error.
func NormalizeURL(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Scheme == "" {
		return strings.TrimSpace(rawURL)
	}

	parsed.Fragment = ""
	parsed.RawQuery = parsed.Query().Encode() // Encode sorts by key

	return parsed.String()
}

// Slugify converts a city name to its lowercase-hyphen lookup form.
func Slugify(s string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(slug, "-")
}

// TitleCase converts a city name to its human-readable display form.
func TitleCase(s string) string {
	return titleCaser.String(strings.ToLower(CleanText(s)))
}
