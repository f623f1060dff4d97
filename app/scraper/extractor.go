package scraper

import (
	"context"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// ErrChallenge marks a page that served an anti-automation challenge instead
// of its listings. Recoverable: the source is recorded as errored and the run
// continues.
var ErrChallenge = errors.New("blocked by anti-bot challenge on source site")

var challengeTitles = []string{
	"confirm you are human",
	"just a moment",
	"attention required",
}

const minAnchorTitleLength = 5

// Extractor turns rendered source pages into event candidates. Two strategies
// run per page: embedded structured data (JSON-LD Event nodes) and a DOM
// heuristic over event links; their union is deduplicated and capped to the
// source's limit.
type Extractor struct {
	fetcher    Fetcher
	feedParser *gofeed.Parser
}

func NewExtractor(fetcher Fetcher) *Extractor {
	return &Extractor{
		fetcher:    fetcher,
		feedParser: gofeed.NewParser(),
	}
}

func (e *Extractor) Run(ctx context.Context, source Source) ([]ScrapedEvent, error) {
	if source.FeedURL != "" {
		return e.runFeed(ctx, source)
	}

	page, err := e.fetcher.Fetch(ctx, source.URL)
	if err != nil {
		return nil, err
	}

	if isChallengeTitle(page.Title()) {
		return nil, ErrChallenge
	}

	events := e.extractStructured(page, source)
	events = append(events, e.extractAnchors(page, source)...)

	return capEvents(Dedupe(events), source.EffectiveLimit()), nil
}

func isChallengeTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, phrase := range challengeTitles {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func capEvents(events []ScrapedEvent, limit int) []ScrapedEvent {
	if limit > 0 && len(events) > limit {
		return events[:limit]
	}
	return events
}

// extractStructured reads JSON-LD Event nodes embedded in the page.
// Missing or malformed fields yield empty values, never an error.
func (e *Extractor) extractStructured(page *Page, source Source) []ScrapedEvent {
	nodes := parseJSONLDBlocks(page.EmbeddedJSON())

	var events []ScrapedEvent
	for _, node := range nodes {
		if !hasEventType(node) {
			continue
		}

		title := readString(node["name"])
		originalURL := parseEventURL(node, source.URL)
		if title == "" || originalURL == "" {
			continue
		}

		startDate := readString(node["startDate"])
		if startDate == "" {
			if schedule, ok := node["eventSchedule"].(map[string]interface{}); ok {
				startDate = readString(schedule["startDate"])
			}
		}

		venue := parseVenueFromLocation(node["location"])
		keywords := readStringArray(node["keywords"])

		city := venue.city
		if city == "" {
			city = source.City
		}

		events = append(events, ScrapedEvent{
			Title:        title,
			DateTime:     ParseDate(startDate),
			VenueName:    venue.venueName,
			VenueAddress: venue.venueAddress,
			City:         city,
			Description:  readString(node["description"]),
			CategoryTags: sourceTags(source, keywords),
			ImageURL:     parseImageURL(node["image"], source.URL),
			SourceName:   source.Name,
			OriginalURL:  originalURL,
		})
	}

	return events
}

// extractAnchors scans event links and reads event fields from the nearest
// card-like ancestor of each.
func (e *Extractor) extractAnchors(page *Page, source Source) []ScrapedEvent {
	patterns := make([]string, 0, len(source.LinkPatterns))
	for _, pattern := range source.LinkPatterns {
		patterns = append(patterns, strings.ToLower(pattern))
	}

	limit := source.EffectiveLimit()
	seen := make(map[string]bool)

	var events []ScrapedEvent
	page.Find("a[href]").EachWithBreak(func(_ int, anchor *goquery.Selection) bool {
		href, _ := anchor.Attr("href")

		originalURL := page.Resolve(href)
		if !strings.HasPrefix(originalURL, "http") || seen[originalURL] {
			return true
		}

		if !matchesLinkPatterns(originalURL, patterns) {
			return true
		}

		card := closestCard(anchor)

		title := cardTitle(card, anchor)
		if title == "" || len(title) < minAnchorTitleLength {
			return true
		}

		seen[originalURL] = true
		events = append(events, ScrapedEvent{
			Title:        title,
			DateTime:     ParseDate(cardDateText(card)),
			VenueName:    cardText(card, "address, [class*='venue'], [class*='location'], [data-testid*='venue'], [data-testid*='location']"),
			City:         source.City,
			Description:  cardText(card, "p, [class*='description'], [data-testid*='summary'], [data-testid*='description']"),
			CategoryTags: sourceTags(source, nil),
			ImageURL:     cardImageURL(card, page),
			SourceName:   source.Name,
			OriginalURL:  originalURL,
		})

		return len(events) < limit
	})

	return events
}

func matchesLinkPatterns(absoluteURL string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	lower := strings.ToLower(absoluteURL)
	for _, pattern := range patterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// closestCard walks up from the anchor to its nearest enclosing card-like
// container, preferring the more specific containers first.
func closestCard(anchor *goquery.Selection) *goquery.Selection {
	for _, container := range []string{"article", "li", "section", "div"} {
		if card := anchor.Closest(container); card.Length() > 0 {
			return card
		}
	}
	return anchor
}

func cardTitle(card, anchor *goquery.Selection) string {
	heading := card.Find("h1, h2, h3, h4, [data-testid*='title'], [class*='title'], [class*='heading']").First()
	if heading.Length() > 0 {
		if title := CleanText(heading.Text()); title != "" {
			return title
		}
	}
	return CleanText(anchor.Text())
}

func cardDateText(card *goquery.Selection) string {
	timeEl := card.Find("time").First()
	if timeEl.Length() > 0 {
		if datetime, ok := timeEl.Attr("datetime"); ok && CleanText(datetime) != "" {
			return CleanText(datetime)
		}
		if text := CleanText(timeEl.Text()); text != "" {
			return text
		}
	}

	if datetime, ok := card.Find("[datetime]").First().Attr("datetime"); ok {
		return CleanText(datetime)
	}
	return ""
}

func cardText(card *goquery.Selection, selector string) string {
	return CleanText(card.Find(selector).First().Text())
}

func cardImageURL(card *goquery.Selection, page *Page) string {
	src, ok := card.Find("img").First().Attr("src")
	if !ok || strings.TrimSpace(src) == "" {
		return ""
	}
	return page.Resolve(src)
}

// sourceTags builds an event's tag set: the source's configured tags, any
// extra tags found on the page, and the lower-cased country code.
func sourceTags(source Source, extra []string) []string {
	tags := make([]string, 0, len(source.Tags)+len(extra)+1)
	tags = append(tags, source.Tags...)
	tags = append(tags, extra...)
	if source.CountryCode != "" {
		tags = append(tags, strings.ToLower(source.CountryCode))
	}
	return tags
}
