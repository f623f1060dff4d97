package sources

import (
	"net/url"
	"strings"

	"github.com/citybeat/citybeat/app/scraper"
)

// Registry is the immutable table of configured sources, built once at
// startup. All entries are static except the eventbrite one, which is
// re-derived from a target city at run time.
type Registry struct {
	defaults []scraper.Source
	optional []scraper.Source
}

const EventbriteSourceName = "eventbrite"

// cityCountrySlugs maps city slugs to the country slug eventbrite expects in
// its listing URLs.
var cityCountrySlugs = map[string]string{
	"sydney":    "australia",
	"melbourne": "australia",
	"brisbane":  "australia",
	"perth":     "australia",
	"london":    "united-kingdom",
	"manchester": "united-kingdom",
	"aberdeen":  "united-kingdom",
	"mumbai":    "india",
	"bengaluru": "india",
	"delhi":     "india",
}

func NewRegistry() *Registry {
	return &Registry{
		defaults: []scraper.Source{
			{
				Name:         "cityofsydney",
				URL:          "https://whatson.cityofsydney.nsw.gov.au/",
				City:         "Sydney",
				CountryCode:  "AU",
				Tags:         []string{"city-council", "public-events", "sydney"},
				LinkPatterns: []string{"/events/"},
				Limit:        60,
			},
			{
				Name:         "sydney-com",
				URL:          "https://www.sydney.com/events",
				City:         "Sydney",
				CountryCode:  "AU",
				Tags:         []string{"tourism", "city-events", "sydney"},
				LinkPatterns: []string{"/events/"},
				Limit:        60,
			},
			{
				Name:         "australia-com",
				URL:          "https://www.australia.com/en-in/events/australias-events-calendar.html",
				City:         "Sydney",
				CountryCode:  "AU",
				Tags:         []string{"national-calendar", "tourism-australia"},
				LinkPatterns: []string{"/events/"},
				Limit:        60,
			},
			{
				Name:         "icc-sydney",
				URL:          "https://iccsydney.com.au/whats-on/",
				City:         "Sydney",
				CountryCode:  "AU",
				Tags:         []string{"conference-centre", "venue-events", "sydney"},
				LinkPatterns: []string{"/events/", "/whats-on/"},
				Limit:        60,
			},
			EventbriteForCity("Sydney"),
		},
		optional: []scraper.Source{
			{
				Name:         "predicthq-aberdeen",
				URL:          "https://www.predicthq.com/major-events/cities/gb/aberdeen",
				City:         "Aberdeen",
				CountryCode:  "GB",
				Tags:         []string{"major-events", "insights", "aberdeen"},
				LinkPatterns: []string{"/major-events/", "/events/"},
				Limit:        40,
			},
			{
				Name:        "cityofsydney-feed",
				FeedURL:     "https://whatson.cityofsydney.nsw.gov.au/rss",
				City:        "Sydney",
				CountryCode: "AU",
				Tags:        []string{"city-council", "public-events", "sydney"},
				Limit:       60,
			},
		},
	}
}

// EventbriteForCity derives the ticketing aggregator source for a target
// city. Cities with a known country slug get that country's listing page;
// anything else falls back to the online events search.
func EventbriteForCity(cityInput string) scraper.Source {
	city := scraper.TitleCase(cityInput)
	if city == "" {
		city = "Sydney"
	}

	return scraper.Source{
		Name:         EventbriteSourceName,
		URL:          eventbriteURL(city),
		City:         city,
		CountryCode:  "GLOBAL",
		Tags:         []string{"ticketing", "aggregator", strings.ToLower(city)},
		LinkPatterns: []string{"/e/", "/events/"},
		Limit:        80,
	}
}

func eventbriteURL(city string) string {
	citySlug := scraper.Slugify(city)
	if citySlug == "" {
		citySlug = "sydney"
	}

	if countrySlug, ok := cityCountrySlugs[citySlug]; ok {
		return "https://www.eventbrite.com/d/" + countrySlug + "--" + citySlug + "/events/"
	}

	return "https://www.eventbrite.com/d/online/all-events/?q=" + url.QueryEscape(city)
}

// Defaults returns the default source list, optionally re-deriving the
// city-parameterized entry.
func (r *Registry) Defaults(city string) []scraper.Source {
	return withCity(r.defaults, city)
}

// All returns every registered source, including optional ones that are not
// part of the default run.
func (r *Registry) All() []scraper.Source {
	all := make([]scraper.Source, 0, len(r.defaults)+len(r.optional))
	all = append(all, r.defaults...)
	all = append(all, r.optional...)
	return all
}

// Resolve selects the sources for a run. A nil name list selects the
// defaults; an explicit list filters the full registry case-insensitively.
// A non-empty city re-derives the eventbrite source either way.
func (r *Registry) Resolve(names []string, city string) []scraper.Source {
	if names == nil {
		return r.Defaults(city)
	}

	requested := make(map[string]bool, len(names))
	for _, name := range names {
		requested[strings.ToLower(strings.TrimSpace(name))] = true
	}

	var selected []scraper.Source
	for _, source := range r.All() {
		if requested[strings.ToLower(source.Name)] {
			selected = append(selected, source)
		}
	}

	return withCity(selected, city)
}

func withCity(selected []scraper.Source, city string) []scraper.Source {
	if strings.TrimSpace(city) == "" {
		return selected
	}

	out := make([]scraper.Source, len(selected))
	for i, source := range selected {
		if source.Name == EventbriteSourceName {
			out[i] = EventbriteForCity(city)
		} else {
			out[i] = source
		}
	}
	return out
}
