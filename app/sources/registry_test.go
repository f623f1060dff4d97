package sources

import (
	"strings"
	"testing"
)

func TestRegistry_Defaults(t *testing.T) {
	registry := NewRegistry()

	defaults := registry.Defaults("")

	if len(defaults) != 5 {
		t.Fatalf("Expected 5 default sources, got %d", len(defaults))
	}

	names := make(map[string]bool)
	for _, source := range defaults {
		names[source.Name] = true
		if source.URL == "" && source.FeedURL == "" {
			t.Errorf("Source %q has no URL", source.Name)
		}
	}

	for _, expected := range []string{"cityofsydney", "sydney-com", "australia-com", "icc-sydney", "eventbrite"} {
		if !names[expected] {
			t.Errorf("Expected default source %q", expected)
		}
	}
}

func TestRegistry_Resolve_NilSelectsDefaults(t *testing.T) {
	registry := NewRegistry()

	selected := registry.Resolve(nil, "")

	if len(selected) != len(registry.Defaults("")) {
		t.Errorf("Expected nil names to select defaults, got %d sources", len(selected))
	}
}

func TestRegistry_Resolve_FiltersByName(t *testing.T) {
	registry := NewRegistry()

	selected := registry.Resolve([]string{"CityOfSydney", " icc-sydney "}, "")

	if len(selected) != 2 {
		t.Fatalf("Expected 2 sources, got %d", len(selected))
	}
	if selected[0].Name != "cityofsydney" || selected[1].Name != "icc-sydney" {
		t.Errorf("Unexpected selection: %v, %v", selected[0].Name, selected[1].Name)
	}
}

func TestRegistry_Resolve_IncludesOptional(t *testing.T) {
	registry := NewRegistry()

	selected := registry.Resolve([]string{"predicthq-aberdeen"}, "")

	if len(selected) != 1 {
		t.Fatalf("Expected 1 source, got %d", len(selected))
	}
	if selected[0].City != "Aberdeen" {
		t.Errorf("Unexpected city: %q", selected[0].City)
	}
}

func TestRegistry_Resolve_UnknownNamesIgnored(t *testing.T) {
	registry := NewRegistry()

	selected := registry.Resolve([]string{"no-such-source"}, "")

	if len(selected) != 0 {
		t.Errorf("Expected no sources for unknown name, got %d", len(selected))
	}
}

func TestRegistry_Resolve_CityRederivesEventbrite(t *testing.T) {
	registry := NewRegistry()

	selected := registry.Resolve(nil, "Melbourne")

	var eventbrite *string
	for _, source := range selected {
		if source.Name == EventbriteSourceName {
			url := source.URL
			eventbrite = &url
			if source.City != "Melbourne" {
				t.Errorf("Expected eventbrite city Melbourne, got %q", source.City)
			}
		} else if source.City == "Melbourne" {
			t.Errorf("Static source %q should keep its own city", source.Name)
		}
	}

	if eventbrite == nil {
		t.Fatal("Expected eventbrite source in defaults")
	}
	if !strings.Contains(*eventbrite, "australia--melbourne") {
		t.Errorf("Expected Melbourne listing URL, got %q", *eventbrite)
	}
}

func TestEventbriteForCity_KnownCity(t *testing.T) {
	source := EventbriteForCity("london")

	if source.City != "London" {
		t.Errorf("Expected title-cased city, got %q", source.City)
	}
	if source.URL != "https://www.eventbrite.com/d/united-kingdom--london/events/" {
		t.Errorf("Unexpected URL: %q", source.URL)
	}
}

func TestEventbriteForCity_UnknownCityFallsBackToSearch(t *testing.T) {
	source := EventbriteForCity("Buenos Aires")

	if !strings.Contains(source.URL, "/d/online/all-events/?q=Buenos+Aires") {
		t.Errorf("Expected online search fallback, got %q", source.URL)
	}
}

func TestEventbriteForCity_EmptyCityDefaults(t *testing.T) {
	source := EventbriteForCity("")

	if source.City != "Sydney" {
		t.Errorf("Expected Sydney default, got %q", source.City)
	}
}
