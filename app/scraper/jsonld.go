package scraper

import (
	"encoding/json"
	"net/url"
	"strings"
)

type jsonObject map[string]interface{}

// flattenJSONLDNodes walks a decoded JSON-LD value and collects every object
// node, descending into arrays and @graph containers.
func flattenJSONLDNodes(value interface{}, nodes *[]jsonObject) {
	switch v := value.(type) {
	case []interface{}:
		for _, item := range v {
			flattenJSONLDNodes(item, nodes)
		}
	case map[string]interface{}:
		*nodes = append(*nodes, jsonObject(v))
		if graph, ok := v["@graph"].([]interface{}); ok {
			flattenJSONLDNodes(graph, nodes)
		}
	}
}

// parseJSONLDBlocks decodes raw ld+json blocks into flat object nodes.
// A malformed block is skipped; the others are still processed.
func parseJSONLDBlocks(blocks []string) []jsonObject {
	var nodes []jsonObject
	for _, block := range blocks {
		var value interface{}
		if err := json.Unmarshal([]byte(block), &value); err != nil {
			continue
		}
		flattenJSONLDNodes(value, &nodes)
	}
	return nodes
}

// readString reads a value as cleaned text; anything that is not a string
// yields "".
func readString(value interface{}) string {
	if s, ok := value.(string); ok {
		return CleanText(s)
	}
	return ""
}

// readStringArray reads a value as a list of cleaned strings. A plain string
// is split on commas, matching how keywords appear in the wild.
func readStringArray(value interface{}) []string {
	switch v := value.(type) {
	case []interface{}:
		var out []string
		for _, item := range v {
			if s := readString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if s := CleanText(part); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// hasEventType reports whether a node's @type (string or array) names an
// Event schema.
func hasEventType(node jsonObject) bool {
	types, ok := node["@type"].([]interface{})
	if !ok {
		types = []interface{}{node["@type"]}
	}
	for _, t := range types {
		if strings.Contains(strings.ToLower(readString(t)), "event") {
			return true
		}
	}
	return false
}

type jsonLDVenue struct {
	venueName    string
	venueAddress string
	city         string
}

// parseVenueFromLocation reads a schema.org location value, which may be a
// bare string, a Place object, a PostalAddress, or an array of any of those.
func parseVenueFromLocation(location interface{}) jsonLDVenue {
	switch loc := location.(type) {
	case string:
		return jsonLDVenue{venueName: CleanText(loc)}
	case []interface{}:
		if len(loc) == 0 {
			return jsonLDVenue{}
		}
		return parseVenueFromLocation(loc[0])
	case map[string]interface{}:
		venue := jsonLDVenue{venueName: readString(loc["name"])}

		switch address := loc["address"].(type) {
		case string:
			venue.venueAddress = CleanText(address)
		case map[string]interface{}:
			street := readString(address["streetAddress"])
			locality := readString(address["addressLocality"])
			region := readString(address["addressRegion"])
			country := readString(address["addressCountry"])

			var parts []string
			for _, part := range []string{street, locality, region, country} {
				if part != "" {
					parts = append(parts, part)
				}
			}
			venue.venueAddress = strings.Join(parts, ", ")
			venue.city = locality
		}

		return venue
	}
	return jsonLDVenue{}
}

// parseEventURL reads the node's URL (url, @id, or offers.url) resolved
// against the page URL.
func parseEventURL(node jsonObject, baseURL string) string {
	candidate := readString(node["url"])
	if candidate == "" {
		candidate = readString(node["@id"])
	}
	if candidate == "" {
		if offers, ok := node["offers"].(map[string]interface{}); ok {
			candidate = readString(offers["url"])
		}
	}
	if candidate == "" {
		return ""
	}
	return resolveAgainst(candidate, baseURL)
}

// parseImageURL reads a schema.org image value (string, array, or ImageObject)
// resolved against the page URL.
func parseImageURL(value interface{}, baseURL string) string {
	candidate := readString(value)
	if candidate == "" {
		if arr, ok := value.([]interface{}); ok && len(arr) > 0 {
			return parseImageURL(arr[0], baseURL)
		}
		if obj, ok := value.(map[string]interface{}); ok {
			candidate = readString(obj["url"])
		}
	}
	if candidate == "" {
		return ""
	}
	return resolveAgainst(candidate, baseURL)
}

func resolveAgainst(candidate, baseURL string) string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return candidate
	}
	ref, err := url.Parse(candidate)
	if err != nil {
		return candidate
	}
	return base.ResolveReference(ref).String()
}
