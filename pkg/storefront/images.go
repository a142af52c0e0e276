package storefront

import (
	"encoding/json"
	"strings"
)

// PlaceholderImage is returned when a product carries no usable image.
const PlaceholderImage = "/images/placeholder-product.png"

// NormalizeImages turns the image field of a catalog record into a list of
// image URLs. The field arrives in one of three shapes: a raw URL, a
// JSON-encoded array of URLs, or a JSON-encoded string. The result is never
// empty; when no usable URL is found it contains only PlaceholderImage.
func NormalizeImages(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return []string{PlaceholderImage}
	}

	switch trimmed[0] {
	case '[':
		var urls []string
		if err := json.Unmarshal([]byte(trimmed), &urls); err != nil {
			// Not valid JSON after all; treat the whole value as one URL
			return []string{trimmed}
		}
		out := make([]string, 0, len(urls))
		for _, u := range urls {
			if u = strings.TrimSpace(u); u != "" {
				out = append(out, u)
			}
		}
		if len(out) == 0 {
			return []string{PlaceholderImage}
		}
		return out
	case '"':
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err != nil {
			return []string{trimmed}
		}
		// The encoded string may itself hold an array or another URL
		return NormalizeImages(s)
	default:
		return []string{trimmed}
	}
}

// normalizeImageField handles the wire-level image field, which may be a
// JSON string, a JSON array, or absent.
func normalizeImageField(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{PlaceholderImage}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return NormalizeImages(s)
	}
	return NormalizeImages(string(raw))
}
