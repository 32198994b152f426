package redesign

import (
	"encoding/json"
	"regexp"
	"strings"

	"yardcraft/internal/domain"
)

var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json|JSON)\\s*\\n?(.*?)```")

// ParseDesignCatalog extracts the catalog object from free model text. It
// tries a fenced json block first, then the span from the first '{' to the
// last '}'. ok is false when neither decodes.
func ParseDesignCatalog(text string) (*domain.DesignCatalog, bool) {
	if m := fencedJSONPattern.FindStringSubmatch(text); m != nil {
		if catalog, ok := decodeCatalog(m[1]); ok {
			return catalog, true
		}
	}
	if fragment := extractJSONFragment(text); fragment != "" {
		if catalog, ok := decodeCatalog(fragment); ok {
			return catalog, true
		}
	}
	return nil, false
}

// CatalogFromText is ParseDesignCatalog with the empty catalog as fallback.
func CatalogFromText(text string) domain.DesignCatalog {
	if catalog, ok := ParseDesignCatalog(text); ok {
		return *catalog
	}
	return domain.EmptyCatalog()
}

func decodeCatalog(raw string) (*domain.DesignCatalog, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	var catalog domain.DesignCatalog
	if err := json.Unmarshal([]byte(raw), &catalog); err != nil {
		return nil, false
	}
	normalized := catalog.Normalized()
	return &normalized, true
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}
