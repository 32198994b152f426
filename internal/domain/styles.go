package domain

import "strings"

// Style identifies a design style from the closed catalog.
type Style string

// StyleInfo describes a catalog style.
type StyleInfo struct {
	ID          Style  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// ImpliedClimate is the climate zone whose plant guidance the style
	// already carries, empty when the style is climate neutral.
	ImpliedClimate string `json:"implied_climate,omitempty"`
}

var styleCatalog = []StyleInfo{
	{ID: "modern", Name: "Modern", Description: "clean lines, geometric planting beds, concrete and steel accents, restrained palette"},
	{ID: "japanese-zen", Name: "Japanese Zen", Description: "raked gravel, moss, stone lanterns, maples and pruned pines, calm asymmetry"},
	{ID: "english-cottage", Name: "English Cottage", Description: "abundant mixed borders, roses, foxgloves, informal paths, picket fencing"},
	{ID: "mediterranean", Name: "Mediterranean", Description: "terracotta, olive trees, lavender, gravel terraces, warm stone", ImpliedClimate: "mediterranean"},
	{ID: "desert-xeriscape", Name: "Desert Xeriscape", Description: "drought-tolerant succulents, agaves, decomposed granite, boulders", ImpliedClimate: "arid"},
	{ID: "tropical", Name: "Tropical", Description: "large-leaf foliage, palms, bold flowering plants, layered canopy", ImpliedClimate: "tropical"},
	{ID: "native-prairie", Name: "Native Prairie", Description: "native grasses and wildflowers, pollinator habitat, naturalistic drifts"},
	{ID: "formal-french", Name: "Formal French", Description: "symmetry, clipped hedges, parterres, gravel allées, focal fountains"},
	{ID: "woodland", Name: "Woodland", Description: "shade-loving understory, ferns, mulched paths, dappled light"},
	{ID: "coastal", Name: "Coastal", Description: "salt-tolerant grasses, driftwood, sandy tones, wind-hardy shrubs", ImpliedClimate: "coastal"},
}

// ClimateZones is the fixed list offered to users. Free text is also accepted.
var ClimateZones = []string{
	"Tropical",
	"Arid",
	"Semi-Arid",
	"Mediterranean",
	"Temperate",
	"Continental",
	"Subarctic",
	"Coastal",
	"Humid Subtropical",
}

// Styles returns the closed style catalog in display order.
func Styles() []StyleInfo {
	out := make([]StyleInfo, len(styleCatalog))
	copy(out, styleCatalog)
	return out
}

// LookupStyle returns the catalog entry for id.
func LookupStyle(id Style) (StyleInfo, bool) {
	needle := Style(strings.ToLower(strings.TrimSpace(string(id))))
	for _, s := range styleCatalog {
		if s.ID == needle {
			return s, true
		}
	}
	return StyleInfo{}, false
}

// IsKnownStyle reports whether id is part of the catalog.
func IsKnownStyle(id Style) bool {
	_, ok := LookupStyle(id)
	return ok
}
