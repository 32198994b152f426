package redesign

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"yardcraft/internal/domain"
)

func TestBuildPromptDensityKeywordIsExclusive(t *testing.T) {
	keywords := map[domain.Density]string{
		domain.DensityMinimal:  "MINIMAL",
		domain.DensityBalanced: "BALANCED",
		domain.DensityLush:     "LUSH",
	}
	for density, want := range keywords {
		prompt := BuildPrompt([]domain.Style{"modern"}, false, "Temperate", true, density)
		for _, other := range keywords {
			if other == want {
				assert.Contains(t, prompt, want)
				continue
			}
			assert.NotContains(t, prompt, other, "density %s", density)
		}
	}
}

func TestBuildPromptPolicies(t *testing.T) {
	locked := BuildPrompt([]domain.Style{"woodland"}, false, "", true, domain.DensityBalanced)
	assert.Contains(t, locked, "Structural changes: FORBIDDEN")
	assert.Contains(t, locked, "keep every existing object in place")
	assert.Contains(t, locked, "match the input image dimensions")

	open := BuildPrompt([]domain.Style{"woodland"}, true, "", false, domain.DensityBalanced)
	assert.Contains(t, open, "Structural changes: ALLOWED")
	assert.Contains(t, open, "remove clutter")
	assert.Contains(t, open, "free composition")
}

func TestBuildPromptClimate(t *testing.T) {
	empty := BuildPrompt([]domain.Style{"modern"}, false, "   ", false, domain.DensityLush)
	assert.Contains(t, empty, "contextually appropriate")

	zone := BuildPrompt([]domain.Style{"modern"}, false, "  humid   subtropical ", false, domain.DensityLush)
	assert.Contains(t, zone, "Climate: Humid Subtropical.")
	assert.Contains(t, zone, "thrive in a humid subtropical climate")

	implied := BuildPrompt([]domain.Style{"modern", "tropical"}, false, "tropical", false, domain.DensityLush)
	assert.Contains(t, implied, "The Tropical style already covers this climate")
	assert.NotContains(t, implied, "thrive in a")
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	styles := []domain.Style{"japanese-zen", "coastal"}
	a := BuildPrompt(styles, true, "Coastal", false, domain.DensityMinimal)
	b := BuildPrompt(styles, true, "Coastal", false, domain.DensityMinimal)
	assert.Equal(t, a, b)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(a[:strings.Index(a, catalogContract)+len(catalogContract)]), catalogContract))
	assert.Contains(t, a, "Japanese Zen")
	assert.Contains(t, a, "blended with")
}

func TestBuildValidationRubricMentionsEveryCriterion(t *testing.T) {
	rubric := BuildValidationRubric(domain.RedesignRequest{
		Styles:      []domain.Style{"formal-french"},
		ClimateZone: "Continental",
		Density:     domain.DensityMinimal,
	})
	for _, field := range []string{
		"propertyConsistency", "styleAccuracy", "aspectRatioCompliance",
		"structuralChangeCompliance", "climateRespect", "densityMatch", "authenticity",
	} {
		assert.Contains(t, rubric, field)
	}
	assert.Contains(t, rubric, "MINIMAL")
	assert.Contains(t, rubric, "continental climate")
}

func TestNormalizeClimate(t *testing.T) {
	assert.Equal(t, "", NormalizeClimate(" \t"))
	assert.Equal(t, "Mediterranean", NormalizeClimate("MEDITERRANEAN"))
	assert.Equal(t, "Humid Subtropical", NormalizeClimate("humid subtropical"))
}
