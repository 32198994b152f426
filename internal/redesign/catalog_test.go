package redesign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yardcraft/internal/domain"
)

func TestParseDesignCatalog(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		ok       bool
		plants   int
		features int
	}{
		{
			name:     "fenced block",
			text:     "Here is the list:\n```json\n{\"plants\":[{\"name\":\"Lavender\",\"species\":\"Lavandula\"}],\"features\":[{\"name\":\"Gravel path\",\"description\":\"Pea gravel\"}]}\n```\nEnjoy {not json}",
			ok:       true,
			plants:   1,
			features: 1,
		},
		{
			name:   "bare object with prose",
			text:   "Sure! {\"plants\":[{\"name\":\"Agave\",\"species\":\"Agave americana\"},{\"name\":\"Yucca\",\"species\":\"Yucca filamentosa\"}]} hope that helps",
			ok:     true,
			plants: 2,
		},
		{
			name: "no json",
			text: "I could not produce a list this time.",
		},
		{
			name: "malformed",
			text: "{\"plants\": [ {\"name\": }",
		},
		{
			name: "empty",
			text: "",
		},
		{
			name: "closing before opening",
			text: "} nothing here {",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			catalog, ok := ParseDesignCatalog(tc.text)
			require.Equal(t, tc.ok, ok)
			if !tc.ok {
				assert.Nil(t, catalog)
				return
			}
			assert.Len(t, catalog.Plants, tc.plants)
			assert.Len(t, catalog.Features, tc.features)
			assert.NotNil(t, catalog.Features)
			assert.NotNil(t, catalog.Plants)
		})
	}
}

func TestParseDesignCatalogFallsThroughBrokenFence(t *testing.T) {
	text := "```json\nnot valid\n```\n{\"plants\":[],\"features\":[{\"name\":\"Pond\",\"description\":\"Small pond\"}]}"
	catalog, ok := ParseDesignCatalog(text)
	require.True(t, ok)
	assert.Empty(t, catalog.Plants)
	require.Len(t, catalog.Features, 1)
	assert.Equal(t, "Pond", catalog.Features[0].Name)

	text = "```json\nnot valid\n```"
	_, ok = ParseDesignCatalog(text)
	assert.False(t, ok)
}

func TestCatalogFromTextFallsBackToEmpty(t *testing.T) {
	catalog := CatalogFromText("no catalog")
	assert.Equal(t, domain.EmptyCatalog(), catalog)
}
