package consistency

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractAttributes(t *testing.T) {
	attrs := ExtractAttributes("a small silver fox with a fluffy tail, bright blue eyes and a red scarf")

	assert.ElementsMatch(t, []string{"blue", "red", "silver"}, attrs.Colors)
	assert.Equal(t, "scarf", attrs.Clothing)
	assert.Contains(t, attrs.DistinguishingFeatures, "fluffy tail")
	assert.Contains(t, attrs.DistinguishingFeatures, "fox")
}

func TestExtractHairColorCompound(t *testing.T) {
	attrs := ExtractAttributes("a girl with golden hair and a green dress")
	assert.Contains(t, attrs.DistinguishingFeatures, "golden hair")

	attrs = ExtractAttributes("hair of silver shining in the moonlight")
	assert.Contains(t, attrs.DistinguishingFeatures, "silver hair")
}

func TestExtractIgnoresNonColorHair(t *testing.T) {
	attrs := ExtractAttributes("she had messy hair")
	assert.NotContains(t, attrs.DistinguishingFeatures, "messy hair")
}

func TestNormalizeStripsDiacritics(t *testing.T) {
	assert.Equal(t, "renee", Normalize("Renée"))
	assert.Equal(t, "bjorn", Normalize("BJÖRN"))
}

func TestExtractMatchesWholeWordsOnly(t *testing.T) {
	// "redder" must not match the color "red"
	attrs := ExtractAttributes("the sky grew redder")
	assert.Empty(t, attrs.Colors)
}

func TestMergeKeepsKnownAttributes(t *testing.T) {
	a := Attributes{
		Colors:                 []string{"red", "blue"},
		Clothing:               "scarf",
		DistinguishingFeatures: []string{"fox"},
	}

	// Empty extraction must not erase anything.
	a.Merge(Attributes{})
	assert.Equal(t, []string{"red", "blue"}, a.Colors)
	assert.Equal(t, "scarf", a.Clothing)
	assert.Equal(t, []string{"fox"}, a.DistinguishingFeatures)

	// Non-empty colors replace, features union, clothing replaces.
	a.Merge(Attributes{
		Colors:                 []string{"green"},
		Clothing:               "cape",
		DistinguishingFeatures: []string{"fox", "wings"},
	})
	assert.Equal(t, []string{"green"}, a.Colors)
	assert.Equal(t, "cape", a.Clothing)
	assert.Equal(t, []string{"fox", "wings"}, a.DistinguishingFeatures)
}
