package consistency

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogSeeding(t *testing.T) {
	c := NewCache()

	ch := c.Character("story-1", "Luna")
	assert.Contains(t, ch.Appearance, "silver fox")
	assert.Contains(t, ch.Attributes.Colors, "silver")

	// Fuzzy: a qualified name still hits the catalog entry.
	ch = c.Character("story-1", "Luna the Fox")
	assert.Contains(t, ch.Appearance, "silver fox")
}

func TestDeterministicSeedingForUnknownNames(t *testing.T) {
	c := NewCache()

	first := c.Character("story-1", "Zephyrax")
	second := c.Character("story-2", "Zephyrax")

	require.Len(t, first.Attributes.Colors, 2)
	assert.Equal(t, first.Attributes.Colors, second.Attributes.Colors)
	assert.Equal(t, first.Attributes.Clothing, second.Attributes.Clothing)
}

func TestStoriesAreIsolated(t *testing.T) {
	c := NewCache()

	c.RecordIllustration("story-1", "chapter-1", []string{"Zephyrax"}, "http://img/1.png", "wearing a crown")

	other := c.Character("story-2", "Zephyrax")
	assert.Empty(t, other.PreviousImages)
	assert.NotContains(t, other.Attributes.Clothing, "crown")
}

func TestPreviousImagesFIFO(t *testing.T) {
	c := NewCache()

	for i := 1; i <= 4; i++ {
		c.RecordIllustration("s", "chapter-1", []string{"Max"},
			fmt.Sprintf("http://img/%d.png", i), "")
	}

	ch := c.Character("s", "Max")
	assert.Equal(t, []string{
		"http://img/2.png",
		"http://img/3.png",
		"http://img/4.png",
	}, ch.PreviousImages)
}

func TestChapterAppearanceUpsert(t *testing.T) {
	c := NewCache()

	c.RecordIllustration("s", "chapter-1", []string{"Mia"}, "http://img/a.png", "first take")
	c.RecordIllustration("s", "chapter-1", []string{"Mia"}, "http://img/b.png", "second take")
	c.RecordIllustration("s", "chapter-2", []string{"Mia"}, "http://img/c.png", "later")

	ch := c.Character("s", "Mia")
	require.Len(t, ch.ChapterAppearances, 2)
	assert.Equal(t, "http://img/b.png", ch.ChapterAppearances[0].ImageURL)
	assert.Equal(t, "second take", ch.ChapterAppearances[0].Description)
	assert.Equal(t, "chapter-2", ch.ChapterAppearances[1].ChapterID)
}

func TestRecordMergesMonotonically(t *testing.T) {
	c := NewCache()

	c.RecordIllustration("s", "chapter-1", []string{"Finn"}, "http://img/1.png",
		"a green dragon wearing a scarf")
	c.RecordIllustration("s", "chapter-2", []string{"Finn"}, "http://img/2.png",
		"flying over the valley")

	ch := c.Character("s", "Finn")
	// Second description extracted no colors or clothing; earlier ones survive.
	assert.Contains(t, ch.Attributes.Colors, "green")
	assert.Equal(t, "scarf", ch.Attributes.Clothing)
	assert.Contains(t, ch.Attributes.DistinguishingFeatures, "dragon")
}

func TestDescribeRendersPromptText(t *testing.T) {
	c := NewCache()

	desc := c.Describe("s", "Luna")
	assert.Contains(t, desc, "Luna (")
	assert.Contains(t, desc, "colors:")
	assert.Contains(t, desc, "wearing")
}

func TestCaseAndAccentInsensitiveLookup(t *testing.T) {
	c := NewCache()

	c.RecordIllustration("s", "chapter-1", []string{"ROSIE"}, "http://img/1.png", "red braids")

	ch := c.Character("s", "rosie")
	assert.Equal(t, []string{"http://img/1.png"}, ch.PreviousImages)
}

func TestEmptyStoryOrNamesIsNoop(t *testing.T) {
	c := NewCache()
	c.RecordIllustration("", "chapter-1", []string{"Max"}, "http://img/1.png", "x")
	c.RecordIllustration("s", "chapter-1", nil, "http://img/1.png", "x")

	ch := c.Character("s", "Max")
	assert.Empty(t, ch.PreviousImages)
}
