package story

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const headedStory = `Title: The Lantern

Chapter 1: The Glow
Luna found a glowing lantern by the old oak.
[ILLUSTRATION: Luna beside a glowing lantern under an oak tree]

Chapter 2: The Path
She followed its light along the winding path.

Chapter 3: Home Again
The lantern led her safely home.
[ILLUSTRATION: a cozy cottage window glowing at dusk]`

func TestExtractChaptersFromHeadings(t *testing.T) {
	chapters := ExtractChapters(headedStory)
	require.Len(t, chapters, 3)

	assert.Equal(t, "chapter-1", chapters[0].ID)
	assert.Equal(t, "The Glow", chapters[0].Title)
	assert.Contains(t, chapters[0].Content, "glowing lantern")
	assert.Equal(t, "Luna beside a glowing lantern under an oak tree", chapters[0].ImagePrompt)
	assert.NotContains(t, chapters[0].Content, "[ILLUSTRATION")

	// No marker: the prompt is derived from the heading and a content summary.
	assert.Equal(t, "The Path", chapters[1].Title)
	assert.Contains(t, chapters[1].ImagePrompt, "The Path")
	assert.Contains(t, chapters[1].ImagePrompt, "followed its light")

	assert.Equal(t, "Home Again", chapters[2].Title)
	assert.Equal(t, "a cozy cottage window glowing at dusk", chapters[2].ImagePrompt)
}

func TestEveryChapterGetsAnImagePrompt(t *testing.T) {
	markerless := "Chapter 1: The Glow\nLuna found a glowing lantern by the old oak.\n\n" +
		"Chapter 2: The Path\nShe followed its light along the winding path."

	for _, ch := range ExtractChapters(markerless) {
		assert.NotEmpty(t, ch.ImagePrompt)
		assert.Contains(t, ch.ImagePrompt, ch.Title)
	}
}

func TestExtractChaptersHeadingVariants(t *testing.T) {
	text := "chapter 1 - One\nbody one\n\nCHAPTER 2. Two\nbody two"
	chapters := ExtractChapters(text)
	require.Len(t, chapters, 2)
	assert.Equal(t, "One", chapters[0].Title)
	assert.Equal(t, "Two", chapters[1].Title)
}

func TestExtractChaptersThreeActFallback(t *testing.T) {
	paragraphs := []string{
		"Once upon a time there was a fox.",
		"The fox found a map.",
		"The map led to a mountain.",
		"At the top was a garden.",
	}
	text := strings.Join(paragraphs, "\n\n")

	chapters := ExtractChapters(text)
	require.Len(t, chapters, 3)
	assert.Equal(t, "Beginning", chapters[0].Title)
	assert.Equal(t, "Challenge", chapters[1].Title)
	assert.Equal(t, "Resolution", chapters[2].Title)

	for _, ch := range chapters {
		assert.Contains(t, ch.ImagePrompt, ch.Title)
	}

	// Four paragraphs over three acts: the first act gets the extra one.
	assert.Contains(t, chapters[0].Content, "Once upon a time")
	assert.Contains(t, chapters[0].Content, "found a map")
	assert.Contains(t, chapters[1].Content, "mountain")
	assert.Contains(t, chapters[2].Content, "garden")
}

func TestExtractChaptersSingleFallback(t *testing.T) {
	chapters := ExtractChapters("A short tale.\n\nThe end.")
	require.Len(t, chapters, 1)
	assert.Equal(t, "The Story", chapters[0].Title)
	assert.Equal(t, "chapter-1", chapters[0].ID)
	assert.Contains(t, chapters[0].ImagePrompt, "The Story")
	assert.Contains(t, chapters[0].ImagePrompt, "A short tale")
}

func TestReadingTimeMinutes(t *testing.T) {
	assert.Equal(t, 1, ReadingTimeMinutes("short"))
	assert.Equal(t, 1, ReadingTimeMinutes(strings.Repeat("word ", 150)))
	assert.Equal(t, 2, ReadingTimeMinutes(strings.Repeat("word ", 151)))
	assert.Equal(t, 4, ReadingTimeMinutes(strings.Repeat("word ", 600)))
}

func TestSummarizeTrimsAtSentence(t *testing.T) {
	text := "The fox ran far. " + strings.Repeat("It kept running and running. ", 30)
	summary := Summarize(text, 100)
	assert.LessOrEqual(t, len(summary), 101)
	assert.True(t, strings.HasSuffix(summary, "."))

	short := "A tiny tale."
	assert.Equal(t, short, Summarize(short, 100))
}
