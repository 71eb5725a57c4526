package story

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fableforge/fable-engine/pkg/api"
)

var (
	chapterHeading      = regexp.MustCompile(`(?mi)^\s*chapter\s+(\d+)\s*[:.\-]\s*(.+?)\s*$`)
	illustrationMarker  = regexp.MustCompile(`(?is)\[ILLUSTRATION:\s*(.*?)\]`)
	collapsedBlankLines = regexp.MustCompile(`\n{3,}`)
)

const (
	wordsPerMinute      = 150
	fallbackChapterSize = 3

	// derivedPromptLimit bounds the content summary folded into an image
	// prompt when the text carries no inline marker.
	derivedPromptLimit = 120
)

// fallbackTitles name the three acts when generated text carries no
// explicit chapter headings.
var fallbackTitles = [fallbackChapterSize]string{"Beginning", "Challenge", "Resolution"}

// ExtractChapters splits generated story text into chapters. Explicit
// "Chapter N: Title" headings win; otherwise text with at least three
// paragraphs is folded into a fixed three-act structure; anything shorter
// becomes a single chapter. Inline [ILLUSTRATION: ...] markers are lifted
// out of the body and kept as the chapter's image prompt; a markerless
// chapter derives its prompt from the title and a content summary.
func ExtractChapters(text string) []api.Chapter {
	if headed := splitByHeadings(text); len(headed) > 0 {
		return headed
	}

	paragraphs := splitParagraphs(text)
	if len(paragraphs) >= fallbackChapterSize {
		return threeActSplit(paragraphs)
	}

	return []api.Chapter{newChapter(1, "The Story", strings.TrimSpace(text))}
}

// newChapter lifts the illustration marker out of the body, falling back to
// a title-plus-summary prompt when the text carries none.
func newChapter(number int, title, body string) api.Chapter {
	cleaned, imagePrompt := liftIllustrationMarker(body)
	if imagePrompt == "" {
		imagePrompt = derivedPrompt(title, cleaned)
	}
	return api.Chapter{
		ID:          fmt.Sprintf("chapter-%d", number),
		Title:       title,
		Content:     cleaned,
		ImagePrompt: imagePrompt,
	}
}

func derivedPrompt(title, body string) string {
	summary := Summarize(body, derivedPromptLimit)
	if summary == "" {
		return title
	}
	return title + ": " + summary
}

func splitByHeadings(text string) []api.Chapter {
	matches := chapterHeading.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	chapters := make([]api.Chapter, 0, len(matches))
	for i, m := range matches {
		title := strings.TrimSpace(text[m[4]:m[5]])

		start := m[1]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		chapters = append(chapters, newChapter(i+1, title, strings.TrimSpace(text[start:end])))
	}
	return chapters
}

// threeActSplit distributes paragraphs over the fixed three-act titles,
// front-loading the remainder so earlier acts never end up shorter.
func threeActSplit(paragraphs []string) []api.Chapter {
	per := len(paragraphs) / fallbackChapterSize
	extra := len(paragraphs) % fallbackChapterSize

	chapters := make([]api.Chapter, 0, fallbackChapterSize)
	cursor := 0
	for i := 0; i < fallbackChapterSize; i++ {
		size := per
		if i < extra {
			size++
		}
		chapters = append(chapters, newChapter(i+1, fallbackTitles[i], strings.Join(paragraphs[cursor:cursor+size], "\n\n")))
		cursor += size
	}
	return chapters
}

func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, block := range strings.Split(text, "\n\n") {
		if trimmed := strings.TrimSpace(block); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}

// liftIllustrationMarker removes the first [ILLUSTRATION: ...] marker from
// the body and returns its contents as the image prompt.
func liftIllustrationMarker(body string) (string, string) {
	m := illustrationMarker.FindStringSubmatch(body)
	if m == nil {
		return body, ""
	}
	cleaned := illustrationMarker.ReplaceAllString(body, "")
	cleaned = strings.TrimSpace(collapsedBlankLines.ReplaceAllString(cleaned, "\n\n"))
	return cleaned, strings.TrimSpace(m[1])
}

// ReadingTimeMinutes estimates reading time from word count, never below
// one minute.
func ReadingTimeMinutes(text string) int {
	words := len(strings.Fields(text))
	minutes := words / wordsPerMinute
	if words%wordsPerMinute != 0 {
		minutes++
	}
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// Summarize returns the opening of the story trimmed to a sentence
// boundary near the limit.
func Summarize(text string, limit int) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= limit {
		return trimmed
	}

	cut := trimmed[:limit]
	if idx := strings.LastIndexAny(cut, ".!?"); idx > limit/2 {
		return strings.TrimSpace(cut[:idx+1])
	}
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "..."
}
