package prompt

import (
	"fmt"
	"strings"

	"github.com/fableforge/fable-engine/internal/consistency"
)

// Params is the raw material for one enhanced illustration prompt.
type Params struct {
	Text     string
	Style    string
	Mood     string
	AgeGroup string

	// CharacterDescriptions are already resolved through the consistency
	// cache by the caller.
	CharacterDescriptions []string
}

var objectVocabulary = []string{
	"tree", "forest", "castle", "river", "mountain", "boat", "house",
	"bridge", "cave", "star", "moon", "sun", "flower", "garden", "sea",
	"beach", "ship", "tower", "meadow", "village", "island", "lake",
}

var actionVocabulary = []string{
	"running", "jumping", "flying", "swimming", "climbing", "dancing",
	"singing", "laughing", "exploring", "searching", "hiding", "sailing",
	"building", "reading", "playing",
}

var emotionVocabulary = []string{
	"happy", "sad", "excited", "scared", "curious", "brave", "surprised",
	"proud", "worried",
}

// elements are the scene ingredients scanned out of raw text.
type elements struct {
	Objects  []string
	Actions  []string
	Emotions []string
	Names    []string
}

func extractElements(text string) elements {
	normalized := consistency.Normalize(text)

	var el elements
	for _, o := range objectVocabulary {
		if containsWord(normalized, o) {
			el.Objects = append(el.Objects, o)
		}
	}
	for _, a := range actionVocabulary {
		if containsWord(normalized, a) {
			el.Actions = append(el.Actions, a)
		}
	}
	for _, e := range emotionVocabulary {
		if containsWord(normalized, e) {
			el.Emotions = append(el.Emotions, e)
		}
	}
	el.Names = detectProperNouns(text)
	return el
}

func containsWord(text, term string) bool {
	for _, token := range strings.FieldsFunc(text, func(r rune) bool {
		return !isLetter(r)
	}) {
		if token == term {
			return true
		}
	}
	return false
}

func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'
}

// CharacterNames finds likely character names in free text.
func CharacterNames(text string) []string {
	return detectProperNouns(text)
}

// detectProperNouns finds likely character names: a capitalized token that is
// not sentence-initial, or a capitalized token repeated more than once.
func detectProperNouns(text string) []string {
	type occurrence struct {
		count        int
		midSentence  bool
		originalForm string
	}

	occurrences := make(map[string]*occurrence)
	var order []string

	for _, sentence := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		words := strings.Fields(sentence)
		for i, word := range words {
			trimmed := strings.Trim(word, ",;:'\"()")
			if len(trimmed) < 2 || !isUpper(rune(trimmed[0])) {
				continue
			}
			if !isTitleCase(trimmed) {
				continue
			}
			key := strings.ToLower(trimmed)
			occ, ok := occurrences[key]
			if !ok {
				occ = &occurrence{originalForm: trimmed}
				occurrences[key] = occ
				order = append(order, key)
			}
			occ.count++
			if i > 0 {
				occ.midSentence = true
			}
		}
	}

	var names []string
	for _, key := range order {
		occ := occurrences[key]
		if occ.midSentence || occ.count > 1 {
			names = append(names, occ.originalForm)
		}
	}
	return names
}

func isUpper(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

// isTitleCase rejects ALL-CAPS tokens, which are usually emphasis, not names.
func isTitleCase(word string) bool {
	if len(word) < 2 {
		return false
	}
	for _, r := range word[1:] {
		if isUpper(r) {
			return false
		}
	}
	return true
}

// DetectMood scores text against the fixed keyword sets and picks the
// highest-scoring mood. Zero matches or any tie resolve to "happy".
func DetectMood(text string) string {
	normalized := consistency.Normalize(text)

	scores := make(map[string]int, len(moodKeywords))
	for mood, keywords := range moodKeywords {
		for _, kw := range keywords {
			scores[mood] += countWord(normalized, kw)
		}
	}

	best, bestScore, tied := "happy", 0, false
	for mood, score := range scores {
		switch {
		case score > bestScore:
			best, bestScore, tied = mood, score, false
		case score == bestScore && score > 0 && mood != best:
			tied = true
		}
	}

	if bestScore == 0 || tied {
		return "happy"
	}
	return best
}

func countWord(text, term string) int {
	count := 0
	for _, token := range strings.FieldsFunc(text, func(r rune) bool {
		return !isLetter(r)
	}) {
		if token == term {
			count++
		}
	}
	return count
}

// Enhance composes a backend-ready prompt and its negative prompt from raw
// scene text plus style, mood and age parameters. The negative prompt is
// always the fixed artifact blocklist.
func Enhance(p Params) (string, string) {
	mood := p.Mood
	if mood == "" {
		mood = DetectMood(p.Text)
	}
	moodSpec, ok := moodTable[mood]
	if !ok {
		moodSpec = moodTable["happy"]
	}

	age, ok := ageTable[p.AgeGroup]
	if !ok {
		age = ageTable[defaultAgeGroup]
	}

	style, ok := styleTable[strings.ToLower(p.Style)]
	if !ok {
		style = styleTable[defaultStyle]
	}

	el := extractElements(p.Text)

	var sb strings.Builder
	sb.WriteString("Children's book illustration: ")
	sb.WriteString(sceneStatement(p.Text, el))

	if clause := characterClause(p.CharacterDescriptions, el.Names); clause != "" {
		sb.WriteString(" Featuring ")
		sb.WriteString(clause)
		sb.WriteString(".")
	}

	fmt.Fprintf(&sb, " %s, inspired by %s.", style.Description, style.Inspirations)
	fmt.Fprintf(&sb, " Atmosphere: %s, %s palette, %s, %s.",
		moodSpec.Atmosphere, moodSpec.Palette, moodSpec.Lighting, moodSpec.Expressions)
	fmt.Fprintf(&sb, " %s, %s, %s, %s, %s.",
		age.Complexity, age.Outlines, age.Colors, age.Proportions, age.Backgrounds)

	return sb.String(), negativePrompt
}

// sceneStatement condenses the raw text to its first sentence plus the
// scanned scene ingredients.
func sceneStatement(text string, el elements) string {
	first := text
	for _, sep := range []string{". ", "! ", "? "} {
		if idx := strings.Index(first, sep); idx > 0 {
			first = first[:idx+1]
		}
	}
	first = strings.TrimSpace(first)
	if len(first) > 220 {
		first = first[:220]
	}
	if first != "" && !strings.HasSuffix(first, ".") && !strings.HasSuffix(first, "!") && !strings.HasSuffix(first, "?") {
		first += "."
	}

	var extras []string
	if len(el.Objects) > 0 {
		extras = append(extras, "Scenery with "+strings.Join(limit(el.Objects, 4), ", ")+".")
	}
	if len(el.Actions) > 0 {
		extras = append(extras, "Characters "+strings.Join(limit(el.Actions, 3), ", ")+".")
	}
	if len(el.Emotions) > 0 {
		extras = append(extras, "Feeling "+strings.Join(limit(el.Emotions, 3), ", ")+".")
	}

	if len(extras) == 0 {
		return first
	}
	return first + " " + strings.Join(extras, " ")
}

func characterClause(descriptions []string, names []string) string {
	if len(descriptions) > 0 {
		return strings.Join(descriptions, "; ")
	}
	if len(names) > 0 {
		return strings.Join(names, " and ")
	}
	return ""
}

func limit(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
