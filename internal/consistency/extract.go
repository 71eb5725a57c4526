package consistency

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Attributes are the visual traits inferred from free text.
type Attributes struct {
	Colors                 []string `json:"colors"`
	Clothing               string   `json:"clothing"`
	DistinguishingFeatures []string `json:"distinguishing_features"`
}

// Merge folds newer attributes into a, never losing information: colors are
// replaced only when the new extraction found any, clothing is kept when the
// new extraction is empty, and features are unioned.
func (a *Attributes) Merge(newer Attributes) {
	if len(newer.Colors) > 0 {
		a.Colors = newer.Colors
	}
	if newer.Clothing != "" {
		a.Clothing = newer.Clothing
	}
	a.DistinguishingFeatures = unionStrings(a.DistinguishingFeatures, newer.DistinguishingFeatures)
}

func unionStrings(old, extra []string) []string {
	seen := make(map[string]bool, len(old))
	out := make([]string, 0, len(old)+len(extra))
	for _, s := range old {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range extra {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Fixed vocabularies. Matching is whole-word over normalized text.
var colorVocabulary = []string{
	"red", "blue", "green", "yellow", "orange", "purple", "pink", "brown",
	"black", "white", "gray", "grey", "golden", "silver", "turquoise",
	"violet", "crimson", "emerald",
}

var clothingVocabulary = []string{
	"hat", "cap", "crown", "scarf", "dress", "cape", "coat", "jacket",
	"boots", "shoes", "sweater", "shirt", "overalls", "bow", "ribbon",
	"vest", "tunic", "apron",
}

var featureVocabulary = []string{
	"freckles", "curly hair", "long hair", "short hair", "braids",
	"big eyes", "pointy ears", "fluffy tail", "long tail", "whiskers",
	"stripes", "spots", "wings", "glasses", "round glasses", "missing tooth",
}

var creatureVocabulary = []string{
	"dragon", "fox", "rabbit", "bear", "owl", "cat", "dog", "mouse",
	"unicorn", "squirrel", "hedgehog", "turtle", "frog", "deer", "wolf",
}

var (
	// "golden hair", "hair of gold" style compounds.
	hairColorPattern   = regexp.MustCompile(`\b([a-z]+)\s+hair\b`)
	hairOfColorPattern = regexp.MustCompile(`\bhair\s+of\s+([a-z]+)\b`)

	diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Normalize lowercases text and strips diacritics so vocabulary matching is
// stable across accented input.
func Normalize(text string) string {
	lowered := strings.ToLower(text)
	stripped, _, err := transform.String(diacriticStripper, lowered)
	if err != nil {
		return lowered
	}
	return stripped
}

func containsWord(text, term string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], term)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(term)
		beforeOK := start == 0 || !isWordChar(rune(text[start-1]))
		afterOK := end == len(text) || !isWordChar(rune(text[end]))
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isColor(term string) bool {
	for _, c := range colorVocabulary {
		if c == term {
			return true
		}
	}
	return false
}

// ExtractAttributes scans free text against the fixed vocabularies and the
// compound hair-color patterns.
func ExtractAttributes(text string) Attributes {
	normalized := Normalize(text)

	var attrs Attributes

	for _, color := range colorVocabulary {
		if containsWord(normalized, color) {
			attrs.Colors = append(attrs.Colors, color)
		}
	}

	var clothing []string
	for _, item := range clothingVocabulary {
		if containsWord(normalized, item) {
			clothing = append(clothing, item)
		}
	}
	attrs.Clothing = strings.Join(clothing, ", ")

	for _, feature := range featureVocabulary {
		if containsWord(normalized, feature) {
			attrs.DistinguishingFeatures = append(attrs.DistinguishingFeatures, feature)
		}
	}

	for _, m := range hairColorPattern.FindAllStringSubmatch(normalized, -1) {
		if isColor(m[1]) {
			attrs.DistinguishingFeatures = unionStrings(attrs.DistinguishingFeatures, []string{m[1] + " hair"})
		}
	}
	for _, m := range hairOfColorPattern.FindAllStringSubmatch(normalized, -1) {
		if isColor(m[1]) {
			attrs.DistinguishingFeatures = unionStrings(attrs.DistinguishingFeatures, []string{m[1] + " hair"})
		}
	}

	for _, creature := range creatureVocabulary {
		if containsWord(normalized, creature) {
			attrs.DistinguishingFeatures = unionStrings(attrs.DistinguishingFeatures, []string{creature})
		}
	}

	return attrs
}
