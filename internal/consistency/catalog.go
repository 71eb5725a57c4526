package consistency

import "strings"

// catalogEntry is a known recurring character with a canonical appearance.
type catalogEntry struct {
	name       string
	appearance string
}

// The known-character catalog. Matching is fuzzy over normalized names so
// "Luna the fox" still resolves to the catalog fox.
var characterCatalog = []catalogEntry{
	{"luna", "a small silver fox with a fluffy tail, bright blue eyes and a red scarf"},
	{"max", "a brave young boy with curly brown hair, freckles and a green jacket"},
	{"mia", "a cheerful girl with long golden hair, a pink dress and a ribbon"},
	{"leo", "an adventurous boy with short black hair, big eyes and a yellow cape"},
	{"oscar", "a wise old owl with gray feathers, round glasses and a purple hat"},
	{"bella", "a gentle white rabbit with long ears, pink nose and a blue bow"},
	{"finn", "a playful green dragon with small wings, golden spots and a friendly smile"},
	{"rosie", "a curious girl with red braids, freckles and brown boots"},
}

// lookupCatalog fuzzy-matches a character name against the catalog: exact
// first, then prefix, then substring either way.
func lookupCatalog(name string) (catalogEntry, bool) {
	normalized := Normalize(name)

	for _, entry := range characterCatalog {
		if normalized == entry.name {
			return entry, true
		}
	}
	for _, entry := range characterCatalog {
		if strings.HasPrefix(normalized, entry.name+" ") || strings.HasPrefix(entry.name, normalized) {
			return entry, true
		}
	}
	for _, entry := range characterCatalog {
		if strings.Contains(normalized, entry.name) || strings.Contains(entry.name, normalized) {
			return entry, true
		}
	}
	return catalogEntry{}, false
}

// seedPalette provides stable colors for characters the catalog does not
// know. Indexing is a documented stable hash (summed rune values modulo the
// palette length), never the runtime's map or string hash.
var seedPalette = []string{
	"red", "blue", "green", "yellow", "orange", "purple", "pink", "turquoise",
}

func paletteIndex(name string) int {
	sum := 0
	for _, r := range Normalize(name) {
		sum += int(r)
	}
	if sum < 0 {
		sum = -sum
	}
	return sum % len(seedPalette)
}

// seededAttributes derives deterministic attributes from a name alone, so an
// uncatalogued character keeps the same colors on every illustration.
func seededAttributes(name string) Attributes {
	primary := seedPalette[paletteIndex(name)]
	secondary := seedPalette[(paletteIndex(name)+3)%len(seedPalette)]
	return Attributes{
		Colors:   []string{primary, secondary},
		Clothing: primary + " outfit",
	}
}
