package consistency

import (
	"strings"
	"sync"
)

// maxPreviousImages caps the FIFO of prior illustration URLs per character.
const maxPreviousImages = 3

// ChapterAppearance records one illustrated appearance of a character.
type ChapterAppearance struct {
	ChapterID   string `json:"chapter_id"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
}

// Character is the visual-consistency record for one character in one story.
type Character struct {
	Name               string              `json:"name"`
	Appearance         string              `json:"appearance"`
	Attributes         Attributes          `json:"attributes"`
	PreviousImages     []string            `json:"previous_images"`
	ChapterAppearances []ChapterAppearance `json:"chapter_appearances"`
}

type storyState struct {
	mu         sync.Mutex
	characters map[string]*Character
}

// Cache threads visual attributes across sequential chapter illustrations
// within one story. State is process-lifetime only; nothing survives a
// restart. Records are created lazily on first reference and merges are
// monotonic: known attributes are never dropped.
type Cache struct {
	mu      sync.Mutex
	stories map[string]*storyState
}

func NewCache() *Cache {
	return &Cache{
		stories: make(map[string]*storyState),
	}
}

func (c *Cache) story(storyID string) *storyState {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.stories[storyID]
	if !ok {
		s = &storyState{characters: make(map[string]*Character)}
		c.stories[storyID] = s
	}
	return s
}

// seed builds the initial record: catalog appearance when the name matches a
// known character, deterministic name-derived colors otherwise.
func seed(name string) *Character {
	if entry, ok := lookupCatalog(name); ok {
		return &Character{
			Name:       name,
			Appearance: entry.appearance,
			Attributes: ExtractAttributes(entry.appearance),
		}
	}
	return &Character{
		Name:       name,
		Attributes: seededAttributes(name),
	}
}

// character returns the live record, creating it on first reference.
// Callers must hold s.mu.
func (s *storyState) character(name string) *Character {
	key := Normalize(name)
	ch, ok := s.characters[key]
	if !ok {
		ch = seed(name)
		s.characters[key] = ch
	}
	return ch
}

// Character returns a copy of the record, seeding it if absent.
func (c *Cache) Character(storyID, name string) Character {
	s := c.story(storyID)
	s.mu.Lock()
	defer s.mu.Unlock()

	return snapshot(s.character(name))
}

// Describe renders the record as prompt-ready text.
func (c *Cache) Describe(storyID, name string) string {
	ch := c.Character(storyID, name)

	var parts []string
	if ch.Appearance != "" {
		parts = append(parts, ch.Appearance)
	}
	if len(ch.Attributes.Colors) > 0 {
		parts = append(parts, "colors: "+strings.Join(ch.Attributes.Colors, ", "))
	}
	if ch.Attributes.Clothing != "" {
		parts = append(parts, "wearing "+ch.Attributes.Clothing)
	}
	if len(ch.Attributes.DistinguishingFeatures) > 0 {
		parts = append(parts, strings.Join(ch.Attributes.DistinguishingFeatures, ", "))
	}

	if len(parts) == 0 {
		return ch.Name
	}
	return ch.Name + " (" + strings.Join(parts, "; ") + ")"
}

// RecordIllustration updates every named character after a produced image:
// the URL joins the FIFO, the chapter appearance is upserted by chapter id,
// and attributes re-extracted from the description merge monotonically.
// The per-story lock serializes racing chapter-generation calls.
func (c *Cache) RecordIllustration(storyID, chapterID string, names []string, imageURL, description string) {
	if storyID == "" || len(names) == 0 {
		return
	}

	s := c.story(storyID)
	s.mu.Lock()
	defer s.mu.Unlock()

	extracted := ExtractAttributes(description)

	for _, name := range names {
		ch := s.character(name)

		if imageURL != "" {
			ch.PreviousImages = append(ch.PreviousImages, imageURL)
			if len(ch.PreviousImages) > maxPreviousImages {
				ch.PreviousImages = ch.PreviousImages[len(ch.PreviousImages)-maxPreviousImages:]
			}
		}

		upserted := false
		for i := range ch.ChapterAppearances {
			if ch.ChapterAppearances[i].ChapterID == chapterID {
				ch.ChapterAppearances[i].ImageURL = imageURL
				ch.ChapterAppearances[i].Description = description
				upserted = true
				break
			}
		}
		if !upserted {
			ch.ChapterAppearances = append(ch.ChapterAppearances, ChapterAppearance{
				ChapterID:   chapterID,
				ImageURL:    imageURL,
				Description: description,
			})
		}

		if description != "" {
			ch.Attributes.Merge(extracted)
		}
	}
}

func snapshot(ch *Character) Character {
	out := *ch
	out.PreviousImages = append([]string(nil), ch.PreviousImages...)
	out.ChapterAppearances = append([]ChapterAppearance(nil), ch.ChapterAppearances...)
	out.Attributes.Colors = append([]string(nil), ch.Attributes.Colors...)
	out.Attributes.DistinguishingFeatures = append([]string(nil), ch.Attributes.DistinguishingFeatures...)
	return out
}
