package api

// TextRequest is a single text-generation call routed to one provider.
type TextRequest struct {
	Prompt       string `json:"prompt" binding:"required"`
	SystemPrompt string `json:"system_prompt,omitempty"`
	Model        string `json:"model,omitempty"`    // upstream model override
	Provider     string `json:"provider,omitempty"` // explicit provider override
	MaxTokens    int    `json:"max_tokens,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
}

// ImageRequest is a single illustration call. Providers receive an adapted copy;
// fields a backend does not support are dropped by its adapter.
type ImageRequest struct {
	Prompt         string `json:"prompt" binding:"required"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Model          string `json:"model,omitempty"`
	Provider       string `json:"provider,omitempty"` // explicit provider override
	Width          int    `json:"width,omitempty"`
	Height         int    `json:"height,omitempty"`
	Steps          int    `json:"steps,omitempty"`
	Seed           int    `json:"seed,omitempty"`

	// TextOnly short-circuits routing entirely: the caller wants a text-only
	// story and no provider should be touched.
	TextOnly bool `json:"text_only,omitempty"`

	StoryID   string `json:"story_id,omitempty"`
	ChapterID string `json:"chapter_id,omitempty"`
}

// StoryRequest asks the facade for a full story.
type StoryRequest struct {
	Characters []string `json:"characters" binding:"required,min=1,dive,required"`
	Theme      string   `json:"theme" binding:"required"`
	AgeGroup   string   `json:"age_group" binding:"required"`
	ChildName  string   `json:"child_name,omitempty"`
	TextOnly   bool     `json:"text_only,omitempty"`
}

// ChapterImageRequest asks the facade for one chapter illustration.
type ChapterImageRequest struct {
	ChapterTitle   string   `json:"chapter_title" binding:"required"`
	ChapterContent string   `json:"chapter_content" binding:"required"`
	CharacterNames []string `json:"character_names,omitempty"`
	Style          string   `json:"style,omitempty"`
	Mood           string   `json:"mood,omitempty"`
	AgeGroup       string   `json:"age_group,omitempty"`
	StoryID        string   `json:"story_id,omitempty"`
	ChapterID      string   `json:"chapter_id,omitempty"`
	ForceProvider  string   `json:"force_provider,omitempty"`
}

// IllustrateStoryRequest triggers the detached generate-all run.
type IllustrateStoryRequest struct {
	Chapters []Chapter `json:"chapters" binding:"required,min=1"`
	Style    string    `json:"style,omitempty"`
	Mood     string    `json:"mood,omitempty"`
	AgeGroup string    `json:"age_group,omitempty"`
}

// SetAPIKeyRequest hot-swaps a provider credential.
type SetAPIKeyRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}
