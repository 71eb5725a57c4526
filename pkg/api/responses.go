package api

// TextResult is the outcome of one routed text generation.
type TextResult struct {
	Content            string   `json:"content"`
	Provider           string   `json:"provider"`
	Model              string   `json:"model,omitempty"`
	AttemptedProviders []string `json:"attempted_providers,omitempty"`
}

// ImageResult is the outcome of one routed image generation. The routing engine
// guarantees Success=true on everything it hands back to callers; when every
// provider failed the result carries the backup placeholder and IsBackup=true.
type ImageResult struct {
	Success            bool     `json:"success"`
	ImageURL           string   `json:"image_url"`
	Provider           string   `json:"provider"`
	Model              string   `json:"model,omitempty"`
	IsBackup           bool     `json:"is_backup,omitempty"`
	Error              string   `json:"error,omitempty"`
	AttemptedProviders []string `json:"attempted_providers,omitempty"`
}

// Chapter is one structured section of a generated story.
type Chapter struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	ImagePrompt string `json:"image_prompt,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// StoryResponse is the facade's answer to a story-text request.
type StoryResponse struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Content            string    `json:"content"`
	Summary            string    `json:"summary"`
	ReadingTimeMinutes int       `json:"reading_time_minutes"`
	Chapters           []Chapter `json:"chapters"`
	Provider           string    `json:"provider"`
}

// IllustrationJob is the immediate acknowledgement (and later the progress view)
// of a detached generate-all-illustrations run.
type IllustrationJob struct {
	StoryID       string    `json:"story_id"`
	Status        string    `json:"status"` // processing | complete
	TotalChapters int       `json:"total_chapters"`
	Completed     int       `json:"completed"`
	Chapters      []Chapter `json:"chapters,omitempty"`
}
