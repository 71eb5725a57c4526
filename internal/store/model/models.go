package model

import "time"

// Generation kinds.
const (
	KindText  = "text"
	KindImage = "image"
)

// GenerationLog captures the outcome of one routed generation request.
type GenerationLog struct {
	ID         string    `db:"id" json:"id"`
	StoryID    string    `db:"story_id" json:"story_id"`
	ChapterID  string    `db:"chapter_id" json:"chapter_id"`
	Kind       string    `db:"kind" json:"kind"`
	ProviderID string    `db:"provider_id" json:"provider_id"`
	Tier       string    `db:"tier" json:"tier"`
	Success    bool      `db:"success" json:"success"`
	IsBackup   bool      `db:"is_backup" json:"is_backup"`
	Error      string    `db:"error" json:"error,omitempty"`
	LatencyMS  int64     `db:"latency_ms" json:"latency_ms"`
	Attempts   int       `db:"attempts" json:"attempts"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// DailyStats aggregates generation outcomes for one day.
type DailyStats struct {
	Date           string  `db:"date" json:"date"`
	TotalRequests  int     `db:"total_requests" json:"total_requests"`
	TotalFailures  int     `db:"total_failures" json:"total_failures"`
	BackupServed   int     `db:"backup_served" json:"backup_served"`
	AverageLatency float64 `db:"avg_latency" json:"avg_latency"`
}

// ProviderStats aggregates outcomes per provider over a window.
type ProviderStats struct {
	ProviderID     string  `db:"provider_id" json:"provider_id"`
	TotalRequests  int     `db:"total_requests" json:"total_requests"`
	TotalFailures  int     `db:"total_failures" json:"total_failures"`
	AverageLatency float64 `db:"avg_latency" json:"avg_latency"`
}
