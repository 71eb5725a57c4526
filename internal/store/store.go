package store

import (
	"context"

	"github.com/fableforge/fable-engine/internal/store/model"
)

type contextKey string

// ContextKeyTier carries the resolved caller tier through request handling.
const ContextKeyTier contextKey = "tier"

// Repository is the main contract for the data layer.
type Repository interface {
	Generations() GenerationRepository

	Close() error
}

type GenerationRepository interface {
	// Log stores a completed generation outcome.
	Log(ctx context.Context, log *model.GenerationLog) error
	// Recent returns the last N logs for a story.
	Recent(ctx context.Context, storyID string, limit int) ([]model.GenerationLog, error)
	// DailyStats returns aggregated outcomes grouped by day.
	DailyStats(ctx context.Context, days int) ([]model.DailyStats, error)
	// ProviderStats returns aggregated outcomes per provider over a window.
	ProviderStats(ctx context.Context, days int) ([]model.ProviderStats, error)
}
