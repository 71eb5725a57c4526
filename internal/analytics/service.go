package analytics

import (
	"context"

	"github.com/fableforge/fable-engine/internal/store"
	"github.com/fableforge/fable-engine/internal/store/model"
)

type Service interface {
	GetUsageOverview(ctx context.Context, days int) ([]model.DailyStats, error)
	GetProviderOverview(ctx context.Context, days int) ([]model.ProviderStats, error)
}

type service struct {
	repo store.Repository
}

func NewService(repo store.Repository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) GetUsageOverview(ctx context.Context, days int) ([]model.DailyStats, error) {
	if days <= 0 {
		days = 7 // default to last week
	}
	return s.repo.Generations().DailyStats(ctx, days)
}

func (s *service) GetProviderOverview(ctx context.Context, days int) ([]model.ProviderStats, error) {
	if days <= 0 {
		days = 7
	}
	return s.repo.Generations().ProviderStats(ctx, days)
}
