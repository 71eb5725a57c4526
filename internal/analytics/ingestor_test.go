package analytics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fableforge/fable-engine/internal/store"
	"github.com/fableforge/fable-engine/internal/store/model"
)

type memoryRepo struct {
	mu   sync.Mutex
	logs []*model.GenerationLog
}

var _ store.Repository = (*memoryRepo)(nil)

func (m *memoryRepo) Generations() store.GenerationRepository {
	return m
}

func (m *memoryRepo) Close() error {
	return nil
}

func (m *memoryRepo) Log(_ context.Context, log *model.GenerationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return nil
}

func (m *memoryRepo) Recent(context.Context, string, int) ([]model.GenerationLog, error) {
	return nil, nil
}

func (m *memoryRepo) DailyStats(context.Context, int) ([]model.DailyStats, error) {
	return nil, nil
}

func (m *memoryRepo) ProviderStats(context.Context, int) ([]model.ProviderStats, error) {
	return nil, nil
}

func (m *memoryRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logs)
}

func TestIngestorFlushesOnStop(t *testing.T) {
	repo := &memoryRepo{}
	ing := NewIngestor(zap.NewNop(), repo)
	ing.Start(context.Background())

	for n := 0; n < 3; n++ {
		ing.Log(&model.GenerationLog{ID: "log", Kind: model.KindText})
	}
	ing.Stop()

	require.Eventually(t, func() bool {
		return repo.count() == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestIngestorStopIsIdempotent(t *testing.T) {
	ing := NewIngestor(zap.NewNop(), &memoryRepo{})
	ing.Start(context.Background())

	ing.Stop()
	assert.NotPanics(t, func() {
		ing.Stop()
	})
}

func TestIngestorDiscardsLogsAfterStop(t *testing.T) {
	repo := &memoryRepo{}
	ing := NewIngestor(zap.NewNop(), repo)
	ing.Start(context.Background())
	ing.Stop()

	assert.NotPanics(t, func() {
		ing.Log(&model.GenerationLog{ID: "late", Kind: model.KindImage})
	})
}

// Concurrent loggers racing a shutdown must never hit a closed channel.
func TestIngestorConcurrentLogAndStop(t *testing.T) {
	ing := NewIngestor(zap.NewNop(), &memoryRepo{})
	ing.Start(context.Background())

	var wg sync.WaitGroup
	for n := 0; n < 8; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ing.Log(&model.GenerationLog{ID: "racer", Kind: model.KindText})
			}
		}()
	}

	time.Sleep(time.Millisecond)
	ing.Stop()
	wg.Wait()
}
