package analytics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fableforge/fable-engine/internal/store"
	"github.com/fableforge/fable-engine/internal/store/model"
)

// Ingestor handles the asynchronous persistence of generation logs.
type Ingestor interface {
	Log(log *model.GenerationLog)
	Start(ctx context.Context)
	Stop()
}

type ingestor struct {
	logger    *zap.Logger
	repo      store.Repository
	logChan   chan *model.GenerationLog
	batchSize int
	flushTime time.Duration

	// mu fences Log against Stop so no send races the channel close.
	mu     sync.RWMutex
	closed bool
}

func NewIngestor(logger *zap.Logger, repo store.Repository) Ingestor {
	return &ingestor{
		logger:    logger,
		repo:      repo,
		logChan:   make(chan *model.GenerationLog, 10000),
		batchSize: 50,
		flushTime: 5 * time.Second,
	}
}

func (i *ingestor) Log(log *model.GenerationLog) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return
	}

	select {
	case i.logChan <- log:
	default:
		i.logger.Warn("Analytics buffer full, dropping log", zap.String("generation_id", log.ID))
	}
}

func (i *ingestor) Start(ctx context.Context) {
	go i.worker(ctx)
}

// Stop closes the intake so the worker drains what is buffered and exits.
// Safe to call more than once; logs arriving afterwards are discarded.
func (i *ingestor) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return
	}
	i.closed = true
	close(i.logChan)
}

func (i *ingestor) worker(ctx context.Context) {
	batch := make([]*model.GenerationLog, 0, i.batchSize)
	ticker := time.NewTicker(i.flushTime)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		for _, log := range batch {
			if err := i.repo.Generations().Log(context.Background(), log); err != nil {
				i.logger.Error("Failed to persist generation log", zap.String("id", log.ID), zap.Error(err))
			}
		}
		batch = batch[:0]
	}

	for {
		select {
		case log, ok := <-i.logChan:
			if !ok {
				flush()
				return
			}
			batch = append(batch, log)
			if len(batch) >= i.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-ctx.Done():
			flush()
			return
		}
	}
}
