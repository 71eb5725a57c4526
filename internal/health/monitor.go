package health

import (
	"context"
	"fmt"
	"sync"

	"github.com/fableforge/fable-engine/internal/provider"
	"github.com/fableforge/fable-engine/internal/registry"
	"github.com/fableforge/fable-engine/pkg/api"
	"go.uber.org/zap"
)

// Monitor probes providers and records the outcome on their status fields.
type Monitor struct {
	registry *registry.Registry
	logger   *zap.Logger
}

func NewMonitor(reg *registry.Registry, logger *zap.Logger) *Monitor {
	return &Monitor{
		registry: reg,
		logger:   logger,
	}
}

// Check probes a single provider. A panicking adapter is contained and the
// provider is marked unhealthy; a probe must never take down a sweep.
func (m *Monitor) Check(ctx context.Context, p provider.Provider) (result api.HealthResult) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("health check panicked: %v", r)
			m.logger.Error("Provider health check panicked",
				zap.String("provider", p.Name()),
				zap.Any("panic", r),
			)
			result = api.HealthResult{Healthy: false, Message: msg}
			p.SetStatus(api.ProviderStatus{Available: false, Message: msg})
		}
	}()

	result = p.CheckHealth(ctx)

	if result.Healthy {
		m.logger.Debug("Provider healthy",
			zap.String("provider", p.Name()),
			zap.Int64("response_time_ms", result.ResponseTimeMS),
		)
	} else {
		m.logger.Warn("Provider unhealthy",
			zap.String("provider", p.Name()),
			zap.String("message", result.Message),
		)
	}

	return result
}

// CheckAll probes every registered provider concurrently and waits for the
// whole sweep. Each provider owns disjoint status fields, so the fan-out has
// no shared mutable state beyond the result slices.
func (m *Monitor) CheckAll(ctx context.Context) map[string]api.HealthResult {
	providers := m.registry.List()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[string]api.HealthResult, len(providers))
	)

	for _, p := range providers {
		wg.Add(1)
		go func(p provider.Provider) {
			defer wg.Done()
			res := m.Check(ctx, p)
			mu.Lock()
			results[p.Name()] = res
			mu.Unlock()
		}(p)
	}

	wg.Wait()

	var healthy, unhealthy []string
	for id, res := range results {
		if res.Healthy {
			healthy = append(healthy, id)
		} else {
			unhealthy = append(unhealthy, id)
		}
	}

	m.logger.Info("Health sweep complete",
		zap.Strings("healthy", healthy),
		zap.Strings("unhealthy", unhealthy),
	)

	return results
}
