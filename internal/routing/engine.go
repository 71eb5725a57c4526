package routing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/fableforge/fable-engine/internal/config"
	"github.com/fableforge/fable-engine/internal/health"
	"github.com/fableforge/fable-engine/internal/metrics"
	"github.com/fableforge/fable-engine/internal/provider"
	"github.com/fableforge/fable-engine/internal/registry"
	"github.com/fableforge/fable-engine/pkg/api"
	"go.uber.org/zap"
)

// Engine selects, orders and sequentially tries providers per request.
// Text and image requests carry different contracts: text may fail visibly,
// image must always produce a usable result.
type Engine struct {
	registry *registry.Registry
	metrics  *metrics.Tracker
	health   *health.Monitor
	logger   *zap.Logger

	mu    sync.RWMutex
	cfg   config.RoutingConfig
	tiers map[string]config.Tier
}

func NewEngine(reg *registry.Registry, tracker *metrics.Tracker, monitor *health.Monitor, cfg config.RoutingConfig, tiers map[string]config.Tier, logger *zap.Logger) *Engine {
	if cfg.BackupImageURL == "" {
		cfg.BackupImageURL = config.DefaultBackupImageURL
	}
	if tiers == nil {
		tiers = make(map[string]config.Tier)
	}
	return &Engine{
		registry: reg,
		metrics:  tracker,
		health:   monitor,
		cfg:      cfg,
		tiers:    tiers,
		logger:   logger,
	}
}

// Routing returns a copy of the current routing preferences.
func (e *Engine) Routing() config.RoutingConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// UpdateRouting swaps the routing preferences at runtime.
func (e *Engine) UpdateRouting(cfg config.RoutingConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cfg.BackupImageURL == "" {
		cfg.BackupImageURL = e.cfg.BackupImageURL
	}
	e.cfg = cfg
}

// tierFor resolves a tier name. An unknown tier gets the zero value, whose
// empty allowlist permits every provider.
func (e *Engine) tierFor(name string) config.Tier {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.tiers[name]
}

// admissible filters providers on capability, tier allowlist and recorded
// availability.
func (e *Engine) admissible(cap api.Capability, tier config.Tier) []provider.Provider {
	var out []provider.Provider
	for _, p := range e.registry.ByCapability(cap) {
		if !tier.Allows(p.Name()) {
			continue
		}
		if !p.Status().Available {
			continue
		}
		out = append(out, p)
	}
	return out
}

// GenerateText routes a text request through the tier's providers. It fails
// visibly when no candidate is admissible or every candidate errors.
func (e *Engine) GenerateText(ctx context.Context, tierName string, req *api.TextRequest) (*api.TextResult, error) {
	tier := e.tierFor(tierName)

	candidates := e.admissible(api.CapabilityText, tier)
	if len(candidates) == 0 {
		// One forced re-check before giving up: statuses may be stale.
		e.health.CheckAll(ctx)
		candidates = e.admissible(api.CapabilityText, tier)
	}
	if len(candidates) == 0 {
		return nil, api.ProviderUnavailableError(api.CapabilityText, tierName)
	}

	cfg := e.Routing()

	primary := candidates[0]
	if req.Provider != "" {
		if p := pickByID(candidates, req.Provider); p != nil {
			primary = p
		}
	} else if p := pickByID(candidates, cfg.DefaultTextProvider); p != nil {
		primary = p
	}

	var (
		attempted []string
		tried     = make(map[string]bool)
		lastErr   error
	)

	try := func(p provider.Provider) (*api.TextResult, error) {
		tried[p.Name()] = true
		attempted = append(attempted, p.Name())
		e.metrics.RecordAttempt(p.Name())

		res, err := p.GenerateText(ctx, req)
		if err != nil {
			e.logger.Warn("Text generation failed",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			return nil, err
		}
		if res == nil || res.Content == "" {
			return nil, fmt.Errorf("empty result from %s", p.Name())
		}

		e.metrics.RecordSuccess(p.Name())
		res.AttemptedProviders = attempted
		return res, nil
	}

	if res, err := try(primary); err == nil {
		return res, nil
	} else {
		lastErr = err
	}

	// Walk the configured fallback chain, skipping anything already tried,
	// disallowed or unavailable. The chain is the whole itinerary: an
	// admissible provider outside it is never tried.
	for _, id := range cfg.TextFallbackOrder {
		if tried[id] {
			continue
		}
		p := pickByID(candidates, id)
		if p == nil {
			continue
		}
		if res, err := try(p); err == nil {
			return res, nil
		} else {
			lastErr = err
		}
	}

	return nil, api.ExhaustedFallbackError(api.CapabilityText, attempted, lastErr)
}

// GenerateImage routes an image request. It never fails the caller: when the
// whole chain is exhausted it synthesizes a backup result carrying the
// placeholder URL and the per-provider failure messages.
func (e *Engine) GenerateImage(ctx context.Context, tierName string, req *api.ImageRequest) *api.ImageResult {
	if req.TextOnly {
		return &api.ImageResult{Success: true, ImageURL: "", Provider: "none"}
	}

	tier := e.tierFor(tierName)
	cfg := e.Routing()

	// Image routing always starts from fresh statuses.
	e.health.CheckAll(ctx)

	var (
		attempted []string
		tried     = make(map[string]bool)
		failures  []string
	)

	try := func(p provider.Provider) *api.ImageResult {
		tried[p.Name()] = true
		attempted = append(attempted, p.Name())
		e.metrics.RecordAttempt(p.Name())

		res, err := p.GenerateImage(ctx, req)
		if err != nil {
			e.logger.Warn("Image generation failed",
				zap.String("provider", p.Name()),
				zap.Error(err),
			)
			failures = append(failures, fmt.Sprintf("%s: %v", p.Name(), err))
			return nil
		}
		if res == nil || !res.Success || res.ImageURL == "" {
			failures = append(failures, fmt.Sprintf("%s: invalid result", p.Name()))
			return nil
		}

		e.metrics.RecordSuccess(p.Name())
		res.AttemptedProviders = attempted
		return res
	}

	// lastResort walks every capability-matching, tier-allowed provider not
	// yet tried, ignoring recorded availability.
	lastResort := func() *api.ImageResult {
		for _, p := range e.registry.ByCapability(api.CapabilityImage) {
			if tried[p.Name()] || !tier.Allows(p.Name()) {
				continue
			}
			if res := try(p); res != nil {
				return res
			}
		}
		return nil
	}

	admissible := e.admissible(api.CapabilityImage, tier)

	if len(admissible) == 0 {
		if res := lastResort(); res != nil {
			return res
		}
		return e.backupResult(req, attempted, failures, cfg.BackupImageURL)
	}

	for _, p := range e.imagePriorityOrder(admissible, tier, cfg, req) {
		if tried[p.Name()] {
			continue
		}
		if res := try(p); res != nil {
			return res
		}
	}

	if res := lastResort(); res != nil {
		return res
	}

	return e.backupResult(req, attempted, failures, cfg.BackupImageURL)
}

// imagePriorityOrder builds the attempt order: explicit request override,
// then the pinned provider, then the configured default, then the configured
// fallback chain, then the remaining admissible providers by descending
// historical success rate.
func (e *Engine) imagePriorityOrder(admissible []provider.Provider, tier config.Tier, cfg config.RoutingConfig, req *api.ImageRequest) []provider.Provider {
	var (
		order []provider.Provider
		seen  = make(map[string]bool)
	)

	push := func(p provider.Provider) {
		if p != nil && !seen[p.Name()] {
			seen[p.Name()] = true
			order = append(order, p)
		}
	}

	if req.Provider != "" && tier.Allows(req.Provider) {
		push(pickByID(admissible, req.Provider))
	}
	push(pickByID(admissible, cfg.PinnedImageProvider))
	push(pickByID(admissible, cfg.DefaultImageProvider))
	for _, id := range cfg.ImageFallbackOrder {
		push(pickByID(admissible, id))
	}

	rest := make([]provider.Provider, 0, len(admissible))
	for _, p := range admissible {
		if !seen[p.Name()] {
			rest = append(rest, p)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return e.metrics.Rate(rest[i].Name()) > e.metrics.Rate(rest[j].Name())
	})
	for _, p := range rest {
		push(p)
	}

	return order
}

func (e *Engine) backupResult(req *api.ImageRequest, attempted, failures []string, backupURL string) *api.ImageResult {
	e.logger.Error("All image providers failed, serving backup placeholder",
		zap.Strings("attempted", attempted),
		zap.String("story_id", req.StoryID),
		zap.String("chapter_id", req.ChapterID),
	)

	return &api.ImageResult{
		Success:            true,
		ImageURL:           backupURL,
		Provider:           "backup",
		IsBackup:           true,
		Error:              strings.Join(failures, "; "),
		AttemptedProviders: attempted,
	}
}

func pickByID(candidates []provider.Provider, id string) provider.Provider {
	if id == "" {
		return nil
	}
	for _, p := range candidates {
		if p.Name() == id {
			return p
		}
	}
	return nil
}
