package registry

import (
	"fmt"
	"sync"

	"github.com/fableforge/fable-engine/internal/provider"
	"github.com/fableforge/fable-engine/pkg/api"
)

// Registry owns the process-lifetime provider instances. It is constructed
// once at startup and injected into everything that routes; there is no
// package-level singleton.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]provider.Provider
	order     []string // registration order, for stable listings
}

func New() *Registry {
	return &Registry{
		providers: make(map[string]provider.Provider),
	}
}

func (r *Registry) Register(p provider.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[p.Name()]; !exists {
		r.order = append(r.order, p.Name())
	}
	r.providers[p.Name()] = p
}

func (r *Registry) Get(id string) (provider.Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	return p, ok
}

// List returns all providers in registration order.
func (r *Registry) List() []provider.Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]provider.Provider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.providers[id])
	}
	return out
}

// ByCapability returns providers declaring the capability, in registration order.
func (r *Registry) ByCapability(cap api.Capability) []provider.Provider {
	var out []provider.Provider
	for _, p := range r.List() {
		if p.Capabilities().Has(cap) {
			out = append(out, p)
		}
	}
	return out
}

// SetAPIKey validates the key format and hot-swaps the credential. Validation
// is purely syntactic; the caller is expected to trigger an async health check
// rather than block on the network here.
func (r *Registry) SetAPIKey(id, key string) (provider.Provider, error) {
	p, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", id)
	}

	if err := p.ValidateKeyFormat(key); err != nil {
		return nil, api.InvalidAPIKeyError(id, err.Error())
	}

	p.SetAPIKey(key)
	return p, nil
}

// StatusViews builds the admin listing. successRate resolves the recorded
// success rate for a provider id (typically metrics.Tracker.SuccessRate).
func (r *Registry) StatusViews(successRate func(id string) string) []api.ProviderStatusView {
	views := make([]api.ProviderStatusView, 0)
	for _, p := range r.List() {
		status := p.Status()

		state := api.ProviderOffline
		switch {
		case !p.APIKeyPresent():
			state = api.ProviderUnconfigured
		case status.Available:
			state = api.ProviderOnline
		case status.Message != "":
			state = api.ProviderErrored
		}

		views = append(views, api.ProviderStatusView{
			ID:             p.Name(),
			Name:           p.DisplayName(),
			State:          state,
			Capabilities:   p.Capabilities(),
			Models:         p.Models(),
			SupportsStyles: p.SupportsStyles(),
			SuccessRate:    successRate(p.Name()),
			ResponseTimeMS: status.ResponseTimeMS,
			LastChecked:    status.LastChecked,
			Message:        status.Message,
		})
	}
	return views
}
