package provider

import (
	"context"
	"sync"
	"time"

	"github.com/fableforge/fable-engine/pkg/api"
)

// Provider is the contract every generation backend implements. Adapters are
// registered through the factory and constructed once at startup; their status
// fields are mutated in place by the health monitor for the process lifetime.
type Provider interface {
	Name() string
	Type() string
	DisplayName() string
	Capabilities() api.Capabilities

	Status() api.ProviderStatus
	SetStatus(api.ProviderStatus)

	APIKeyPresent() bool
	SetAPIKey(key string)
	// ValidateKeyFormat rejects obviously malformed keys before any network call.
	ValidateKeyFormat(key string) error

	// CheckHealth issues the cheapest possible live probe for this backend.
	// The probe policy (real call, models listing, or key presence) is fixed
	// per adapter and documented on its implementation.
	CheckHealth(ctx context.Context) api.HealthResult

	GenerateText(ctx context.Context, req *api.TextRequest) (*api.TextResult, error)
	GenerateImage(ctx context.Context, req *api.ImageRequest) (*api.ImageResult, error)

	Models() []string
	SupportsStyles() bool
	DefaultModel(cap api.Capability) string
}

// Base carries the state shared by every adapter: identity, capabilities,
// credential and live status. Adapters embed it and implement the calls.
type Base struct {
	ID           string
	ProviderType string
	Title        string
	Caps         api.Capabilities

	ModelList  []string
	StyleAware bool

	DefaultTextModel  string
	DefaultImageModel string

	mu     sync.RWMutex
	apiKey string
	status api.ProviderStatus
}

func (b *Base) Name() string { return b.ID }
func (b *Base) Type() string { return b.ProviderType }

func (b *Base) DisplayName() string {
	if b.Title != "" {
		return b.Title
	}
	return b.ID
}

func (b *Base) Capabilities() api.Capabilities { return b.Caps }

func (b *Base) Status() api.ProviderStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

func (b *Base) SetStatus(s api.ProviderStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = s
}

func (b *Base) APIKeyPresent() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.apiKey != ""
}

func (b *Base) SetAPIKey(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.apiKey = key
}

func (b *Base) APIKey() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.apiKey
}

func (b *Base) Models() []string     { return b.ModelList }
func (b *Base) SupportsStyles() bool { return b.StyleAware }

func (b *Base) DefaultModel(cap api.Capability) string {
	switch cap {
	case api.CapabilityImage:
		return b.DefaultImageModel
	default:
		return b.DefaultTextModel
	}
}

// MarkHealthy records a successful probe on the provider's own status fields.
func (b *Base) MarkHealthy(responseTimeMS int64, message string) api.HealthResult {
	b.SetStatus(api.ProviderStatus{
		Available:      true,
		LastChecked:    time.Now(),
		ResponseTimeMS: responseTimeMS,
		Message:        message,
	})
	return api.HealthResult{Healthy: true, ResponseTimeMS: responseTimeMS, Message: message}
}

// MarkUnhealthy records a failed probe.
func (b *Base) MarkUnhealthy(responseTimeMS int64, message string) api.HealthResult {
	b.SetStatus(api.ProviderStatus{
		Available:      false,
		LastChecked:    time.Now(),
		ResponseTimeMS: responseTimeMS,
		Message:        message,
	})
	return api.HealthResult{Healthy: false, ResponseTimeMS: responseTimeMS, Message: message}
}
