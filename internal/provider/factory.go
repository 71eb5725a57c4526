package provider

import (
	"fmt"
	"sync"

	"github.com/fableforge/fable-engine/internal/config"
)

// Factory constructs a provider instance from its static configuration.
type Factory func(cfg config.ProviderConfig) (Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register installs a factory for a provider type. Called from adapter init().
func Register(providerType string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := factories[providerType]; exists {
		panic(fmt.Sprintf("provider factory %s already registered", providerType))
	}
	factories[providerType] = f
}

// Get looks up the factory for a provider type.
func Get(providerType string) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()
	f, ok := factories[providerType]
	if !ok {
		return nil, fmt.Errorf("provider factory not found for type: %s", providerType)
	}
	return f, nil
}

// KeyFormatError describes a credential rejected before any network call.
type KeyFormatError struct {
	Reason string
}

func (e *KeyFormatError) Error() string {
	return e.Reason
}

// ValidatePrefixedKey enforces the common prefix + minimum length rule most
// backends use for their credentials.
func ValidatePrefixedKey(key, prefix string, minLen int) error {
	if key == "" {
		return &KeyFormatError{Reason: "api key is empty"}
	}
	if len(key) < minLen {
		return &KeyFormatError{Reason: fmt.Sprintf("api key shorter than %d characters", minLen)}
	}
	if prefix != "" && len(key) >= len(prefix) && key[:len(prefix)] != prefix {
		return &KeyFormatError{Reason: fmt.Sprintf("api key must start with %q", prefix)}
	}
	return nil
}
