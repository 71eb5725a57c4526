package api

import "time"

// Capability is one declared ability of a generation backend.
type Capability string

const (
	CapabilityText  Capability = "text"
	CapabilityImage Capability = "image"
	CapabilityAudio Capability = "audio"
)

// Capabilities describes what a provider can do. Declared statically per adapter.
type Capabilities struct {
	Text  bool `json:"text"`
	Image bool `json:"image"`
	Audio bool `json:"audio"`
}

func (c Capabilities) Has(cap Capability) bool {
	switch cap {
	case CapabilityText:
		return c.Text
	case CapabilityImage:
		return c.Image
	case CapabilityAudio:
		return c.Audio
	}
	return false
}

// ProviderStatus is the live, mutable state of a provider. Each provider owns its
// own status; the health monitor is the only writer during a sweep.
type ProviderStatus struct {
	Available      bool      `json:"available"`
	LastChecked    time.Time `json:"last_checked"`
	ResponseTimeMS int64     `json:"response_time_ms"`
	Message        string    `json:"message,omitempty"`
}

// HealthResult is the outcome of a single health probe.
type HealthResult struct {
	Healthy        bool   `json:"healthy"`
	ResponseTimeMS int64  `json:"response_time_ms"`
	Message        string `json:"message,omitempty"`
}

// ProviderState is the coarse state reported to the admin surface.
type ProviderState string

const (
	ProviderOnline       ProviderState = "online"
	ProviderOffline      ProviderState = "offline"
	ProviderUnconfigured ProviderState = "unconfigured"
	ProviderErrored      ProviderState = "error"
)

// ProviderStatusView is one row of the admin provider listing.
type ProviderStatusView struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	State          ProviderState `json:"status"`
	Capabilities   Capabilities  `json:"capabilities"`
	Models         []string      `json:"models"`
	SupportsStyles bool          `json:"supports_styles"`
	SuccessRate    string        `json:"success_rate"`
	ResponseTimeMS int64         `json:"response_time_ms"`
	LastChecked    time.Time     `json:"last_checked"`
	Message        string        `json:"message,omitempty"`
}
