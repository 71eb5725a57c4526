package api

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Problem implements RFC 9457
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]interface{} `json:"-"`

	Log error `json:"-"`
}

func (p *Problem) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

func (p *Problem) MarshalJSON() ([]byte, error) {
	type Alias Problem

	data := make(map[string]interface{})

	for k, v := range p.Extensions {
		data[k] = v
	}

	stdJSON, _ := json.Marshal(Alias(*p))
	_ = json.Unmarshal(stdJSON, &data)

	return json.Marshal(data)
}

type ProblemOption func(*Problem)

// NewError creates a generic Problem
func NewError(status int, title, detail string, opts ...ProblemOption) *Problem {
	p := &Problem{
		Type:       "about:blank", // Default as per RFC
		Title:      title,
		Status:     status,
		Detail:     detail,
		Extensions: make(map[string]interface{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// WithExtension adds a custom key-value pair to the response
func WithExtension(key string, value interface{}) ProblemOption {
	return func(p *Problem) {
		p.Extensions[key] = value
	}
}

// WithLog attaches an internal error for server-side logging
func WithLog(err error) ProblemOption {
	return func(p *Problem) {
		p.Log = err
	}
}

// WithType sets the RFC "type" URI
func WithType(uri string) ProblemOption {
	return func(p *Problem) {
		p.Type = uri
	}
}

// ValidationError creates a rich validation error from field-level failures
func ValidationError(validationErrors map[string]string) *Problem {
	return NewError(
		http.StatusBadRequest,
		"Validation Error",
		"One or more fields failed validation",
		WithExtension("errors", validationErrors),
	)
}

// BadRequestError creates a standard error for a bad request
func BadRequestError(detail string, opts ...ProblemOption) *Problem {
	return NewError(http.StatusBadRequest, "Bad Request", detail, opts...)
}

// ProviderUnavailableError means no admissible provider exists for the request,
// even after a forced health re-check.
func ProviderUnavailableError(capability Capability, tier string) *Problem {
	return NewError(
		http.StatusServiceUnavailable,
		"Provider Unavailable",
		fmt.Sprintf("no %s-capable provider is available for tier '%s'", capability, tier),
		WithExtension("capability", capability),
		WithExtension("tier", tier),
	)
}

// ExhaustedFallbackError means every admissible provider was attempted and failed.
func ExhaustedFallbackError(capability Capability, attempted []string, last error) *Problem {
	return NewError(
		http.StatusBadGateway,
		"Exhausted Fallback",
		fmt.Sprintf("all %s providers failed", capability),
		WithExtension("attempted_providers", attempted),
		WithLog(last),
	)
}

// InvalidAPIKeyError rejects a malformed provider credential before any network call.
func InvalidAPIKeyError(providerID, detail string) *Problem {
	return NewError(
		http.StatusBadRequest,
		"Invalid API Key Format",
		detail,
		WithExtension("provider", providerID),
	)
}

// ProviderError wraps a transport/auth/rate-limit failure from one specific backend.
func ProviderError(detail string, err error) *Problem {
	return NewError(http.StatusBadGateway, "Provider Error", detail, WithLog(err))
}

// UnauthorizedError rejects a request with a missing or unknown caller key.
func UnauthorizedError(detail string) *Problem {
	return NewError(http.StatusUnauthorized, "Unauthorized", detail)
}

// ForbiddenError rejects an authenticated caller whose tier does not grant
// the operation.
func ForbiddenError(detail string) *Problem {
	return NewError(http.StatusForbidden, "Forbidden", detail)
}

// RateLimitedError tells the caller to slow down.
func RateLimitedError(detail string) *Problem {
	return NewError(http.StatusTooManyRequests, "Too Many Requests", detail)
}

// InternalError is the catch-all for unexpected failures. The internal detail
// goes to the log, never the wire.
func InternalError(detail string, internal string) *Problem {
	return NewError(
		http.StatusInternalServerError,
		"Internal Server Error",
		detail,
		WithLog(fmt.Errorf("%s", internal)),
	)
}

// NotFoundError is returned for unknown resources (providers, jobs).
func NotFoundError(detail string) *Problem {
	return NewError(http.StatusNotFound, "Not Found", detail)
}
