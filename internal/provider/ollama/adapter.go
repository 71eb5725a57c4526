package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fableforge/fable-engine/internal/config"
	"github.com/fableforge/fable-engine/internal/httpclient"
	"github.com/fableforge/fable-engine/internal/provider"
	"github.com/fableforge/fable-engine/pkg/api"
)

func init() {
	provider.Register("ollama", NewAdapter)
}

// Adapter talks to a local Ollama instance. Text only, no credential.
// Health policy: GET /api/tags (real call, free).
type Adapter struct {
	provider.Base
	config config.ProviderConfig
	client *http.Client
}

func NewAdapter(cfg config.ProviderConfig) (provider.Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	a := &Adapter{
		Base: provider.Base{
			ID:               cfg.ID,
			ProviderType:     "ollama",
			Title:            cfg.Name,
			Caps:             api.Capabilities{Text: true},
			ModelList:        cfg.Models,
			StyleAware:       cfg.SupportsStyles,
			DefaultTextModel: cfg.DefaultTextModel,
		},
		config: cfg,
		client: &http.Client{Timeout: 300 * time.Second},
	}
	if a.DefaultTextModel == "" {
		a.DefaultTextModel = "llama3.2"
	}
	return a, nil
}

// ValidateKeyFormat accepts anything; a local instance needs no credential.
func (a *Adapter) ValidateKeyFormat(key string) error {
	return nil
}

// APIKeyPresent reports true: no credential is required for a local backend.
func (a *Adapter) APIKeyPresent() bool {
	return true
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (a *Adapter) GenerateText(ctx context.Context, req *api.TextRequest) (*api.TextResult, error) {
	model := req.Model
	if model == "" {
		model = a.DefaultTextModel
	}

	body := generateRequest{
		Model:  model,
		Prompt: req.Prompt,
		System: req.SystemPrompt,
		Stream: false,
	}

	url := fmt.Sprintf("%s/api/generate", strings.TrimRight(a.config.BaseURL, "/"))

	var resp generateResponse
	if err := httpclient.SendRequest(ctx, a.client, "POST", url, nil, body, &resp); err != nil {
		return nil, err
	}

	if resp.Response == "" {
		return nil, fmt.Errorf("empty completion from %s", a.Name())
	}

	return &api.TextResult{
		Content:  resp.Response,
		Provider: a.Name(),
		Model:    model,
	}, nil
}

func (a *Adapter) GenerateImage(ctx context.Context, req *api.ImageRequest) (*api.ImageResult, error) {
	return nil, fmt.Errorf("provider %s does not support image generation", a.Name())
}

func (a *Adapter) CheckHealth(ctx context.Context) api.HealthResult {
	start := time.Now()

	url := fmt.Sprintf("%s/api/tags", strings.TrimRight(a.config.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return a.MarkUnhealthy(0, err.Error())
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return a.MarkUnhealthy(time.Since(start).Milliseconds(), err.Error())
	}
	defer resp.Body.Close()

	elapsed := time.Since(start).Milliseconds()
	if resp.StatusCode != http.StatusOK {
		return a.MarkUnhealthy(elapsed, fmt.Sprintf("tags listing returned status %d", resp.StatusCode))
	}

	return a.MarkHealthy(elapsed, "ok")
}
