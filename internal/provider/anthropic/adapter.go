package anthropic

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
	provider.Register("anthropic", NewAdapter)
}

// Adapter talks to the Anthropic messages API. Text only. Health policy:
// GET /models (real authenticated call).
type Adapter struct {
	provider.Base
	config config.ProviderConfig
	client *http.Client
}

func NewAdapter(cfg config.ProviderConfig) (provider.Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com/v1"
	}
	a := &Adapter{
		Base: provider.Base{
			ID:               cfg.ID,
			ProviderType:     "anthropic",
			Title:            cfg.Name,
			Caps:             api.Capabilities{Text: true},
			ModelList:        cfg.Models,
			StyleAware:       cfg.SupportsStyles,
			DefaultTextModel: cfg.DefaultTextModel,
		},
		config: cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
	if a.DefaultTextModel == "" {
		a.DefaultTextModel = "claude-3-5-haiku-latest"
	}
	a.SetAPIKey(cfg.APIKey)
	return a, nil
}

func (a *Adapter) ValidateKeyFormat(key string) error {
	return provider.ValidatePrefixedKey(key, "sk-ant-", 24)
}

func (a *Adapter) headers() map[string]string {
	version := a.config.Config["version"]
	if version == "" {
		version = "2023-06-01"
	}
	return map[string]string{
		"x-api-key":         a.APIKey(),
		"anthropic-version": version,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	System    string    `json:"system,omitempty"`
	MaxTokens int       `json:"max_tokens"`
}

type response struct {
	ID      string `json:"id"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func (a *Adapter) GenerateText(ctx context.Context, req *api.TextRequest) (*api.TextResult, error) {
	model := req.Model
	if model == "" {
		model = a.DefaultTextModel
	}

	body := request{
		Model:     model,
		System:    req.SystemPrompt,
		MaxTokens: req.MaxTokens,
		Messages:  []message{{Role: "user", Content: req.Prompt}},
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = 4096
	}

	url := fmt.Sprintf("%s/messages", strings.TrimRight(a.config.BaseURL, "/"))

	var resp response
	if err := httpclient.SendRequest(ctx, a.client, "POST", url, a.headers(), body, &resp); err != nil {
		return nil, err
	}

	var sb strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("empty completion from %s", a.Name())
	}

	return &api.TextResult{
		Content:  sb.String(),
		Provider: a.Name(),
		Model:    model,
	}, nil
}

func (a *Adapter) GenerateImage(ctx context.Context, req *api.ImageRequest) (*api.ImageResult, error) {
	return nil, fmt.Errorf("provider %s does not support image generation", a.Name())
}

func (a *Adapter) CheckHealth(ctx context.Context) api.HealthResult {
	start := time.Now()

	url := fmt.Sprintf("%s/models", strings.TrimRight(a.config.BaseURL, "/"))
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return a.MarkUnhealthy(0, err.Error())
	}
	for k, v := range a.headers() {
		req.Header.Set(k, v)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return a.MarkUnhealthy(time.Since(start).Milliseconds(), err.Error())
	}
	defer resp.Body.Close()

	elapsed := time.Since(start).Milliseconds()
	if resp.StatusCode != http.StatusOK {
		return a.MarkUnhealthy(elapsed, fmt.Sprintf("models listing returned status %d", resp.StatusCode))
	}

	return a.MarkHealthy(elapsed, "ok")
}
