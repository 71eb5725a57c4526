package openai

import (
	"context"
	"encoding/json"
	"errors"
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
	provider.Register("openai", NewAdapter)
}

// Adapter talks to the OpenAI API: chat completions for text, image
// generations for illustrations. Health policy: GET /models (a real,
// cheap, authenticated call).
type Adapter struct {
	provider.Base
	config config.ProviderConfig
	client *http.Client
}

func NewAdapter(cfg config.ProviderConfig) (provider.Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	a := &Adapter{
		Base: provider.Base{
			ID:                cfg.ID,
			ProviderType:      "openai",
			Title:             cfg.Name,
			Caps:              api.Capabilities{Text: true, Image: true},
			ModelList:         cfg.Models,
			StyleAware:        cfg.SupportsStyles,
			DefaultTextModel:  cfg.DefaultTextModel,
			DefaultImageModel: cfg.DefaultImageModel,
		},
		config: cfg,
		client: &http.Client{Timeout: 120 * time.Second},
	}
	if a.DefaultTextModel == "" {
		a.DefaultTextModel = "gpt-4o-mini"
	}
	if a.DefaultImageModel == "" {
		a.DefaultImageModel = "dall-e-3"
	}
	a.SetAPIKey(cfg.APIKey)
	return a, nil
}

func (a *Adapter) ValidateKeyFormat(key string) error {
	return provider.ValidatePrefixedKey(key, "sk-", 20)
}

// upstreamErrorResponse mirrors the standard OpenAI error shape
type upstreamErrorResponse struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

func (a *Adapter) handleUpstreamError(err error) error {
	var upstreamErr *httpclient.UpstreamError
	if !errors.As(err, &upstreamErr) {
		return err
	}

	var apiErr upstreamErrorResponse
	if jsonErr := json.Unmarshal(upstreamErr.Body, &apiErr); jsonErr != nil {
		return api.NewError(
			upstreamErr.StatusCode,
			"Upstream Error",
			string(upstreamErr.Body),
			api.WithLog(err),
		)
	}

	return api.NewError(
		upstreamErr.StatusCode,
		"Upstream Provider Error",
		apiErr.Error.Message,
		api.WithExtension("upstream_code", apiErr.Error.Code),
		api.WithExtension("upstream_type", apiErr.Error.Type),
		api.WithLog(err),
	)
}

func (a *Adapter) headers() map[string]string {
	h := map[string]string{
		"Authorization": "Bearer " + a.APIKey(),
	}
	if org, ok := a.config.Config["organization"]; ok {
		h["OpenAI-Organization"] = org
	}
	return h
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (a *Adapter) GenerateText(ctx context.Context, req *api.TextRequest) (*api.TextResult, error) {
	model := req.Model
	if model == "" {
		model = a.DefaultTextModel
	}

	body := chatRequest{
		Model:       model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.SystemPrompt != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.Prompt})

	url := fmt.Sprintf("%s/chat/completions", strings.TrimRight(a.config.BaseURL, "/"))

	var resp chatResponse
	if err := httpclient.SendRequest(ctx, a.client, "POST", url, a.headers(), body, &resp); err != nil {
		return nil, a.handleUpstreamError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion from %s", a.Name())
	}

	return &api.TextResult{
		Content:  resp.Choices[0].Message.Content,
		Provider: a.Name(),
		Model:    model,
	}, nil
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json,omitempty"`
	} `json:"data"`
}

// GenerateImage adapts the request to the images API quirks: negative prompts,
// seeds and step counts are not supported and get dropped; the size is snapped
// to the nearest value the model accepts.
func (a *Adapter) GenerateImage(ctx context.Context, req *api.ImageRequest) (*api.ImageResult, error) {
	model := req.Model
	if model == "" {
		model = a.DefaultImageModel
	}

	body := imageRequest{
		Model:  model,
		Prompt: req.Prompt,
		N:      1,
		Size:   snapSize(model, req.Width, req.Height),
	}

	url := fmt.Sprintf("%s/images/generations", strings.TrimRight(a.config.BaseURL, "/"))

	var resp imageResponse
	if err := httpclient.SendRequest(ctx, a.client, "POST", url, a.headers(), body, &resp); err != nil {
		return nil, a.handleUpstreamError(err)
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, fmt.Errorf("no image returned from %s", a.Name())
	}

	return &api.ImageResult{
		Success:  true,
		ImageURL: resp.Data[0].URL,
		Provider: a.Name(),
		Model:    model,
	}, nil
}

func snapSize(model string, width, height int) string {
	if strings.HasPrefix(model, "dall-e-3") {
		switch {
		case width > height:
			return "1792x1024"
		case height > width:
			return "1024x1792"
		default:
			return "1024x1024"
		}
	}
	longest := width
	if height > longest {
		longest = height
	}
	switch {
	case longest > 0 && longest <= 256:
		return "256x256"
	case longest > 0 && longest <= 512:
		return "512x512"
	default:
		return "1024x1024"
	}
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
