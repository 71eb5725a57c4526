package replicate

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
	provider.Register("replicate", NewAdapter)
}

// Adapter talks to the Replicate predictions API: submit with Prefer: wait,
// then poll until the prediction settles. Image only. Health policy: key
// presence only, since Replicate has no free probe endpoint and a live
// check would spend quota.
type Adapter struct {
	provider.Base
	config config.ProviderConfig
	client *http.Client
}

func NewAdapter(cfg config.ProviderConfig) (provider.Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.replicate.com/v1"
	}
	a := &Adapter{
		Base: provider.Base{
			ID:                cfg.ID,
			ProviderType:      "replicate",
			Title:             cfg.Name,
			Caps:              api.Capabilities{Image: true},
			ModelList:         cfg.Models,
			StyleAware:        cfg.SupportsStyles,
			DefaultImageModel: cfg.DefaultImageModel,
		},
		config: cfg,
		client: &http.Client{Timeout: 180 * time.Second},
	}
	if a.DefaultImageModel == "" {
		a.DefaultImageModel = "black-forest-labs/flux-schnell"
	}
	a.SetAPIKey(cfg.APIKey)
	return a, nil
}

func (a *Adapter) ValidateKeyFormat(key string) error {
	return provider.ValidatePrefixedKey(key, "r8_", 20)
}

func (a *Adapter) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + a.APIKey(),
		"Prefer":        "wait=55",
	}
}

type predictionRequest struct {
	Input map[string]interface{} `json:"input"`
}

type predictionResponse struct {
	ID     string      `json:"id"`
	Status string      `json:"status"` // starting, processing, succeeded, failed, canceled
	Output interface{} `json:"output"` // string or []string
	Error  interface{} `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

func (a *Adapter) GenerateText(ctx context.Context, req *api.TextRequest) (*api.TextResult, error) {
	return nil, fmt.Errorf("provider %s does not support text generation", a.Name())
}

// GenerateImage adapts the request to the model's input schema: unsupported
// knobs are simply not sent, and zero values are left to the model defaults.
func (a *Adapter) GenerateImage(ctx context.Context, req *api.ImageRequest) (*api.ImageResult, error) {
	model := req.Model
	if model == "" {
		model = a.DefaultImageModel
	}
	parts := strings.Split(model, "/")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid replicate model %q, want owner/name", model)
	}

	input := map[string]interface{}{
		"prompt": req.Prompt,
	}
	if req.NegativePrompt != "" {
		input["negative_prompt"] = req.NegativePrompt
	}
	if req.Width > 0 {
		input["width"] = req.Width
	}
	if req.Height > 0 {
		input["height"] = req.Height
	}
	if req.Steps > 0 {
		input["num_inference_steps"] = req.Steps
	}
	if req.Seed > 0 {
		input["seed"] = req.Seed
	}

	url := fmt.Sprintf("%s/models/%s/%s/predictions", strings.TrimRight(a.config.BaseURL, "/"), parts[0], parts[1])

	var resp predictionResponse
	if err := httpclient.SendRequest(ctx, a.client, "POST", url, a.headers(), predictionRequest{Input: input}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("prediction failed on %s: %v", a.Name(), resp.Error)
	}

	if resp.Status != "succeeded" {
		polled, err := a.poll(ctx, resp.URLs.Get)
		if err != nil {
			return nil, err
		}
		resp = *polled
	}

	imageURL := firstOutputURL(resp.Output)
	if imageURL == "" {
		return nil, fmt.Errorf("no image returned from %s", a.Name())
	}

	return &api.ImageResult{
		Success:  true,
		ImageURL: imageURL,
		Provider: a.Name(),
		Model:    model,
	}, nil
}

func (a *Adapter) poll(ctx context.Context, url string) (*predictionResponse, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			var resp predictionResponse
			headers := map[string]string{"Authorization": "Bearer " + a.APIKey()}
			if err := httpclient.SendRequest(ctx, a.client, "GET", url, headers, nil, &resp); err != nil {
				return nil, fmt.Errorf("polling failed: %w", err)
			}

			switch resp.Status {
			case "succeeded":
				return &resp, nil
			case "failed", "canceled":
				return nil, fmt.Errorf("prediction %s on %s: %v", resp.Status, a.Name(), resp.Error)
			}
			// starting / processing: keep polling
		}
	}
}

func firstOutputURL(output interface{}) string {
	switch out := output.(type) {
	case string:
		return out
	case []interface{}:
		for _, item := range out {
			if s, ok := item.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func (a *Adapter) CheckHealth(ctx context.Context) api.HealthResult {
	if !a.APIKeyPresent() {
		return a.MarkUnhealthy(0, "missing API key")
	}
	return a.MarkHealthy(0, "key present")
}
