package stability

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
	provider.Register("stability", NewAdapter)
}

// Adapter talks to the Stability AI text-to-image API. Image only. Health
// policy: GET /engines/list (real authenticated call).
type Adapter struct {
	provider.Base
	config config.ProviderConfig
	client *http.Client
}

func NewAdapter(cfg config.ProviderConfig) (provider.Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.stability.ai/v1"
	}
	a := &Adapter{
		Base: provider.Base{
			ID:                cfg.ID,
			ProviderType:      "stability",
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
		a.DefaultImageModel = "stable-diffusion-xl-1024-v1-0"
	}
	a.SetAPIKey(cfg.APIKey)
	return a, nil
}

func (a *Adapter) ValidateKeyFormat(key string) error {
	return provider.ValidatePrefixedKey(key, "sk-", 20)
}

func (a *Adapter) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + a.APIKey(),
		"Accept":        "application/json",
	}
}

type textPrompt struct {
	Text   string  `json:"text"`
	Weight float64 `json:"weight"`
}

type generationRequest struct {
	TextPrompts []textPrompt `json:"text_prompts"`
	CfgScale    float64      `json:"cfg_scale"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Steps       int          `json:"steps"`
	Samples     int          `json:"samples"`
	Seed        int          `json:"seed,omitempty"`
}

type generationResponse struct {
	Artifacts []struct {
		Base64       string `json:"base64"`
		Seed         int64  `json:"seed"`
		FinishReason string `json:"finishReason"`
	} `json:"artifacts"`
}

// GenerateText is unsupported; Stability is image-only.
func (a *Adapter) GenerateText(ctx context.Context, req *api.TextRequest) (*api.TextResult, error) {
	return nil, fmt.Errorf("provider %s does not support text generation", a.Name())
}

// GenerateImage adapts the request to the engine's quirks: dimensions are
// snapped to multiples of 64, the step count is clamped, a zero seed is
// dropped so the backend picks its own.
func (a *Adapter) GenerateImage(ctx context.Context, req *api.ImageRequest) (*api.ImageResult, error) {
	engine := req.Model
	if engine == "" {
		engine = a.DefaultImageModel
	}

	prompts := []textPrompt{{Text: req.Prompt, Weight: 1}}
	if req.NegativePrompt != "" {
		prompts = append(prompts, textPrompt{Text: req.NegativePrompt, Weight: -1})
	}

	body := generationRequest{
		TextPrompts: prompts,
		CfgScale:    7,
		Width:       snapDimension(req.Width),
		Height:      snapDimension(req.Height),
		Steps:       clampSteps(req.Steps),
		Samples:     1,
	}
	if req.Seed > 0 {
		body.Seed = req.Seed
	}

	url := fmt.Sprintf("%s/generation/%s/text-to-image", strings.TrimRight(a.config.BaseURL, "/"), engine)

	var resp generationResponse
	if err := httpclient.SendRequest(ctx, a.client, "POST", url, a.headers(), body, &resp); err != nil {
		return nil, err
	}

	if len(resp.Artifacts) == 0 || resp.Artifacts[0].Base64 == "" {
		return nil, fmt.Errorf("no image returned from %s", a.Name())
	}
	if resp.Artifacts[0].FinishReason == "CONTENT_FILTERED" {
		return nil, fmt.Errorf("image blurred by content filter on %s", a.Name())
	}

	return &api.ImageResult{
		Success:  true,
		ImageURL: "data:image/png;base64," + resp.Artifacts[0].Base64,
		Provider: a.Name(),
		Model:    engine,
	}, nil
}

func snapDimension(v int) int {
	if v <= 0 {
		return 1024
	}
	snapped := (v / 64) * 64
	if snapped < 512 {
		snapped = 512
	}
	if snapped > 1536 {
		snapped = 1536
	}
	return snapped
}

func clampSteps(steps int) int {
	if steps <= 0 {
		return 30
	}
	if steps < 10 {
		return 10
	}
	if steps > 50 {
		return 50
	}
	return steps
}

func (a *Adapter) CheckHealth(ctx context.Context) api.HealthResult {
	start := time.Now()

	url := fmt.Sprintf("%s/engines/list", strings.TrimRight(a.config.BaseURL, "/"))
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
		return a.MarkUnhealthy(elapsed, fmt.Sprintf("engines listing returned status %d", resp.StatusCode))
	}

	return a.MarkHealthy(elapsed, "ok")
}
