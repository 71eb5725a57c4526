package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fableforge/fable-engine/internal/config"
	"github.com/fableforge/fable-engine/internal/health"
	"github.com/fableforge/fable-engine/internal/metrics"
	"github.com/fableforge/fable-engine/internal/provider"
	"github.com/fableforge/fable-engine/internal/registry"
	"github.com/fableforge/fable-engine/pkg/api"
)

type fakeProvider struct {
	provider.Base

	healthy   bool
	textFn    func(req *api.TextRequest) (*api.TextResult, error)
	imageFn   func(req *api.ImageRequest) (*api.ImageResult, error)
	textCalls int
	imgCalls  int
}

func newFake(id string, caps api.Capabilities, healthy bool) *fakeProvider {
	f := &fakeProvider{healthy: healthy}
	f.ID = id
	f.ProviderType = "fake"
	f.Caps = caps
	f.SetAPIKey("test-key")
	return f
}

func (f *fakeProvider) ValidateKeyFormat(string) error { return nil }

func (f *fakeProvider) CheckHealth(context.Context) api.HealthResult {
	if f.healthy {
		return f.MarkHealthy(1, "")
	}
	return f.MarkUnhealthy(1, "probe failed")
}

func (f *fakeProvider) GenerateText(_ context.Context, req *api.TextRequest) (*api.TextResult, error) {
	f.textCalls++
	if f.textFn != nil {
		return f.textFn(req)
	}
	return &api.TextResult{Content: "text from " + f.ID, Provider: f.ID}, nil
}

func (f *fakeProvider) GenerateImage(_ context.Context, req *api.ImageRequest) (*api.ImageResult, error) {
	f.imgCalls++
	if f.imageFn != nil {
		return f.imageFn(req)
	}
	return &api.ImageResult{Success: true, ImageURL: "http://img/" + f.ID + ".png", Provider: f.ID}, nil
}

func textCaps() api.Capabilities  { return api.Capabilities{Text: true} }
func imageCaps() api.Capabilities { return api.Capabilities{Image: true} }

func newTestEngine(t *testing.T, cfg config.RoutingConfig, tiers map[string]config.Tier, providers ...provider.Provider) (*Engine, *metrics.Tracker) {
	t.Helper()

	reg := registry.New()
	for _, p := range providers {
		reg.Register(p)
	}
	tracker := metrics.NewTracker()
	monitor := health.NewMonitor(reg, zap.NewNop())
	return NewEngine(reg, tracker, monitor, cfg, tiers, zap.NewNop()), tracker
}

func TestGenerateTextPrefersDefaultProvider(t *testing.T) {
	a := newFake("a", textCaps(), true)
	b := newFake("b", textCaps(), true)
	a.CheckHealth(context.Background())
	b.CheckHealth(context.Background())

	engine, _ := newTestEngine(t, config.RoutingConfig{DefaultTextProvider: "b"}, nil, a, b)

	res, err := engine.GenerateText(context.Background(), "", &api.TextRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "b", res.Provider)
	assert.Zero(t, a.textCalls)
}

func TestGenerateTextWalksFallbackChain(t *testing.T) {
	a := newFake("a", textCaps(), true)
	b := newFake("b", textCaps(), true)
	c := newFake("c", textCaps(), true)
	for _, p := range []*fakeProvider{a, b, c} {
		p.CheckHealth(context.Background())
	}
	a.textFn = func(*api.TextRequest) (*api.TextResult, error) { return nil, errors.New("boom") }
	b.textFn = func(*api.TextRequest) (*api.TextResult, error) { return nil, errors.New("boom") }

	engine, _ := newTestEngine(t, config.RoutingConfig{
		DefaultTextProvider: "a",
		TextFallbackOrder:   []string{"b", "c"},
	}, nil, a, b, c)

	res, err := engine.GenerateText(context.Background(), "", &api.TextRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "c", res.Provider)
	assert.Equal(t, []string{"a", "b", "c"}, res.AttemptedProviders)
	assert.Equal(t, 1, a.textCalls)
	assert.Equal(t, 1, b.textCalls)
}

func TestGenerateTextExhaustedReturnsProblem(t *testing.T) {
	a := newFake("a", textCaps(), true)
	a.CheckHealth(context.Background())
	a.textFn = func(*api.TextRequest) (*api.TextResult, error) { return nil, errors.New("down") }

	engine, _ := newTestEngine(t, config.RoutingConfig{}, nil, a)

	_, err := engine.GenerateText(context.Background(), "", &api.TextRequest{Prompt: "hi"})
	require.Error(t, err)

	var problem *api.Problem
	require.ErrorAs(t, err, &problem)
	assert.Equal(t, 502, problem.Status)
}

func TestGenerateTextNoAdmissibleProviderIs503(t *testing.T) {
	a := newFake("a", textCaps(), false)

	engine, _ := newTestEngine(t, config.RoutingConfig{}, nil, a)

	_, err := engine.GenerateText(context.Background(), "", &api.TextRequest{Prompt: "hi"})
	require.Error(t, err)

	var problem *api.Problem
	require.ErrorAs(t, err, &problem)
	assert.Equal(t, 503, problem.Status)
}

func TestGenerateTextTierRestriction(t *testing.T) {
	a := newFake("a", textCaps(), true)
	b := newFake("b", textCaps(), true)
	a.CheckHealth(context.Background())
	b.CheckHealth(context.Background())

	tiers := map[string]config.Tier{
		"free": {AllowedProviders: []string{"b"}},
	}
	engine, _ := newTestEngine(t, config.RoutingConfig{DefaultTextProvider: "a"}, tiers, a, b)

	res, err := engine.GenerateText(context.Background(), "free", &api.TextRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "b", res.Provider)
	assert.Zero(t, a.textCalls)
}

func TestGenerateTextEmptyContentCountsAsFailure(t *testing.T) {
	a := newFake("a", textCaps(), true)
	b := newFake("b", textCaps(), true)
	a.CheckHealth(context.Background())
	b.CheckHealth(context.Background())
	a.textFn = func(*api.TextRequest) (*api.TextResult, error) { return &api.TextResult{Provider: "a"}, nil }

	engine, tracker := newTestEngine(t, config.RoutingConfig{
		DefaultTextProvider: "a",
		TextFallbackOrder:   []string{"b"},
	}, nil, a, b)

	res, err := engine.GenerateText(context.Background(), "", &api.TextRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "b", res.Provider)

	success, total := tracker.Counts("a")
	assert.Equal(t, int64(0), success)
	assert.Equal(t, int64(1), total)
}

func TestGenerateTextSkipsProvidersOutsideFallbackChain(t *testing.T) {
	a := newFake("a", textCaps(), true)
	b := newFake("b", textCaps(), true)
	c := newFake("c", textCaps(), true)
	for _, p := range []*fakeProvider{a, b, c} {
		p.CheckHealth(context.Background())
	}
	a.textFn = func(*api.TextRequest) (*api.TextResult, error) { return nil, errors.New("boom") }
	b.textFn = func(*api.TextRequest) (*api.TextResult, error) { return nil, errors.New("boom") }

	// c is healthy and admissible but not in the chain, so the request fails
	// without ever reaching it.
	engine, _ := newTestEngine(t, config.RoutingConfig{
		DefaultTextProvider: "a",
		TextFallbackOrder:   []string{"b"},
	}, nil, a, b, c)

	_, err := engine.GenerateText(context.Background(), "", &api.TextRequest{Prompt: "hi"})
	require.Error(t, err)

	var problem *api.Problem
	require.ErrorAs(t, err, &problem)
	assert.Equal(t, 502, problem.Status)
	assert.Zero(t, c.textCalls)
}

func TestGenerateImageTextOnlyShortCircuit(t *testing.T) {
	a := newFake("a", imageCaps(), true)

	engine, tracker := newTestEngine(t, config.RoutingConfig{}, nil, a)

	res := engine.GenerateImage(context.Background(), "", &api.ImageRequest{Prompt: "x", TextOnly: true})
	assert.True(t, res.Success)
	assert.Empty(t, res.ImageURL)
	assert.Equal(t, "none", res.Provider)
	assert.Zero(t, a.imgCalls)

	_, total := tracker.Counts("a")
	assert.Zero(t, total)
}

func TestGenerateImageNeverFails(t *testing.T) {
	a := newFake("a", imageCaps(), true)
	b := newFake("b", imageCaps(), true)
	a.imageFn = func(*api.ImageRequest) (*api.ImageResult, error) { return nil, errors.New("a down") }
	b.imageFn = func(*api.ImageRequest) (*api.ImageResult, error) { return nil, errors.New("b down") }

	engine, _ := newTestEngine(t, config.RoutingConfig{BackupImageURL: "/backup.png"}, nil, a, b)

	res := engine.GenerateImage(context.Background(), "", &api.ImageRequest{Prompt: "x"})
	require.NotNil(t, res)
	assert.True(t, res.Success)
	assert.True(t, res.IsBackup)
	assert.Equal(t, "/backup.png", res.ImageURL)
	assert.Equal(t, "backup", res.Provider)
	assert.Contains(t, res.Error, "a down")
	assert.Contains(t, res.Error, "b down")
	assert.ElementsMatch(t, []string{"a", "b"}, res.AttemptedProviders)
}

func TestGenerateImageNoDuplicateAttempts(t *testing.T) {
	a := newFake("a", imageCaps(), true)
	a.imageFn = func(*api.ImageRequest) (*api.ImageResult, error) { return nil, errors.New("down") }

	engine, _ := newTestEngine(t, config.RoutingConfig{
		DefaultImageProvider: "a",
		PinnedImageProvider:  "a",
		ImageFallbackOrder:   []string{"a"},
	}, nil, a)

	res := engine.GenerateImage(context.Background(), "", &api.ImageRequest{Prompt: "x", Provider: "a"})
	assert.True(t, res.IsBackup)
	assert.Equal(t, 1, a.imgCalls)
}

func TestGenerateImageRequestOverrideWins(t *testing.T) {
	a := newFake("a", imageCaps(), true)
	b := newFake("b", imageCaps(), true)

	engine, _ := newTestEngine(t, config.RoutingConfig{DefaultImageProvider: "a"}, nil, a, b)

	res := engine.GenerateImage(context.Background(), "", &api.ImageRequest{Prompt: "x", Provider: "b"})
	assert.Equal(t, "b", res.Provider)
	assert.Zero(t, a.imgCalls)
}

func TestGenerateImagePinnedBeatsDefault(t *testing.T) {
	a := newFake("a", imageCaps(), true)
	b := newFake("b", imageCaps(), true)

	engine, _ := newTestEngine(t, config.RoutingConfig{
		DefaultImageProvider: "a",
		PinnedImageProvider:  "b",
	}, nil, a, b)

	res := engine.GenerateImage(context.Background(), "", &api.ImageRequest{Prompt: "x"})
	assert.Equal(t, "b", res.Provider)
}

func TestGenerateImageOrdersRestBySuccessRate(t *testing.T) {
	a := newFake("a", imageCaps(), true)
	b := newFake("b", imageCaps(), true)

	engine, tracker := newTestEngine(t, config.RoutingConfig{}, nil, a, b)

	// b has a better record than a.
	tracker.RecordAttempt("a")
	tracker.RecordAttempt("b")
	tracker.RecordSuccess("b")

	res := engine.GenerateImage(context.Background(), "", &api.ImageRequest{Prompt: "x"})
	assert.Equal(t, "b", res.Provider)
}

func TestGenerateImageConfiguredChainBeatsSuccessRate(t *testing.T) {
	a := newFake("a", imageCaps(), true)
	b := newFake("b", imageCaps(), true)

	engine, tracker := newTestEngine(t, config.RoutingConfig{
		ImageFallbackOrder: []string{"a"},
	}, nil, a, b)

	// b has the better record, but the operator's chain lists a first.
	tracker.RecordAttempt("b")
	tracker.RecordSuccess("b")

	res := engine.GenerateImage(context.Background(), "", &api.ImageRequest{Prompt: "x"})
	assert.Equal(t, "a", res.Provider)
}

func TestGenerateImageLastResortTriesUnavailable(t *testing.T) {
	// Unhealthy per probe, but the call itself works. The last-resort sweep
	// must still reach it rather than serving the placeholder.
	a := newFake("a", imageCaps(), false)

	engine, _ := newTestEngine(t, config.RoutingConfig{}, nil, a)

	res := engine.GenerateImage(context.Background(), "", &api.ImageRequest{Prompt: "x"})
	assert.False(t, res.IsBackup)
	assert.Equal(t, "a", res.Provider)
}

func TestGenerateImageTierFiltersEvenLastResort(t *testing.T) {
	a := newFake("a", imageCaps(), true)
	b := newFake("b", imageCaps(), false)

	tiers := map[string]config.Tier{
		"free": {AllowedProviders: []string{"b"}},
	}
	engine, _ := newTestEngine(t, config.RoutingConfig{}, tiers, a, b)
	b.imageFn = func(*api.ImageRequest) (*api.ImageResult, error) { return nil, errors.New("down") }

	res := engine.GenerateImage(context.Background(), "free", &api.ImageRequest{Prompt: "x"})
	assert.True(t, res.IsBackup)
	assert.Zero(t, a.imgCalls)
	assert.Equal(t, 1, b.imgCalls)
}

func TestUpdateRoutingKeepsBackupURL(t *testing.T) {
	a := newFake("a", imageCaps(), true)
	engine, _ := newTestEngine(t, config.RoutingConfig{BackupImageURL: "/backup.png"}, nil, a)

	engine.UpdateRouting(config.RoutingConfig{DefaultImageProvider: "a"})
	assert.Equal(t, "/backup.png", engine.Routing().BackupImageURL)
	assert.Equal(t, "a", engine.Routing().DefaultImageProvider)
}
