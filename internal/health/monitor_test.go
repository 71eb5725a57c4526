package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fableforge/fable-engine/internal/provider"
	"github.com/fableforge/fable-engine/internal/registry"
	"github.com/fableforge/fable-engine/pkg/api"
)

type fakeProvider struct {
	provider.Base

	healthy bool
	panics  bool
}

func newFake(id string, healthy bool) *fakeProvider {
	f := &fakeProvider{healthy: healthy}
	f.ID = id
	f.ProviderType = "fake"
	f.Caps = api.Capabilities{Text: true}
	return f
}

func (f *fakeProvider) ValidateKeyFormat(string) error { return nil }

func (f *fakeProvider) CheckHealth(context.Context) api.HealthResult {
	if f.panics {
		panic("adapter bug")
	}
	if f.healthy {
		return f.MarkHealthy(3, "")
	}
	return f.MarkUnhealthy(3, "probe failed")
}

func (f *fakeProvider) GenerateText(context.Context, *api.TextRequest) (*api.TextResult, error) {
	return &api.TextResult{Content: "ok", Provider: f.ID}, nil
}

func (f *fakeProvider) GenerateImage(context.Context, *api.ImageRequest) (*api.ImageResult, error) {
	return &api.ImageResult{Success: true, Provider: f.ID}, nil
}

func TestCheckRecordsStatus(t *testing.T) {
	reg := registry.New()
	m := NewMonitor(reg, zap.NewNop())

	p := newFake("a", true)
	res := m.Check(context.Background(), p)
	assert.True(t, res.Healthy)
	assert.True(t, p.Status().Available)

	p.healthy = false
	res = m.Check(context.Background(), p)
	assert.False(t, res.Healthy)
	assert.False(t, p.Status().Available)
	assert.Equal(t, "probe failed", p.Status().Message)
}

func TestCheckContainsPanic(t *testing.T) {
	reg := registry.New()
	m := NewMonitor(reg, zap.NewNop())

	p := newFake("a", true)
	p.panics = true

	res := m.Check(context.Background(), p)
	assert.False(t, res.Healthy)
	assert.Contains(t, res.Message, "panicked")
	assert.False(t, p.Status().Available)
}

func TestCheckAllSweepsEveryProvider(t *testing.T) {
	reg := registry.New()
	m := NewMonitor(reg, zap.NewNop())

	providers := map[string]bool{"a": true, "b": false, "c": true}
	for id, healthy := range providers {
		reg.Register(newFake(id, healthy))
	}

	results := m.CheckAll(context.Background())
	require.Len(t, results, 3)
	for id, healthy := range providers {
		assert.Equal(t, healthy, results[id].Healthy, id)
	}
}

func TestCheckAllSurvivesPanickingProvider(t *testing.T) {
	reg := registry.New()
	m := NewMonitor(reg, zap.NewNop())

	bad := newFake("bad", true)
	bad.panics = true
	reg.Register(bad)
	reg.Register(newFake("good", true))

	results := m.CheckAll(context.Background())
	require.Len(t, results, 2)
	assert.False(t, results["bad"].Healthy)
	assert.True(t, results["good"].Healthy)
}
