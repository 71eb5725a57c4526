package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fableforge/fable-engine/internal/config"
	"github.com/fableforge/fable-engine/internal/gateway"
	"github.com/fableforge/fable-engine/internal/server/middleware"
	"github.com/fableforge/fable-engine/internal/server/validator"
	"github.com/fableforge/fable-engine/pkg/api"
)

// stubService cans every facade answer so the handlers can be exercised
// without providers or routing behind them.
type stubService struct {
	storyResp *api.StoryResponse
	storyErr  error
	imageRes  *api.ImageResult
	job       api.IllustrationJob
	jobKnown  bool
}

var _ gateway.Service = (*stubService)(nil)

func (s *stubService) GenerateStoryText(context.Context, string, *api.StoryRequest) (*api.StoryResponse, error) {
	return s.storyResp, s.storyErr
}

func (s *stubService) GenerateChapterImage(context.Context, string, *api.ChapterImageRequest) *api.ImageResult {
	return s.imageRes
}

func (s *stubService) IllustrateStory(_, storyID string, req *api.IllustrateStoryRequest) api.IllustrationJob {
	return api.IllustrationJob{StoryID: storyID, Status: gateway.JobProcessing, TotalChapters: len(req.Chapters)}
}

func (s *stubService) IllustrationStatus(string) (api.IllustrationJob, bool) {
	return s.job, s.jobKnown
}

func (s *stubService) ProvidersStatus(context.Context) []api.ProviderStatusView {
	return nil
}

func (s *stubService) SetProviderKey(context.Context, string, string) error {
	return nil
}

func (s *stubService) Routing() config.RoutingConfig {
	return config.RoutingConfig{}
}

func (s *stubService) UpdateRouting(config.RoutingConfig) {}

func newTestRouter(svc gateway.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator.InitValidator()

	h := NewStoryHandler(svc)

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.POST("/v1/stories/text", h.GenerateText)
	r.POST("/v1/chapters/image", h.GenerateChapterImage)
	r.POST("/v1/stories/:id/illustrations", h.IllustrateStory)
	r.GET("/v1/stories/:id/illustrations", h.IllustrationStatus)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateTextReturnsStory(t *testing.T) {
	svc := &stubService{storyResp: &api.StoryResponse{
		ID:    "story-1",
		Title: "The Lantern",
		Chapters: []api.Chapter{
			{ID: "chapter-1", Title: "The Glow", Content: "Luna found a lantern."},
		},
		Provider: "writer",
	}}
	r := newTestRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/v1/stories/text",
		`{"characters": ["Luna"], "theme": "friendship", "age_group": "6-8"}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp api.StoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "The Lantern", resp.Title)
	assert.Len(t, resp.Chapters, 1)
}

func TestGenerateTextValidation(t *testing.T) {
	r := newTestRouter(&stubService{})

	w := doJSON(t, r, http.MethodPost, "/v1/stories/text", `{"theme": "friendship"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	errs := problem["errors"].(map[string]interface{})
	assert.Contains(t, errs, "characters")
	assert.Contains(t, errs, "age_group")
}

func TestGenerateTextPropagatesProblem(t *testing.T) {
	svc := &stubService{storyErr: api.ExhaustedFallbackError(api.CapabilityText, []string{"a", "b"}, errors.New("down"))}
	r := newTestRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/v1/stories/text",
		`{"characters": ["Luna"], "theme": "friendship", "age_group": "6-8"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestGenerateChapterImageBackupIsStill200(t *testing.T) {
	svc := &stubService{imageRes: &api.ImageResult{
		Success:  true,
		IsBackup: true,
		ImageURL: "/backup.png",
		Provider: "backup",
	}}
	r := newTestRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/v1/chapters/image",
		`{"chapter_title": "The Glow", "chapter_content": "Luna found a lantern."}`)

	require.Equal(t, http.StatusOK, w.Code)

	var res api.ImageResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.IsBackup)
	assert.Equal(t, "/backup.png", res.ImageURL)
}

func TestIllustrateStoryAccepted(t *testing.T) {
	r := newTestRouter(&stubService{})

	w := doJSON(t, r, http.MethodPost, "/v1/stories/story-1/illustrations",
		`{"chapters": [{"title": "The Glow", "content": "Luna found a lantern."}]}`)

	require.Equal(t, http.StatusAccepted, w.Code)

	var job api.IllustrationJob
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, "story-1", job.StoryID)
	assert.Equal(t, gateway.JobProcessing, job.Status)
}

func TestIllustrationStatusNotFound(t *testing.T) {
	r := newTestRouter(&stubService{})

	w := doJSON(t, r, http.MethodGet, "/v1/stories/ghost/illustrations", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
