package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fableforge/fable-engine/internal/gateway"
	"github.com/fableforge/fable-engine/internal/server/middleware"
	"github.com/fableforge/fable-engine/internal/server/validator"
	"github.com/fableforge/fable-engine/pkg/api"
)

type StoryHandler struct {
	service gateway.Service
}

func NewStoryHandler(service gateway.Service) *StoryHandler {
	return &StoryHandler{service: service}
}

// GenerateText produces a full structured story.
//
// POST /v1/stories/text
func (h *StoryHandler) GenerateText(c *gin.Context) {
	var req api.StoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	resp, err := h.service.GenerateStoryText(c.Request.Context(), middleware.Tier(c), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GenerateChapterImage produces one chapter illustration. The response is
// always 200; a total provider outage degrades to the backup placeholder.
//
// POST /v1/chapters/image
func (h *StoryHandler) GenerateChapterImage(c *gin.Context) {
	var req api.ChapterImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	res := h.service.GenerateChapterImage(c.Request.Context(), middleware.Tier(c), &req)
	c.JSON(http.StatusOK, res)
}

// IllustrateStory starts a detached run over every chapter and acknowledges
// immediately with 202.
//
// POST /v1/stories/:id/illustrations
func (h *StoryHandler) IllustrateStory(c *gin.Context) {
	storyID := c.Param("id")

	var req api.IllustrateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	job := h.service.IllustrateStory(middleware.Tier(c), storyID, &req)
	c.JSON(http.StatusAccepted, job)
}

// IllustrationStatus reports the progress of a detached run.
//
// GET /v1/stories/:id/illustrations
func (h *StoryHandler) IllustrationStatus(c *gin.Context) {
	storyID := c.Param("id")

	job, ok := h.service.IllustrationStatus(storyID)
	if !ok {
		_ = c.Error(api.NotFoundError("no illustration run for story " + storyID))
		return
	}

	c.JSON(http.StatusOK, job)
}
