package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fableforge/fable-engine/internal/config"
	"github.com/fableforge/fable-engine/internal/gateway"
	"github.com/fableforge/fable-engine/internal/server/validator"
	"github.com/fableforge/fable-engine/pkg/api"
)

type ProviderHandler struct {
	service gateway.Service
}

func NewProviderHandler(service gateway.Service) *ProviderHandler {
	return &ProviderHandler{service: service}
}

// Status lists every registered provider with availability, capabilities and
// recorded success rate.
//
// GET /v1/providers/status
func (h *ProviderHandler) Status(c *gin.Context) {
	views := h.service.ProvidersStatus(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   views,
	})
}

// SetKey hot-swaps a provider credential after format validation.
//
// PUT /v1/providers/:id/key
func (h *ProviderHandler) SetKey(c *gin.Context) {
	providerID := c.Param("id")

	var req api.SetAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	if err := h.service.SetProviderKey(c.Request.Context(), providerID, req.APIKey); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"provider": providerID,
		"status":   "key accepted, health check in progress",
	})
}

// GetRouting returns the live routing preferences.
//
// GET /v1/routing
func (h *ProviderHandler) GetRouting(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Routing())
}

// UpdateRouting swaps the routing preferences at runtime.
//
// PUT /v1/routing
func (h *ProviderHandler) UpdateRouting(c *gin.Context) {
	var cfg config.RoutingConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		_ = c.Error(api.ValidationError(validator.ParseValidationError(err)))
		return
	}

	h.service.UpdateRouting(cfg)
	c.JSON(http.StatusOK, h.service.Routing())
}
