package server

import (
	"github.com/fableforge/fable-engine/internal/server/middleware"
	v1 "github.com/fableforge/fable-engine/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.CORS())
	s.router.Use(middleware.ErrorHandler())

	limiter := middleware.NewRateLimiter(s.config.RateLimit.RequestsPerSecond, s.config.RateLimit.Burst, s.logger)
	s.router.Use(limiter.Middleware())

	// Health Check (Public)
	healthHandler := v1.NewHealthHandler()
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/ready", healthHandler.Ready)

	// API V1 Group
	api := s.router.Group("/v1")
	api.Use(middleware.Auth(s.config.Server.APIKeys))
	{
		storyHandler := v1.NewStoryHandler(s.service)
		api.POST("/stories/text", storyHandler.GenerateText)
		api.POST("/chapters/image", storyHandler.GenerateChapterImage)
		api.POST("/stories/:id/illustrations", storyHandler.IllustrateStory)
		api.GET("/stories/:id/illustrations", storyHandler.IllustrationStatus)

		providerHandler := v1.NewProviderHandler(s.service)
		api.GET("/providers/status", providerHandler.Status)
		api.PUT("/providers/:id/key", providerHandler.SetKey)
		api.GET("/routing", providerHandler.GetRouting)
		api.PUT("/routing", middleware.RequireTier("admin"), providerHandler.UpdateRouting)

		analyticsHandler := v1.NewAnalyticsHandler(s.analytics)
		api.GET("/analytics/usage", analyticsHandler.GetUsage)
		api.GET("/analytics/providers", analyticsHandler.GetProviders)
	}
}
