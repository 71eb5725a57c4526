package server

import (
	"net/http"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fableforge/fable-engine/internal/analytics"
	"github.com/fableforge/fable-engine/internal/config"
	"github.com/fableforge/fable-engine/internal/gateway"
	"github.com/fableforge/fable-engine/internal/server/middleware"
	"github.com/fableforge/fable-engine/internal/server/validator"
)

type Server struct {
	router    *gin.Engine
	config    *config.Config
	logger    *zap.Logger
	service   gateway.Service
	analytics analytics.Service
}

func New(cfg *config.Config, logger *zap.Logger, service gateway.Service, stats analytics.Service) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	validator.InitValidator()

	engine := gin.New()

	engine.Use(ginzap.RecoveryWithZap(logger, true))
	engine.Use(middleware.Logger(logger))
	engine.Use(middleware.Tracing("fable-engine"))

	s := &Server{
		router:    engine,
		service:   service,
		analytics: stats,
		logger:    logger,
		config:    cfg,
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}
