package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fableforge/fable-engine/cmd"
	"github.com/fableforge/fable-engine/internal/analytics"
	"github.com/fableforge/fable-engine/internal/config"
	"github.com/fableforge/fable-engine/internal/consistency"
	"github.com/fableforge/fable-engine/internal/gateway"
	"github.com/fableforge/fable-engine/internal/health"
	"github.com/fableforge/fable-engine/internal/logger"
	"github.com/fableforge/fable-engine/internal/metrics"
	"github.com/fableforge/fable-engine/internal/platform/otel"
	"github.com/fableforge/fable-engine/internal/registry"
	"github.com/fableforge/fable-engine/internal/routing"
	"github.com/fableforge/fable-engine/internal/server"
	"github.com/fableforge/fable-engine/internal/store/cache"
	"github.com/fableforge/fable-engine/internal/store/sqlite"

	// Import providers to trigger init() registration
	_ "github.com/fableforge/fable-engine/internal/provider/anthropic"
	_ "github.com/fableforge/fable-engine/internal/provider/ollama"
	_ "github.com/fableforge/fable-engine/internal/provider/openai"
	_ "github.com/fableforge/fable-engine/internal/provider/replicate"
	_ "github.com/fableforge/fable-engine/internal/provider/stability"
)

func main() {
	logger.Initialize(logger.DefaultConfig())
	log := logger.Get()
	defer logger.Sync()

	cmd.CheckForUpdates()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := otel.InitTracer("fable-engine", cmd.AppVersion, log, os.Stdout)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	repo, err := sqlite.NewSQLiteStorage(cfg.Store.DSN)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer repo.Close()

	var cacheService cache.CacheService
	if cfg.Redis.Enabled {
		cacheService, err = cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("Redis unavailable, falling back to in-memory cache", zap.Error(err))
			cacheService = cache.NewMemoryCache()
		}
	} else {
		cacheService = cache.NewMemoryCache()
	}

	reg := registry.New()
	monitor := health.NewMonitor(reg, log)
	tracker := metrics.NewTracker()

	if n := gateway.BootstrapProviders(ctx, reg, monitor, cfg.Providers, log); n == 0 {
		log.Warn("Running without any providers; image requests will serve the backup placeholder")
	}

	engine := routing.NewEngine(reg, tracker, monitor, cfg.Routing, cfg.Tiers, log)

	ingestor := analytics.NewIngestor(log, repo)
	ingestor.Start(ctx)
	defer ingestor.Stop()

	service := gateway.NewService(log, engine, reg, monitor, tracker, consistency.NewCache(), ingestor, cacheService)
	stats := analytics.NewService(repo)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.New(cfg, log, service, stats).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting fable-engine", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("Tracer shutdown failed", zap.Error(err))
	}
}
