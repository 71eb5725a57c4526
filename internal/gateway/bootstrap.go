package gateway

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/fableforge/fable-engine/internal/cli"
	"github.com/fableforge/fable-engine/internal/config"
	"github.com/fableforge/fable-engine/internal/health"
	"github.com/fableforge/fable-engine/internal/provider"
	"github.com/fableforge/fable-engine/internal/registry"
)

// BootstrapProviders constructs and registers every enabled provider from
// configuration, then runs one concurrent health sweep so routing starts from
// real statuses instead of guesses.
func BootstrapProviders(ctx context.Context, reg *registry.Registry, monitor *health.Monitor, providers []config.ProviderConfig, log *zap.Logger) int {
	registeredCount := 0
	validate := validator.New()

	for _, pCfg := range providers {
		if !pCfg.Enabled {
			continue
		}

		if err := validate.Struct(&pCfg); err != nil {
			log.Warn(fmt.Sprintf("%s %s %s",
				cli.WarningSign(),
				cli.Style(fmt.Sprintf("%s\t", pCfg.ID), cli.Bold),
				cli.Style("Skipping provider due to missing API key", cli.Yellow),
			))
			continue
		}

		factoryFunc, err := provider.Get(pCfg.Type)
		if err != nil {
			log.Error("Unknown provider type", zap.String("type", pCfg.Type))
			continue
		}

		instance, err := factoryFunc(pCfg)
		if err != nil {
			log.Error("Failed to initialize provider",
				zap.String("id", pCfg.ID),
				zap.Error(err),
			)
			continue
		}

		reg.Register(instance)
		registeredCount++

		log.Info(fmt.Sprintf("%s %s registered",
			cli.CheckMark(),
			cli.Style(pCfg.ID, cli.Bold),
		))
	}

	if registeredCount == 0 {
		log.Warn("No providers were registered. API will not function correctly.")
		return 0
	}

	// Unhealthy providers stay registered: routing skips them until a later
	// sweep or key change brings them back.
	monitor.CheckAll(ctx)

	return registeredCount
}
