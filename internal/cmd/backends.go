package cmd

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sqllens/sqllens/internal/config"
	"github.com/sqllens/sqllens/internal/core/backend"
	"github.com/sqllens/sqllens/internal/core/engine"
	"github.com/sqllens/sqllens/internal/core/store"
)

// buildRegistry constructs the backend registry from config. The
// static analyzer is always registered; remote backends join only when
// credentials are configured.
func buildRegistry(cfg *config.Config) (*backend.Registry, error) {
	registry := backend.NewRegistry(cfg.Backends.Default)

	if err := registry.Register(backend.NewStatic()); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Backends.OpenAI.APIKey) != "" {
		b, err := backend.NewOpenAI(cfg.Backends.OpenAI)
		if err != nil {
			return nil, fmt.Errorf("configure openai backend: %w", err)
		}
		if err := registry.Register(b); err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(cfg.Backends.OpenRouter.APIKey) != "" {
		b, err := backend.NewOpenRouter(cfg.Backends.OpenRouter)
		if err != nil {
			return nil, fmt.Errorf("configure openrouter backend: %w", err)
		}
		if err := registry.Register(b); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// buildService wires the registry, orchestrator, and store into an
// evaluation service. The store may be nil for commands that do not
// persist jobs.
func buildService(cfg *config.Config, db *store.Store, logger *zap.Logger) (*engine.Service, error) {
	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}

	orchestrator := engine.NewOrchestrator(registry, cfg.Backends.Timeout)
	return engine.NewService(db, orchestrator, cfg.Backends.Enabled, logger), nil
}
