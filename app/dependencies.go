// Package app is the central wiring point for dependency injection:
// configuration in, fully-connected handlers out, no package-level state.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/EldestGruff/personal-ai-assistant-sub000/config"
	"github.com/EldestGruff/personal-ai-assistant-sub000/handlers"
	"github.com/EldestGruff/personal-ai-assistant-sub000/services/metrics"
	"github.com/EldestGruff/personal-ai-assistant-sub000/services/orchestrator"
	"github.com/EldestGruff/personal-ai-assistant-sub000/services/providers"
	"github.com/EldestGruff/personal-ai-assistant-sub000/services/providers/claude"
	"github.com/EldestGruff/personal-ai-assistant-sub000/services/providers/mock"
	"github.com/EldestGruff/personal-ai-assistant-sub000/services/providers/ollama"
	"github.com/EldestGruff/personal-ai-assistant-sub000/services/selection"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Core services
	Registry     *providers.Registry
	Collector    *metrics.Collector
	Policy       selection.Policy
	Orchestrator *orchestrator.Service

	// HTTP handlers
	AnalyzeHandler   *handlers.AnalyzeHandler
	HealthHandler    *handlers.HealthHandler
	MetricsHandler   *handlers.MetricsHandler
	ProvidersHandler *handlers.ProvidersHandler
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initProviders(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	deps.initServices(cfg)
	deps.initHandlers()

	logger.Info("all dependencies initialized",
		zap.Strings("providers", deps.Registry.ListAvailable()),
		zap.String("primary", cfg.Selection.Primary),
		zap.String("secondary", cfg.Selection.Secondary))

	return deps, nil
}

// initProviders registers every configured provider adapter
func (d *Dependencies) initProviders(cfg *config.Config) error {
	registry := providers.NewRegistry(d.Logger)

	if cfg.Providers.Claude.APIKey != "" {
		adapter := claude.New(claude.Config{
			APIKey:  cfg.Providers.Claude.APIKey,
			BaseURL: cfg.Providers.Claude.BaseURL,
			Model:   cfg.Providers.Claude.Model,
			Timeout: cfg.Providers.Claude.Timeout,
		}, d.Logger)
		if err := registry.Register(adapter.Name(), adapter); err != nil {
			return fmt.Errorf("register claude: %w", err)
		}
	}

	if cfg.Providers.Ollama.BaseURL != "" {
		adapter := ollama.New(ollama.Config{
			BaseURL: cfg.Providers.Ollama.BaseURL,
			Model:   cfg.Providers.Ollama.Model,
			Timeout: cfg.Providers.Ollama.Timeout,
		}, d.Logger)
		if err := registry.Register(adapter.Name(), adapter); err != nil {
			return fmt.Errorf("register ollama: %w", err)
		}
	}

	if cfg.Providers.Mock.Enabled {
		provider := mock.New()
		if err := registry.Register(provider.Name(), provider); err != nil {
			return fmt.Errorf("register mock: %w", err)
		}
	}

	if registry.Count() == 0 {
		return fmt.Errorf("no analysis providers configured")
	}

	d.Registry = registry
	return nil
}

// initServices wires the selection policy, metrics, and orchestrator
func (d *Dependencies) initServices(cfg *config.Config) {
	d.Collector = metrics.NewCollector()

	d.Policy = selection.NewSequentialPolicy(selection.Config{
		Primary:   cfg.Selection.Primary,
		Secondary: cfg.Selection.Secondary,
	}, d.Logger)

	d.Orchestrator = orchestrator.NewService(d.Registry, d.Policy, d.Collector, d.Logger)
}

// initHandlers builds the HTTP handlers on top of the services
func (d *Dependencies) initHandlers() {
	d.AnalyzeHandler = handlers.NewAnalyzeHandler(d.Orchestrator, d.Logger)
	d.HealthHandler = handlers.NewHealthHandler(d.Orchestrator, d.Logger)
	d.MetricsHandler = handlers.NewMetricsHandler(d.Collector, d.Logger)
	d.ProvidersHandler = handlers.NewProvidersHandler(d.Registry, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close() error {
	d.Logger.Info("shutting down dependencies")

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	return nil
}
