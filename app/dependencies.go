package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/upb/llm-gateway/config"
	"github.com/upb/llm-gateway/internal/observability"
	"github.com/upb/llm-gateway/internal/runtimeconfig"
	"github.com/upb/llm-gateway/services/conversation"
	"github.com/upb/llm-gateway/services/providers"
	"github.com/upb/llm-gateway/services/routing"
	"github.com/upb/llm-gateway/services/session"
	"go.uber.org/zap"
)

// MetricsNamespace prefixes every exported metric
const MetricsNamespace = "llm_gateway"

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Metrics is a no-op when metrics are disabled; MetricsHandler is then nil
	Metrics        observability.Metrics
	MetricsHandler http.Handler

	// Routing
	Registry    *providers.Registry
	Breaker     *routing.Breaker
	Scheduler   *routing.Scheduler
	Executor    *providers.Executor
	Coordinator *routing.Coordinator

	// Sessions
	Sessions *session.Store
	Sweeper  *session.Sweeper
	Injector *conversation.Injector

	// Watcher is nil unless ROUTING_WATCH is enabled
	Watcher *runtimeconfig.Watcher
}

// NewDependencies creates and wires up all application dependencies.
// Background jobs are not started until Start is called.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initMetrics(cfg)

	// Initialize provider registry
	if err := deps.initRegistry(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	deps.initRouting(cfg)
	deps.initSessions(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.Strings("providers", deps.Registry.ProviderIDs()),
		zap.Int("routes", len(deps.Registry.Routes())))
	return deps, nil
}

func (d *Dependencies) initMetrics(cfg *config.Config) {
	if !cfg.Observability.MetricsEnabled {
		d.Metrics = observability.NopMetrics{}
		return
	}
	metrics := observability.NewPrometheusMetrics(MetricsNamespace, prometheus.NewRegistry())
	d.Metrics = metrics
	d.MetricsHandler = metrics.Handler()
}

// initRegistry registers the built-in providers, then merges the optional
// registry file on top
func (d *Dependencies) initRegistry(cfg *config.Config) error {
	registry := providers.NewRegistry()

	defaults := providers.DefaultRegistration(cfg.Providers.GroqAPIKey, cfg.Providers.CerebrasAPIKey)
	if err := registry.Register(defaults); err != nil {
		return fmt.Errorf("failed to register built-in providers: %w", err)
	}
	if cfg.Providers.GroqAPIKey == "" && cfg.Providers.CerebrasAPIKey == "" && cfg.Routing.File == "" {
		d.Logger.Warn("no LLM provider credentials configured")
	}

	d.Registry = registry

	if cfg.Routing.File == "" {
		return nil
	}

	watcher := runtimeconfig.NewWatcher(cfg.Routing.File, config.LoadRegistryFile, registry, 0, d.Logger)
	if err := watcher.Reload(); err != nil {
		return fmt.Errorf("failed to load registry file: %w", err)
	}
	if cfg.Routing.Watch {
		d.Watcher = watcher
	}
	return nil
}

func (d *Dependencies) initRouting(cfg *config.Config) {
	d.Breaker = routing.NewBreaker(cfg.Routing.Cooldown)
	d.Scheduler = routing.NewScheduler()
	d.Executor = providers.NewExecutor(&http.Client{Timeout: cfg.Providers.UpstreamTimeout}, d.Logger)
	d.Coordinator = routing.NewCoordinator(d.Registry, d.Breaker, d.Scheduler, d.Executor, d.Logger, d.Metrics)
}

func (d *Dependencies) initSessions(cfg *config.Config) {
	d.Sessions = session.NewStore(session.Config{
		TTL:         cfg.Sessions.TTL,
		MaxSessions: cfg.Sessions.MaxSessions,
	}, d.Logger, d.Metrics)
	d.Sweeper = session.NewSweeper(d.Sessions, cfg.Sessions.SweepSchedule, d.Logger)
	d.Injector = conversation.NewInjector(d.Sessions, d.Coordinator, d.Logger)
}

// Start launches the background jobs: the session sweeper and, when
// enabled, the registry watcher
func (d *Dependencies) Start(ctx context.Context) error {
	if err := d.Sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start session sweeper: %w", err)
	}
	if d.Watcher != nil {
		if err := d.Watcher.Start(ctx); err != nil {
			d.Sweeper.Stop()
			return fmt.Errorf("failed to start registry watcher: %w", err)
		}
	}
	return nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Watcher != nil {
		if err := d.Watcher.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop registry watcher: %w", err))
		}
	}
	if d.Sweeper != nil {
		d.Sweeper.Stop()
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
