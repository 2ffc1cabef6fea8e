package cli

import (
	"context"
	"fmt"
	"time"

	"resumescan/internal/ai"
	"resumescan/internal/cache"
	"resumescan/internal/config"
	resumescanErrors "resumescan/internal/errors"
	"resumescan/internal/observability"
	"resumescan/internal/store"
)

// runtime holds the long-lived components shared by the subcommands
type runtime struct {
	cfg     *config.Config
	logger  *resumescanErrors.Logger
	om      *observability.ObservabilityManager
	service *ai.Service
	store   *store.Store
	cache   *cache.AnalysisCache
}

// newRuntime resolves secrets, starts observability and connects the optional
// cache and store. Cache and store failures are logged and the command runs without them.
func newRuntime(ctx context.Context, cfg *config.Config, logger *resumescanErrors.Logger) (*runtime, error) {
	if err := config.ApplyVaultSecrets(cfg, logger); err != nil {
		return nil, err
	}

	om, err := initializeObservability(cfg)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, logger: logger, om: om}

	httpClient := observability.NewHTTPClient(om, cfg.AI.Timeout)
	chain, err := ai.NewChainFromConfig(ctx, cfg, httpClient, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}

	opts := []ai.ServiceOption{ai.WithMetrics(om.Metrics())}
	if cfg.Cache.Enabled {
		c, err := cache.New(ctx, cfg.Cache)
		if err != nil {
			logger.LogError(err, "Result cache unavailable, continuing without it", "addr", cfg.Cache.Addr)
		} else {
			rt.cache = c
			opts = append(opts, ai.WithCache(c))
		}
	}

	if cfg.Mongo.Enabled {
		rt.store = connectStore(ctx, cfg, logger)
	}

	rt.service = ai.NewService(chain, logger, opts...)
	logger.Debug("Runtime initialized",
		"providers", rt.service.Providers(),
		"cache", rt.cache != nil,
		"store", rt.store != nil)
	return rt, nil
}

// initializeObservability sets up observability components
func initializeObservability(cfg *config.Config) (*observability.ObservabilityManager, error) {
	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	return om, nil
}

func connectStore(ctx context.Context, cfg *config.Config, logger *resumescanErrors.Logger) *store.Store {
	s, err := store.Connect(ctx, cfg.Mongo, cfg.App.FreeAnalysisLimit)
	if err != nil {
		logger.LogError(err, "Analysis store unavailable, history and quotas are disabled")
		return nil
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		logger.LogError(err, "Failed to ensure store indexes")
	}
	return s
}

// requireStore returns the store or a configuration error for commands that cannot run without it
func (rt *runtime) requireStore() (*store.Store, error) {
	if rt.store == nil {
		return nil, resumescanErrors.NewConfigError(resumescanErrors.ErrCodeInvalidConfig,
			"This command needs MongoDB; set mongo.enabled and mongo.uri", nil)
	}
	return rt.store, nil
}

// pipeline builds the quota-aware analysis pipeline over the runtime's components
func (rt *runtime) pipeline() *pipeline {
	p := newPipeline(rt.service, rt.logger)
	p.metrics = rt.om.Metrics()
	p.tracer = rt.om.Tracer("resumescan/cli")
	if rt.store != nil {
		p.store = rt.store
	}
	return p
}

// Close releases every component, flushing telemetry last
func (rt *runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if rt.store != nil {
		if err := rt.store.Close(ctx); err != nil {
			rt.logger.LogError(err, "Failed to disconnect store")
		}
	}
	if rt.cache != nil {
		if err := rt.cache.Close(); err != nil {
			rt.logger.LogError(err, "Failed to close result cache")
		}
	}
	if err := rt.om.Shutdown(ctx); err != nil {
		rt.logger.LogError(err, "Failed to shutdown observability")
	}
}
