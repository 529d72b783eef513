package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/riskibarqy/sportscorex/internal/config"
	"github.com/riskibarqy/sportscorex/internal/interfaces/httpapi"
	"github.com/riskibarqy/sportscorex/internal/platform/logging"
	"github.com/riskibarqy/sportscorex/internal/platform/metrics"
	"github.com/riskibarqy/sportscorex/internal/usecase"
)

// App is the wired object graph shared by the API server and the CLI.
type App struct {
	Config  config.Config
	Logger  *logging.Logger
	Metrics *metrics.Registry
	Scores  *usecase.ScoresService
	LiveHub *httpapi.LiveHub
	Warmup  *usecase.WarmupService

	purger  expiredPurger
	closers []func() error
}

// New builds providers, the cache backend and the services on top of them.
// The caller owns the returned App and must Close it.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	backend, err := openCache(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.purger = backend.purger
	if backend.close != nil {
		a.closers = append(a.closers, backend.close)
	}

	providers := buildProviders(cfg, a.Metrics.BreakerStateChanged, logger)
	if len(providers) == 0 {
		logger.Warn("no providers enabled", "error", usecase.ErrNoProvider)
	}

	a.Scores = usecase.NewScoresService(
		usecase.NewProviderRegistry(providers...),
		backend.store,
		a.Metrics,
		usecase.ScoresServiceConfig{
			CacheEnabled:    cfg.CacheEnabled,
			LiveTTL:         cfg.CacheLiveTTL,
			StandingsTTL:    cfg.CacheStandingsTTL,
			ProviderTimeout: cfg.ProviderTimeout,
		},
		logger,
	)
	a.LiveHub = httpapi.NewLiveHub(cfg.CORSAllowedOrigins, a.Metrics, logger)

	targets, err := usecase.ParseLiveTargets(cfg.WarmupTargets)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("parse WARMUP_TARGETS: %w", err)
	}
	a.Warmup = usecase.NewWarmupService(a.Scores, a.LiveHub, targets, cfg.WarmupInterval, cfg.WarmupWorkers, logger)

	logger.Info("app initialized",
		"providers", a.Scores.Registry().Names(),
		"cache_enabled", cfg.CacheEnabled,
		"cache_backend", cfg.CacheBackend,
		"warmup_targets", len(targets),
	)

	return a, nil
}

func (a *App) NewHTTPServer() (*http.Server, error) {
	if a.Config.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	routerCfg := httpapi.RouterConfig{
		ServiceName:             a.Config.ServiceName,
		SwaggerEnabled:          a.Config.SwaggerEnabled,
		CORSAllowedOrigins:      a.Config.CORSAllowedOrigins,
		InternalJobToken:        a.Config.InternalJobToken,
		ClientRequestsPerMinute: a.Config.ClientRequestsPerMinute,
	}
	if a.Config.MetricsEnabled {
		routerCfg.Metrics = a.Metrics
		routerCfg.MetricsHandler = a.Metrics.Handler()
	}

	handler := httpapi.NewHandler(a.Scores, a.LiveHub, a.Logger)
	return &http.Server{
		Addr:              a.Config.HTTPAddr,
		Handler:           httpapi.NewRouter(handler, routerCfg, a.Logger),
		ReadTimeout:       a.Config.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      a.Config.WriteTimeout,
	}, nil
}

// RunCacheJanitor deletes expired rows every interval until ctx is done.
// Backends that expire entries on their own make this a no-op.
func (a *App) RunCacheJanitor(ctx context.Context, interval time.Duration) {
	if a.purger == nil {
		return
	}
	if interval <= 0 {
		interval = usecase.DefaultLiveTTL
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.purgeExpired(ctx)
		}
	}
}

func (a *App) purgeExpired(ctx context.Context) {
	removed, err := a.purger.PurgeExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			a.Logger.WarnContext(ctx, "purge expired cache entries failed", "error", err)
		}
		return
	}
	if removed > 0 {
		a.Logger.DebugContext(ctx, "expired cache entries purged", "removed", removed)
	}
}

// Close releases backend connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
