package app

import (
	"context"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/riskibarqy/sportscorex/internal/config"
	"github.com/riskibarqy/sportscorex/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/sportscorex/internal/platform/cache"
	"github.com/riskibarqy/sportscorex/internal/platform/logging"
	"github.com/riskibarqy/sportscorex/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

const backendConnectTimeout = 5 * time.Second

type expiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type cacheBackend struct {
	store  usecase.ScoreCache
	purger expiredPurger
	close  func() error
}

func openCache(ctx context.Context, cfg config.Config, logger *logging.Logger) (cacheBackend, error) {
	if !cfg.CacheEnabled {
		return cacheBackend{}, nil
	}

	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			URL:       cfg.RedisURL,
			Namespace: cfg.RedisNamespace,
			Timeout:   backendConnectTimeout,
		})
		if err != nil {
			return cacheBackend{}, fmt.Errorf("open redis cache: %w", err)
		}
		logger.Info("score cache ready", "backend", cfg.CacheBackend, "namespace", cfg.RedisNamespace)
		return cacheBackend{store: store, close: store.Close}, nil

	case config.CacheBackendPostgres:
		dsn := NormalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
		db, err := otelsqlx.Open("postgres", dsn,
			otelsql.WithDBName(dbNameFromURL(dsn)),
			otelsql.WithDBSystem("postgresql"),
			otelsql.WithQueryFormatter(formatDBQueryForTrace),
		)
		if err != nil {
			return cacheBackend{}, fmt.Errorf("open postgres cache: %w", err)
		}

		repo := postgres.NewCacheEntryRepository(db)
		pingCtx, cancel := context.WithTimeout(ctx, backendConnectTimeout)
		defer cancel()
		if err := repo.Ping(pingCtx); err != nil {
			_ = db.Close()
			return cacheBackend{}, fmt.Errorf("ping postgres cache: %w", err)
		}

		logger.Info("score cache ready", "backend", cfg.CacheBackend, "database", dbNameFromURL(dsn))
		return cacheBackend{store: repo, purger: repo, close: db.Close}, nil

	default:
		logger.Info("score cache ready", "backend", config.CacheBackendMemory)
		return cacheBackend{store: cache.NewStore(cfg.CacheLiveTTL)}, nil
	}
}
