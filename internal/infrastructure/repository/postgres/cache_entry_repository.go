package postgres

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	qb "github.com/riskibarqy/sportscorex/internal/platform/querybuilder"
)

const upsertCacheEntrySuffix = `ON CONFLICT (cache_key)
DO UPDATE SET
    payload = EXCLUDED.payload,
    expires_at = EXCLUDED.expires_at,
    updated_at = NOW()`

// CacheEntryRepository keeps encoded aggregation results in postgres so
// several API replicas can share one cache.
type CacheEntryRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewCacheEntryRepository(db *sqlx.DB) *CacheEntryRepository {
	return &CacheEntryRepository{db: db, now: time.Now}
}

func (r *CacheEntryRepository) WithClock(now func() time.Time) *CacheEntryRepository {
	if now != nil {
		r.now = now
	}
	return r
}

func (r *CacheEntryRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query, args, err := selectCacheEntryQuery(key)
	if err != nil {
		return nil, false, fmt.Errorf("build get cache entry query: %w", err)
	}

	var row cacheEntryTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get cache entry key=%s: %w", key, err)
	}

	if !r.now().Before(row.ExpiresAt) {
		if err := r.deleteExpired(ctx, key); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	return bytes.Clone(row.Payload), true, nil
}

func (r *CacheEntryRepository) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("cache entry ttl must be positive, got %s", ttl)
	}

	query, args, err := upsertCacheEntryQuery(key, payload, r.now().Add(ttl).UTC())
	if err != nil {
		return fmt.Errorf("build upsert cache entry query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert cache entry key=%s: %w", key, err)
	}
	return nil
}

func (r *CacheEntryRepository) DeletePrefix(ctx context.Context, prefix string) error {
	query, args, err := deleteCacheEntriesByPrefixQuery(prefix)
	if err != nil {
		return fmt.Errorf("build delete cache entries query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete cache entries prefix=%s: %w", prefix, err)
	}
	return nil
}

// PurgeExpired removes every expired row and reports how many were deleted.
func (r *CacheEntryRepository) PurgeExpired(ctx context.Context) (int64, error) {
	query, args, err := deleteExpiredCacheEntriesQuery(r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("build purge expired query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("purge expired cache entries: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge expired cache entries rows affected: %w", err)
	}
	return affected, nil
}

func (r *CacheEntryRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *CacheEntryRepository) deleteExpired(ctx context.Context, key string) error {
	query, args, err := deleteExpiredCacheEntriesQuery(r.now().UTC(), qb.Eq("cache_key", key))
	if err != nil {
		return fmt.Errorf("build delete expired query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete expired cache entry key=%s: %w", key, err)
	}
	return nil
}

func selectCacheEntryQuery(key string) (string, []any, error) {
	return qb.Select("cache_key", "payload", "expires_at", "created_at", "updated_at").
		From(scoreCacheTable).
		Where(qb.Eq("cache_key", key)).
		Limit(1).
		ToSQL()
}

func upsertCacheEntryQuery(key string, payload []byte, expiresAt time.Time) (string, []any, error) {
	return qb.InsertModel(scoreCacheTable, cacheEntryUpsertModel{
		CacheKey:  key,
		Payload:   payload,
		ExpiresAt: expiresAt,
	}, upsertCacheEntrySuffix)
}

func deleteCacheEntriesByPrefixQuery(prefix string) (string, []any, error) {
	return qb.DeleteFrom(scoreCacheTable).
		Where(qb.Expr(`cache_key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")).
		ToSQL()
}

func deleteExpiredCacheEntriesQuery(now time.Time, extra ...qb.Condition) (string, []any, error) {
	return qb.DeleteFrom(scoreCacheTable).
		Where(extra...).
		Where(qb.Expr("expires_at <= ?", now)).
		ToSQL()
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
