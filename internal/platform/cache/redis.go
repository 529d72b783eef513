package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisTimeout  = 3 * time.Second
	redisScanBatch int64 = 200
)

type RedisConfig struct {
	URL       string
	Namespace string
	PoolSize  int
	Timeout   time.Duration
}

// RedisStore shares cached results across replicas. Expiry is delegated to
// redis key TTLs.
type RedisStore struct {
	client    redis.UniversalClient
	namespace string
}

func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("redis url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRedisTimeout
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	opts.DialTimeout = cfg.Timeout
	opts.ReadTimeout = cfg.Timeout
	opts.WriteTimeout = cfg.Timeout

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisStoreFromClient(client, cfg.Namespace), nil
}

func NewRedisStoreFromClient(client redis.UniversalClient, namespace string) *RedisStore {
	return &RedisStore{client: client, namespace: namespace}
}

func (s *RedisStore) key(key string) string {
	return s.namespace + key
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get key=%s: %w", key, err)
	}
	return raw, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set key=%s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) error {
	if prefix == "" {
		return nil
	}

	iter := s.client.Scan(ctx, 0, escapeGlob(s.key(prefix))+"*", redisScanBatch).Iterator()
	batch := make([]string, 0, redisScanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if int64(len(batch)) >= redisScanBatch {
			if err := s.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("redis delete prefix=%s: %w", prefix, err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan prefix=%s: %w", prefix, err)
	}
	if len(batch) > 0 {
		if err := s.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis delete prefix=%s: %w", prefix, err)
		}
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func escapeGlob(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
