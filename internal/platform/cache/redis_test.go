package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T, namespace string) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStoreFromClient(client, namespace), srv
}

func TestRedisStore_SetGetWithTTL(t *testing.T) {
	t.Parallel()

	store, srv := newTestRedisStore(t, "")
	ctx := context.Background()

	if err := store.Set(ctx, "sportscorex:live:abc", []byte(`{"data":[]}`), 2*time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := store.Get(ctx, "sportscorex:live:abc")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if string(got) != `{"data":[]}` {
		t.Fatalf("unexpected payload %s", got)
	}

	srv.FastForward(2*time.Minute + time.Second)
	if _, ok, err := store.Get(ctx, "sportscorex:live:abc"); ok || err != nil {
		t.Fatalf("expected miss after ttl, ok=%v err=%v", ok, err)
	}
}

func TestRedisStore_MissIsNotAnError(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t, "")
	_, ok, err := store.Get(context.Background(), "absent")
	if ok || err != nil {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}
}

func TestRedisStore_DeletePrefixHonoursNamespace(t *testing.T) {
	t.Parallel()

	store, srv := newTestRedisStore(t, "staging/")
	ctx := context.Background()

	_ = store.Set(ctx, "sportscorex:live:1", []byte("a"), time.Minute)
	_ = store.Set(ctx, "sportscorex:live:2", []byte("b"), time.Minute)
	_ = store.Set(ctx, "sportscorex:standings:1", []byte("c"), time.Minute)
	if err := srv.Set("sportscorex:live:foreign", "x"); err != nil {
		t.Fatalf("seed foreign key: %v", err)
	}

	if err := store.DeletePrefix(ctx, "sportscorex:live:"); err != nil {
		t.Fatalf("delete prefix: %v", err)
	}

	if srv.Exists("staging/sportscorex:live:1") || srv.Exists("staging/sportscorex:live:2") {
		t.Fatalf("expected namespaced live keys to be removed")
	}
	if !srv.Exists("staging/sportscorex:standings:1") {
		t.Fatalf("expected standings key to survive")
	}
	if !srv.Exists("sportscorex:live:foreign") {
		t.Fatalf("expected keys outside namespace to survive")
	}
}

func TestNewRedisStore_RequiresURL(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisStore(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestEscapeGlob(t *testing.T) {
	t.Parallel()

	if got := escapeGlob("a*b?[c]"); got != `a\*b\?\[c\]` {
		t.Fatalf("unexpected escaped pattern %q", got)
	}
}
