package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setNXStore implements only SetNX and Del; other Cmdable methods panic if called.
type setNXStore struct {
	redis.Cmdable
	keys map[string]time.Duration
	err  error
}

func (s *setNXStore) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	if s.err != nil {
		return redis.NewBoolResult(false, s.err)
	}
	if _, ok := s.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	s.keys[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func TestKey(t *testing.T) {
	if got := Key("c1"); got != "voice-intake:call:c1" {
		t.Fatalf("unexpected key: %s", got)
	}
}

func TestRedisConfigDefaults(t *testing.T) {
	cfg := RedisConfig{Addr: "localhost:6379"}.withDefaults()
	if cfg.TTL != 24*time.Hour || cfg.DialTimeout <= 0 || cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestOpenRedisRequiresAddr(t *testing.T) {
	if _, err := OpenRedis(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}

func TestNilGuard(t *testing.T) {
	var g *RedisGuard
	if _, err := g.FirstDelivery(context.Background(), "c1"); err == nil {
		t.Fatalf("expected error for nil guard")
	}
	if NewRedisGuard(nil, 0).ttl != 24*time.Hour {
		t.Fatalf("expected default ttl")
	}
}

func (s *setNXStore) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	if s.err != nil {
		return redis.NewIntResult(0, s.err)
	}
	var n int64
	for _, key := range keys {
		if _, ok := s.keys[key]; ok {
			delete(s.keys, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestFirstDelivery(t *testing.T) {
	store := &setNXStore{keys: map[string]time.Duration{}}
	guard := NewRedisGuard(store, time.Hour)
	ctx := context.Background()

	first, err := guard.FirstDelivery(ctx, "c1")
	if err != nil || !first {
		t.Fatalf("expected first delivery, got %v %v", first, err)
	}
	again, err := guard.FirstDelivery(ctx, "c1")
	if err != nil || again {
		t.Fatalf("expected repeat to be reported, got %v %v", again, err)
	}
	if store.keys[Key("c1")] != time.Hour {
		t.Fatalf("expected ttl to be applied, got %v", store.keys)
	}
	if other, _ := guard.FirstDelivery(ctx, "c2"); !other {
		t.Fatalf("expected distinct call ids to be independent")
	}
}

func TestFirstDelivery_StoreError(t *testing.T) {
	guard := NewRedisGuard(&setNXStore{err: errors.New("connection refused")}, time.Hour)

	if _, err := guard.FirstDelivery(context.Background(), "c1"); err == nil {
		t.Fatalf("expected store error to be returned")
	}
}

func TestRelease_AllowsRedelivery(t *testing.T) {
	store := &setNXStore{keys: map[string]time.Duration{}}
	guard := NewRedisGuard(store, time.Hour)
	ctx := context.Background()

	if first, _ := guard.FirstDelivery(ctx, "c1"); !first {
		t.Fatalf("expected first delivery")
	}
	if err := guard.Release(ctx, "c1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok := store.keys[Key("c1")]; ok {
		t.Fatalf("expected key deleted")
	}
	if again, _ := guard.FirstDelivery(ctx, "c1"); !again {
		t.Fatalf("expected released call id to be processed again")
	}

	failing := NewRedisGuard(&setNXStore{err: errors.New("connection refused")}, time.Hour)
	if err := failing.Release(ctx, "c1"); err == nil {
		t.Fatalf("expected store error from release")
	}
}
