// Package dedup suppresses repeated webhook deliveries for the same call.
package dedup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "voice-intake:call:"
	defaultTTL  = 24 * time.Hour
	pingTimeout = 2 * time.Second
)

// RedisConfig controls the redis connection backing the guard.
type RedisConfig struct {
	Addr         string
	TTL          time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c RedisConfig) withDefaults() RedisConfig {
	out := c
	if out.TTL <= 0 {
		out.TTL = defaultTTL
	}
	if out.DialTimeout <= 0 {
		out.DialTimeout = 3 * time.Second
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = 2 * time.Second
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 2 * time.Second
	}
	return out
}

// RedisGuard records call ids with SET NX so only the first delivery wins.
type RedisGuard struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// OpenRedis connects to redis and validates connectivity via PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	cfg = cfg.withDefaults()
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("redis addr is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// NewRedisGuard wraps a redis client. A non-positive ttl uses 24h.
func NewRedisGuard(rdb redis.Cmdable, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisGuard{rdb: rdb, ttl: ttl}
}

// FirstDelivery reports whether callID has not been seen within the TTL.
func (g *RedisGuard) FirstDelivery(ctx context.Context, callID string) (bool, error) {
	if g == nil || g.rdb == nil {
		return false, errors.New("redis client is nil")
	}
	if strings.TrimSpace(callID) == "" {
		return true, nil
	}
	ok, err := g.rdb.SetNX(ctx, Key(callID), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup set: %w", err)
	}
	return ok, nil
}

// Release deletes the marker for callID so the next delivery is processed.
func (g *RedisGuard) Release(ctx context.Context, callID string) error {
	if g == nil || g.rdb == nil {
		return errors.New("redis client is nil")
	}
	if strings.TrimSpace(callID) == "" {
		return nil
	}
	if err := g.rdb.Del(ctx, Key(callID)).Err(); err != nil {
		return fmt.Errorf("dedup release: %w", err)
	}
	return nil
}

// Key returns the redis key used for a call id.
func Key(callID string) string {
	return keyPrefix + callID
}
