// Package callbacks remembers payment callbacks that were already applied.
package callbacks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultTTL = 24 * time.Hour
	keyPrefix  = "marathon:callback:"
)

// Key identifies one delivery of a payment outcome.
func Key(registrationID, transactionID, status string) string {
	return strings.Join([]string{registrationID, transactionID, status}, "|")
}

// RedisLedger stores callback keys with a TTL in Redis.
type RedisLedger struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisLedger(client redis.Cmdable, ttl time.Duration) *RedisLedger {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLedger{client: client, ttl: ttl}
}

func (l *RedisLedger) Seen(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Exists(ctx, keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Remember records key. SET NX keeps the first delivery's TTL.
func (l *RedisLedger) Remember(ctx context.Context, key string) error {
	if err := l.client.SetNX(ctx, keyPrefix+key, time.Now().Unix(), l.ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	return nil
}

// MemoryLedger is the in-process TTL ledger.
type MemoryLedger struct {
	cache *gocache.Cache
}

func NewMemoryLedger(ttl time.Duration) *MemoryLedger {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryLedger{cache: gocache.New(ttl, ttl/4)}
}

func (l *MemoryLedger) Seen(_ context.Context, key string) (bool, error) {
	_, ok := l.cache.Get(key)
	return ok, nil
}

func (l *MemoryLedger) Remember(_ context.Context, key string) error {
	// Add fails when the key exists, which is the SET NX behaviour we want.
	_ = l.cache.Add(key, struct{}{}, gocache.DefaultExpiration)
	return nil
}

// FallbackLedger prefers Redis and falls back to the in-process ledger when
// Redis errors. Keys are always written to the local ledger as well so a
// Redis outage does not forget recent deliveries handled by this instance.
type FallbackLedger struct {
	primary *RedisLedger
	local   *MemoryLedger
	logger  *slog.Logger
}

// NewFallbackLedger returns a ledger over primary and local. primary may be nil.
func NewFallbackLedger(primary *RedisLedger, local *MemoryLedger, logger *slog.Logger) *FallbackLedger {
	return &FallbackLedger{primary: primary, local: local, logger: logger}
}

func (l *FallbackLedger) Seen(ctx context.Context, key string) (bool, error) {
	if seen, _ := l.local.Seen(ctx, key); seen {
		return true, nil
	}
	if l.primary == nil {
		return false, nil
	}
	seen, err := l.primary.Seen(ctx, key)
	if err != nil {
		l.logger.WarnContext(ctx, "callback ledger unavailable, using local ledger", "error", err)
		return false, nil
	}
	return seen, nil
}

func (l *FallbackLedger) Remember(ctx context.Context, key string) error {
	_ = l.local.Remember(ctx, key)
	if l.primary == nil {
		return nil
	}
	if err := l.primary.Remember(ctx, key); err != nil {
		l.logger.WarnContext(ctx, "failed to record callback in redis", "error", err)
	}
	return nil
}
