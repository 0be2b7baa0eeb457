// Package dedup: дедупликация задач по ключу в Redis.
//
// Ключ захватывается через SET NX с TTL: первый Claim выигрывает,
// повторные в пределах TTL получают false.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "dedup:"

// Guard: захват ключей дедупликации.
type Guard struct {
	rdb redis.Cmdable
}

// NewGuard создаёт Guard поверх клиента Redis.
func NewGuard(rdb redis.Cmdable) *Guard {
	return &Guard{rdb: rdb}
}

// Claim захватывает key на ttl. false: ключ уже захвачен.
func (g *Guard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Minute
	}
	ok, err := g.rdb.SetNX(ctx, keyPrefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}

// Release освобождает key (например, если публикация не удалась после захвата).
func (g *Guard) Release(ctx context.Context, key string) error {
	if err := g.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}
