package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wepink/cart-service/core/cart"
)

const redisKeyPrefix = "cart-items:"

// Redis stores each snapshot as a JSON string with a TTL, so abandoned
// carts expire on their own.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func redisKey(sessionID string) string {
	return redisKeyPrefix + sessionID
}

func (r *Redis) Load(ctx context.Context, sessionID string) (cart.Items, bool, error) {
	b, err := r.rdb.Get(ctx, redisKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading snapshot: %w", err)
	}

	items, err := decode(b)
	if err != nil {
		return nil, false, err
	}
	return items, true, nil
}

func (r *Redis) Save(ctx context.Context, sessionID string, items cart.Items) error {
	b, err := encode(items)
	if err != nil {
		return err
	}

	if err := r.rdb.Set(ctx, redisKey(sessionID), b, r.ttl).Err(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, redisKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}
