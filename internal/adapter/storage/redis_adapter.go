package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/marketplace/internal/port"
)

const (
	cartKeyPrefix        = "cart:"
	idempotencyKeyPrefix = "idempotency:"
)

// addToCartScript returns 1 when added, 0 when already present, -1 when full.
var addToCartScript = redis.NewScript(`
local key = KEYS[1]
local item = ARGV[1]
local max = tonumber(ARGV[2])

if redis.call('SISMEMBER', key, item) == 1 then
	return 0
end

if max > 0 and redis.call('SCARD', key) >= max then
	return -1
end

redis.call('SADD', key, item)
return 1
`)

type RedisAdapter struct {
	client         *redis.Client
	idempotencyTTL time.Duration
}

func NewRedisAdapter(client *redis.Client, idempotencyTTL time.Duration) *RedisAdapter {
	return &RedisAdapter{client: client, idempotencyTTL: idempotencyTTL}
}

func (r *RedisAdapter) AddItem(ctx context.Context, userID, itemID string, maxItems int) (port.CartAddResult, error) {
	result, err := addToCartScript.Run(ctx, r.client, []string{cartKeyPrefix + userID}, itemID, maxItems).Int()
	if err != nil {
		return port.CartItemExists, fmt.Errorf("add to cart: %w", err)
	}

	switch result {
	case 1:
		return port.CartItemAdded, nil
	case 0:
		return port.CartItemExists, nil
	default:
		return port.CartFull, nil
	}
}

func (r *RedisAdapter) RemoveItem(ctx context.Context, userID, itemID string) error {
	return r.client.SRem(ctx, cartKeyPrefix+userID, itemID).Err()
}

func (r *RedisAdapter) Clear(ctx context.Context, userID string) error {
	return r.client.Del(ctx, cartKeyPrefix+userID).Err()
}

func (r *RedisAdapter) ItemIDs(ctx context.Context, userID string) ([]string, error) {
	return r.client.SMembers(ctx, cartKeyPrefix+userID).Result()
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, 1, r.idempotencyTTL).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (r *RedisAdapter) DeleteIdempotency(ctx context.Context, key string) error {
	return r.client.Del(ctx, idempotencyKeyPrefix+key).Err()
}
