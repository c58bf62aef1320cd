package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lotbajar/social/pkg/logger"
	"github.com/lotbajar/social/pkg/utils"
	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	*redis.Client
}

// NewRedis initializes a Redis client with context.
func NewRedis(ctx context.Context, addr, password string) (*RedisClient, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.WrapError(err, utils.ErrInternalServerError.Code, "redis initialization canceled")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, utils.NewError(utils.ErrInternalServerError.Code, "Failed to connect to Redis", err.Error())
	}

	return &RedisClient{client}, nil
}

// Close shuts down the Redis connection.
func (r *RedisClient) Close(log *logger.Logger) error {
	if err := r.Client.Close(); err != nil {
		log.Error(context.Background()).WithMeta(map[string]string{"error": err.Error()}).Logs("Redis close failed")
		return utils.NewError(utils.ErrInternalServerError.Code, "Failed to close Redis", err.Error())
	}
	log.Info(context.Background()).Logs("Redis connection closed successfully")
	return nil
}

// CacheJSON marshals v and stores it under key. A nil client is a no-op so the
// model layer stays usable without a cache (tests, one-off scripts).
func CacheJSON(ctx context.Context, r *RedisClient, key string, v interface{}, ttl time.Duration) {
	if r == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	r.Set(ctx, key, data, ttl)
}

// FetchJSON loads key into out, reporting whether a valid cached value existed.
func FetchJSON(ctx context.Context, r *RedisClient, key string, out interface{}) bool {
	if r == nil {
		return false
	}
	data, err := r.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(data), out) == nil
}

// Invalidate drops keys from the cache. Nil-safe like CacheJSON.
func Invalidate(ctx context.Context, r *RedisClient, keys ...string) {
	if r == nil || len(keys) == 0 {
		return
	}
	r.Del(ctx, keys...)
}
