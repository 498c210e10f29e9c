package redis

import (
	"context"
	"time"

	"wisefido-sleep-dashboard/common/config"

	"github.com/go-redis/redis/v8"
)

// Client alias so callers don't need to import go-redis directly
type Client = redis.Client

// NewRedisClient builds a client from cfg. It does not dial.
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
}

// Ping checks the connection.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}

// Close closes client if it is non-nil.
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
