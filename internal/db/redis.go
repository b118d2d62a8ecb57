package db

import (
	"github.com/redis/go-redis/v9"

	"driver-parkmate/internal/config"
)

// ConnectRedis returns nil when no address is configured; the agent then
// runs without the last-known lot cache and without cross-instance fanout.
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}
