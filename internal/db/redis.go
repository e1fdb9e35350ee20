package db

import (
	"github.com/redis/go-redis/v9"

	"github.com/icalado/geo-snap-pro/internal/config"
)

// ConnectRedis is optional: an empty address means no cross-host stream
// mirroring, which is the common single-device setup.
func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}
