package database

import (
	"context"
	"log"

	"penaltybox-backend/config"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns nil when Redis is not configured or unreachable;
// token revocation then degrades to a no-op.
func ConnectRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		log.Println("⚠️  REDIS_URL not set, token revocation disabled")
		return nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Println("⚠️  Invalid REDIS_URL, token revocation disabled:", err)
		return nil
	}

	client := redis.NewClient(opts)
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		log.Println("⚠️  Redis not available, token revocation disabled:", err)
		return nil
	}

	log.Println("✅ Redis connected successfully")
	return client
}
