package storage

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/go-redis/redis/v8"
)

var Redis *redis.Client

// InitializeRedis connects the shared client. REDIS_URL accepts either a
// redis:// URL or a bare host:port; with neither set it falls back to a
// local instance for development.
func InitializeRedis() {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "localhost:6379"
		log.Println("REDIS_URL not set, using localhost:6379 (development mode)")
	}

	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Panic("invalid REDIS_URL: " + err.Error())
		}
		Redis = redis.NewClient(opts)
	} else {
		Redis = redis.NewClient(&redis.Options{
			Addr: redisURL,
			DB:   0,
		})
	}

	if err := Redis.Ping(context.Background()).Err(); err != nil {
		log.Println("Warning: Redis ping failed:", err)
	}
	log.Println("Redis initialized with address:", redisURL)
}
