package config

import (
	"context"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// ConnectRedis initializes a singleton Redis client from REDIS_ADDR,
// REDIS_PASS and REDIS_DB. Redis is optional: when REDIS_ADDR is unset, or in
// the test environment, no client is created and callers fall back to
// in-process rate limiting. A client that fails the initial ping is discarded
// for the same reason.
func ConnectRedis() *redis.Client {
	redisOnce.Do(func() {
		if cfg, err := LoadConfig(); err == nil && cfg.AppEnv == "test" {
			return
		}

		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			return
		}

		db := 0
		if raw := os.Getenv("REDIS_DB"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				log.Printf("invalid REDIS_DB=%q, using 0", raw)
			} else {
				db = parsed
			}
		}

		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASS"),
			DB:       db,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("redis %s unreachable, falling back to in-process rate limiting: %v", addr, err)
			_ = client.Close()
			return
		}

		log.Printf("connected to redis at %s", addr)
		redisClient = client
	})
	return redisClient
}

// GetRedisClient returns the singleton client, or nil when Redis is disabled.
func GetRedisClient() *redis.Client {
	return redisClient
}
