package config

import (
	"sync"

	"github.com/redis/go-redis/v9"
)

// SetRedisClientForTest replaces the singleton Redis client. Intended for
// tests that inject a mock client.
func SetRedisClientForTest(client *redis.Client) {
	redisOnce.Do(func() {})
	redisClient = client
}

// ResetRedisClientForTest clears the singleton so the next ConnectRedis call
// re-reads the environment.
func ResetRedisClientForTest() {
	redisClient = nil
	redisOnce = sync.Once{}
}

// ResetConfigForTest clears the memoized configuration so the next LoadConfig
// call re-reads the environment.
func ResetConfigForTest() {
	config = nil
	loadErr = nil
	once = sync.Once{}
}
