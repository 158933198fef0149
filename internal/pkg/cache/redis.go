package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Get returns "" without error when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	// IncrAtLeast atomically sets the integer at key to max(current+1, floor)
	// and returns it. A missing key counts as 0.
	IncrAtLeast(ctx context.Context, key string, floor int64) (int64, error)
	GenerateKey(operation, key string) string
}

type redisCache struct {
	client      *redis.Client
	serviceName string
}

func NewRedisCache(addr, serviceName string) Cache {
	return &redisCache{
		client:      redis.NewClient(&redis.Options{Addr: addr}),
		serviceName: serviceName,
	}
}

func (r redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}

	if err != nil {
		return "", err
	}

	return val, nil
}

var incrAtLeast = redis.NewScript(`
local n = tonumber(redis.call("GET", KEYS[1]) or "0") + 1
local floor = tonumber(ARGV[1])
if n < floor then n = floor end
redis.call("SET", KEYS[1], n)
return n
`)

func (r redisCache) IncrAtLeast(ctx context.Context, key string, floor int64) (int64, error) {
	return incrAtLeast.Run(ctx, r.client, []string{key}, floor).Int64()
}

func (r redisCache) GenerateKey(operation, key string) string {
	return fmt.Sprintf("%s:%s:%s", r.serviceName, operation, key)
}

// Ping checks the connection; used at startup.
func Ping(ctx context.Context, c Cache) error {
	rc, ok := c.(*redisCache)
	if !ok {
		return nil
	}
	return rc.client.Ping(ctx).Err()
}
