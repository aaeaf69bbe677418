package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// incrementScript 原子地计数并设置窗口过期时间
const incrementScript = `
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
    ttl = tonumber(ARGV[1])
end
return {count, ttl}
`

// RedisStore shares counters between replicas through Redis
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	script *redis.Script
	now    func() time.Time
}

// NewRedisStore creates a store; keys are namespaced with prefix
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		script: redis.NewScript(incrementScript),
		now:    time.Now,
	}
}

// Increment implements Store
func (s *RedisStore) Increment(ctx context.Context, key string, length time.Duration) (int, time.Time, error) {
	res, err := s.script.Run(ctx, s.client, []string{s.prefix + key}, length.Milliseconds()).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("rate limit script: %w", err)
	}

	arr, ok := res.([]interface{})
	if !ok || len(arr) != 2 {
		return 0, time.Time{}, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}
	count, ok1 := arr[0].(int64)
	ttl, ok2 := arr[1].(int64)
	if !ok1 || !ok2 {
		return 0, time.Time{}, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}

	return int(count), s.now().Add(time.Duration(ttl) * time.Millisecond), nil
}

// NewRedisClient connects and pings
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
