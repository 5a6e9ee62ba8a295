package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript increments the window counter, starting the expiry on the first
// hit, and returns the count and remaining TTL in milliseconds.
var incrScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// Redis is a fixed-window limiter shared through Redis.
type Redis struct {
	client redis.UniversalClient
	prefix string
	limit  int
	period time.Duration
	now    func() time.Time
}

// NewRedis connects to redisURL and verifies it with a ping.
func NewRedis(redisURL, prefix string, limit int, period time.Duration) (*Redis, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url is empty")
	}
	if prefix == "" {
		prefix = "motion-engine:ratelimit"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Redis{client: client, prefix: prefix, limit: limit, period: period, now: time.Now}, nil
}

func (r *Redis) Allow(ctx context.Context, key string) (Result, error) {
	vals, err := incrScript.Run(ctx, r.client, []string{r.prefix + ":" + key}, r.period.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("redis rate limit: %w", err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("redis rate limit: unexpected reply %v", vals)
	}
	count, ttl := int(vals[0]), time.Duration(vals[1])*time.Millisecond
	res := Result{ResetAt: r.now().Add(ttl)}
	if count > r.limit {
		return res, nil
	}
	res.Allowed = true
	res.Remaining = r.limit - count
	return res, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
