package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/redis/go-redis/v9"
)

// hitScript trims the window, then records the request only while the count is under the limit.
// Returns {1, 0} when recorded and {0, oldestMillis} when refused.
var hitScript = redis.NewScript(`
local key = KEYS[1]
local floor = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local window = tonumber(ARGV[5])

redis.call('ZREMRANGEBYSCORE', key, '-inf', floor)
if redis.call('ZCARD', key) < limit then
  redis.call('ZADD', key, now, ARGV[4])
  redis.call('PEXPIRE', key, window)
  return {1, 0}
end
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if #oldest == 0 then
  return {0, now}
end
return {0, tonumber(oldest[2])}
`)

// RateLimitStore keeps request timestamps (unix millis) per key in a sorted set and counts them over a sliding window.
type RateLimitStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRateLimitStore constructs a store; keys are namespaced with keyPrefix.
func NewRateLimitStore(client *redis.Client, keyPrefix string) *RateLimitStore {
	return &RateLimitStore{client: client, keyPrefix: keyPrefix}
}

// Hit records one request for key unless limit requests already fall inside the window ending at now.
// When the request is refused it returns the time until the oldest request leaves the window.
// The check and the record run as one script, so concurrent callers cannot overshoot the limit.
func (s *RateLimitStore) Hit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (bool, time.Duration, error) {
	if limit <= 0 || window <= 0 {
		return true, 0, nil
	}
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.Must(uuid.NewV4()).String()
	res, err := hitScript.Run(ctx, s.client, []string{s.key(key)},
		now.Add(-window).UnixMilli(), limit, now.UnixMilli(), member, window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("redis hit: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("redis hit: unexpected reply %v", res)
	}
	if res[0] == 1 {
		return true, 0, nil
	}
	retry := time.UnixMilli(res[1]).Add(window).Sub(now)
	if retry < 0 {
		retry = 0
	}
	return false, retry, nil
}

func (s *RateLimitStore) key(k string) string {
	if s.keyPrefix == "" {
		return k
	}
	return s.keyPrefix + ":" + k
}
