package cache

import (
	"context"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

// RateLimitResult contains the result of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

// bucket describes one family of token buckets in Redis.
type bucket struct {
	prefix string
	// rate is the refill rate in tokens per second.
	rate  float64
	burst int
	// idle is how long an untouched bucket is kept. It must cover a full
	// refill from empty, otherwise an expired bucket restarts full early.
	idle time.Duration
}

func (b bucket) key(subject string) string {
	return b.prefix + subject
}

// accountBucket limits authenticated API calls per account.
func accountBucket(ratePerMinute, burst int) bucket {
	return bucket{
		prefix: "ratelimit:account:",
		rate:   float64(ratePerMinute) / 60,
		burst:  burst,
		idle:   refillWindow(float64(ratePerMinute)/60, burst, 2*time.Minute),
	}
}

// ipBucket limits API traffic per client address before authentication.
func ipBucket(ratePerSecond, burst int) bucket {
	return bucket{
		prefix: "ratelimit:ip:",
		rate:   float64(ratePerSecond),
		burst:  burst,
		idle:   refillWindow(float64(ratePerSecond), burst, 10*time.Second),
	}
}

// refillWindow returns the time an empty bucket needs to fill up, but at
// least floor.
func refillWindow(rate float64, burst int, floor time.Duration) time.Duration {
	if rate <= 0 {
		return floor
	}
	full := time.Duration(math.Ceil(float64(burst)/rate)) * time.Second
	return max(full, floor)
}

// tokenBucketScript refills and consumes one token atomically.
// Returns {allowed, retry_after_ms, remaining}.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])
	local burst = tonumber(ARGV[2])
	local now_ms = tonumber(ARGV[3])
	local idle_ms = tonumber(ARGV[4])

	local state = redis.call('HMGET', key, 'tokens', 'ts')
	local tokens = tonumber(state[1]) or burst
	local ts = tonumber(state[2]) or now_ms

	local elapsed = math.max(0, now_ms - ts) / 1000
	tokens = math.min(burst, tokens + elapsed * rate)

	local allowed = 0
	local retry_ms = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	else
		retry_ms = math.ceil((1 - tokens) / rate * 1000)
	end

	redis.call('HSET', key, 'tokens', tokens, 'ts', now_ms)
	redis.call('PEXPIRE', key, idle_ms)

	return {allowed, retry_ms, math.floor(tokens)}
`)

// CheckAccountRateLimit consumes one token from the account's bucket.
// A zero rate disables the limit.
func (c *Cache) CheckAccountRateLimit(ctx context.Context, accountID string, ratePerMinute, burst int) (*RateLimitResult, error) {
	if ratePerMinute <= 0 {
		return unlimited(burst), nil
	}
	return c.take(ctx, accountBucket(ratePerMinute, burst), accountID)
}

// CheckIPRateLimit consumes one token from the client address's bucket.
// Addresses are stored hashed.
func (c *Cache) CheckIPRateLimit(ctx context.Context, ip string, ratePerSecond, burst int) (*RateLimitResult, error) {
	if ratePerSecond <= 0 {
		return unlimited(burst), nil
	}
	return c.take(ctx, ipBucket(ratePerSecond, burst), hashIP(ip))
}

// take runs the token bucket script. On Redis errors the request is
// allowed and the error is returned for logging.
func (c *Cache) take(ctx context.Context, b bucket, subject string) (*RateLimitResult, error) {
	now := time.Now()

	res, err := tokenBucketScript.Run(ctx, c.client,
		[]string{b.key(subject)},
		b.rate, b.burst, now.UnixMilli(), b.idle.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return unlimited(b.burst), fmt.Errorf("rate limit script: %w", err)
	}
	if len(res) != 3 {
		return unlimited(b.burst), fmt.Errorf("rate limit script: unexpected reply %v", res)
	}

	retryAfter := time.Duration(res[1]) * time.Millisecond
	resetAt := now.Add(time.Duration(float64(time.Second) / b.rate))
	if retryAfter > 0 {
		resetAt = now.Add(retryAfter)
	}

	return &RateLimitResult{
		Allowed:    res[0] == 1,
		Remaining:  res[2],
		ResetAt:    resetAt,
		RetryAfter: retryAfter,
	}, nil
}

func unlimited(burst int) *RateLimitResult {
	return &RateLimitResult{
		Allowed:   true,
		Remaining: int64(burst),
		ResetAt:   time.Now().Add(time.Minute),
	}
}

// hashIP returns the first 8 bytes of the address's blake2b-256 digest
// as hex.
func hashIP(ip string) string {
	sum := blake2b.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:8])
}
