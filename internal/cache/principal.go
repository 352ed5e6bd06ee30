package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/premiumbutcher/profile-api/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	// principalCachePrefix is the Redis key prefix for resolved principals.
	principalCachePrefix = "auth:principal:"
	// minPrincipalTTL is the shortest TTL worth writing.
	minPrincipalTTL = time.Second
)

// cachedPrincipal represents a principal stored in Redis.
type cachedPrincipal struct {
	AccountID   string `json:"account_id"`
	ExternalRef string `json:"external_ref"`
	Email       string `json:"email"`
}

// GetPrincipal retrieves a cached principal by token fingerprint.
// Returns nil if not found (cache miss).
func (c *Cache) GetPrincipal(ctx context.Context, fingerprint string) (*model.Principal, error) {
	data, err := c.client.Get(ctx, principalCachePrefix+fingerprint).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get principal: %w", err)
	}

	var cached cachedPrincipal
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}
	if cached.AccountID == "" {
		return nil, nil
	}

	return &model.Principal{
		AccountID:   cached.AccountID,
		ExternalRef: cached.ExternalRef,
		Email:       cached.Email,
	}, nil
}

// SetPrincipal caches a principal under a token fingerprint. The entry never
// outlives the token: ttl is cut to expiresAt when that comes first.
func (c *Cache) SetPrincipal(ctx context.Context, fingerprint string, p *model.Principal, ttl time.Duration, expiresAt time.Time) error {
	ttl = principalTTL(ttl, expiresAt, time.Now())
	if ttl < minPrincipalTTL {
		return nil
	}

	data, err := json.Marshal(cachedPrincipal{
		AccountID:   p.AccountID,
		ExternalRef: p.ExternalRef,
		Email:       p.Email,
	})
	if err != nil {
		return fmt.Errorf("marshal principal: %w", err)
	}

	return c.client.Set(ctx, principalCachePrefix+fingerprint, data, ttl).Err()
}

// DeletePrincipal removes a cached principal.
func (c *Cache) DeletePrincipal(ctx context.Context, fingerprint string) error {
	return c.client.Del(ctx, principalCachePrefix+fingerprint).Err()
}

func principalTTL(ttl time.Duration, expiresAt, now time.Time) time.Duration {
	if expiresAt.IsZero() {
		return ttl
	}
	if remaining := expiresAt.Sub(now); remaining < ttl {
		return remaining
	}
	return ttl
}
