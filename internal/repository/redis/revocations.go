package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/lkimdaryl/foodjournal-backend/internal/core/port"
)

const defaultRevokedPrefix = "sessions:revoked"

// RevocationCache keeps revoked JTIs in Redis for hot-path validation checks.
// Keys expire with the token itself, so the cache never outlives the denylist
// entry it mirrors. The durable store stays the source of truth.
type RevocationCache struct {
	client *red.Client
	prefix string
}

// NewRevocationCache wires a Redis client into a revocation cache.
func NewRevocationCache(client *red.Client, keyPrefix string) *RevocationCache {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultRevokedPrefix
	}

	return &RevocationCache{client: client, prefix: prefix}
}

// MarkRevoked stores the supplied JTI with reason and TTL matching the
// token's remaining lifetime.
func (c *RevocationCache) MarkRevoked(ctx context.Context, jti string, reason string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	key := c.key(jti)
	if key == "" {
		return errors.New("jti must not be empty")
	}

	if err := c.client.Set(ctx, key, reason, ttl).Err(); err != nil {
		return fmt.Errorf("redis set revoked jti: %w", err)
	}

	return nil
}

// IsRevoked reports whether the JTI has been revoked and returns the stored
// reason when present.
func (c *RevocationCache) IsRevoked(ctx context.Context, jti string) (bool, string, error) {
	key := c.key(jti)
	if key == "" {
		return false, "", errors.New("jti must not be empty")
	}

	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("redis get revoked jti: %w", err)
	}

	return true, value, nil
}

func (c *RevocationCache) key(jti string) string {
	trimmed := strings.TrimSpace(jti)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", c.prefix, trimmed)
}

var _ port.RevocationCache = (*RevocationCache)(nil)
