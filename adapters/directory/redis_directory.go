package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisDirectory reads user claims from one Redis hash per user, keyed by claim URI
type RedisDirectory struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisDirectory creates a directory backed by Redis
func NewRedisDirectory(client redis.UniversalClient) *RedisDirectory {
	return &RedisDirectory{
		client: client,
		prefix: "casque:claims:",
	}
}

// GetClaim implements ports.Directory
func (d *RedisDirectory) GetClaim(ctx context.Context, username, claimURI string) (string, bool, error) {
	value, err := d.client.HGet(ctx, d.prefix+username, claimURI).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read claim: %w", err)
	}
	return value, true, nil
}

// SetClaim assigns a claim value to a user
func (d *RedisDirectory) SetClaim(ctx context.Context, username, claimURI, value string) error {
	if err := d.client.HSet(ctx, d.prefix+username, claimURI, value).Err(); err != nil {
		return fmt.Errorf("failed to write claim: %w", err)
	}
	return nil
}
