package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/layer-3/casque/core"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis implementation of the SessionStore interface
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a new Redis store. Slots expire ttl after their last write.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "casque:attempt:",
		ttl:    ttl,
	}
}

func (s *RedisStore) key(contextID, key string) string {
	return s.prefix + contextID + ":" + key
}

// Get returns the value of a slot
func (s *RedisStore) Get(ctx context.Context, contextID, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(contextID, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrSlotNotFound
		}
		return nil, fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}
	return value, nil
}

// Set stores a slot with expiration, or deletes it when value is empty
func (s *RedisStore) Set(ctx context.Context, contextID, key string, value []byte) error {
	k := s.key(contextID, key)

	var err error
	if len(value) == 0 {
		err = s.client.Del(ctx, k).Err()
	} else {
		err = s.client.Set(ctx, k, value, s.ttl).Err()
	}
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}

	return nil
}

// Take returns the value of a slot and deletes it atomically
func (s *RedisStore) Take(ctx context.Context, contextID, key string) ([]byte, error) {
	value, err := s.client.GetDel(ctx, s.key(contextID, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrSlotNotFound
		}
		return nil, fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}
	return value, nil
}
