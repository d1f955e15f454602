package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "zen:idempotency:"
	pendingValue   = "pending"
)

// RedisStore is a Store shared by every server instance. A claim is a
// SET NX with a short expiry; the finished record replaces it with the
// full ttl.
type RedisStore struct {
	client     redis.UniversalClient
	ttl        time.Duration
	pendingTTL time.Duration
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(client redis.UniversalClient, ttl, pendingTTL time.Duration) *RedisStore {
	if pendingTTL <= 0 {
		pendingTTL = DefaultPendingTTL
	}
	return &RedisStore{client: client, ttl: ttl, pendingTTL: pendingTTL}
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}

// Begin implements Store.
func (s *RedisStore) Begin(ctx context.Context, key string) (*Record, error) {
	// The key can expire between SETNX and GET, so try twice.
	for range 2 {
		claimed, err := s.client.SetNX(ctx, redisKey(key), pendingValue, s.pendingTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("claim idempotency key: %w", err)
		}
		if claimed {
			return nil, nil
		}

		val, err := s.client.Get(ctx, redisKey(key)).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get idempotency key: %w", err)
		}
		if val == pendingValue {
			return nil, ErrInProgress
		}

		var rec Record
		if err := json.Unmarshal([]byte(val), &rec); err != nil {
			return nil, fmt.Errorf("decode idempotency record: %w", err)
		}
		return &rec, nil
	}
	return nil, ErrInProgress
}

// Finish implements Store.
func (s *RedisStore) Finish(ctx context.Context, key string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode idempotency record: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store idempotency record: %w", err)
	}
	return nil
}

// Abort implements Store. Only a pending claim is removed.
func (s *RedisStore) Abort(ctx context.Context, key string) error {
	val, err := s.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get idempotency key: %w", err)
	}
	if val != pendingValue {
		return nil
	}
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
