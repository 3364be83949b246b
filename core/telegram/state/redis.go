package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces session keys.
const DefaultKeyPrefix = "shopbot:session:"

// RedisStore keeps JSON-encoded sessions in redis. A zero TTL stores keys without expiry.
type RedisStore[S any] struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisStore builds a store on client. An empty prefix selects DefaultKeyPrefix.
func NewRedisStore[S any](client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore[S] {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisStore[S]{client: client, prefix: prefix, ttl: ttl}
}

// Key returns the redis key for userID.
func (r *RedisStore[S]) Key(userID int64) string {
	return r.prefix + strconv.FormatInt(userID, 10)
}

// Get loads the session for userID.
func (r *RedisStore[S]) Get(ctx context.Context, userID int64) (S, bool, error) {
	var s S
	data, err := r.client.Get(ctx, r.Key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return s, false, nil
	}
	if err != nil {
		return s, false, fmt.Errorf("state: redis get: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, false, fmt.Errorf("%w: %v", ErrCodec, err)
	}
	return s, true, nil
}

// Put stores s and refreshes the key expiry.
func (r *RedisStore[S]) Put(ctx context.Context, userID int64, s S) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCodec, err)
	}
	if err := r.client.Set(ctx, r.Key(userID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("state: redis set: %w", err)
	}
	return nil
}

// Delete removes the session for userID.
func (r *RedisStore[S]) Delete(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, r.Key(userID)).Err(); err != nil {
		return fmt.Errorf("state: redis del: %w", err)
	}
	return nil
}
