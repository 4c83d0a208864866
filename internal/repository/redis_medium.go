package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-builder/pkg/storage"
)

// RedisMedium stores each key as a plain Redis string. A single SET replaces
// the value atomically.
type RedisMedium struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisMedium wraps client. prefix namespaces keys and may be empty.
func NewRedisMedium(client *redis.Client, prefix string, logger *zap.Logger) *RedisMedium {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisMedium{client: client, prefix: prefix, logger: logger}
}

// Get retrieves the raw value stored under key.
func (r *RedisMedium) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrKeyNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", r.prefix+key, err)
	}
	return raw, nil
}

// Set stores value under key without expiry.
func (r *RedisMedium) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		r.logger.Error("redis set failed", zap.String("key", r.prefix+key), zap.Error(err))
		return fmt.Errorf("redis set %s: %w", r.prefix+key, err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (r *RedisMedium) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
