// Package redisstore implements kv.Store on top of Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/oshokin/still-alive/internal/repository/kv"
)

// defaultPrefix namespaces keys so the monitor can share a Redis database.
const defaultPrefix = "still-alive:"

// Store keeps values as plain Redis strings without expiry.
type Store struct {
	client *redis.Client
	prefix string
}

// Options configures the Redis connection.
type Options struct {
	Address  string
	Password string
	DB       int
	// Prefix overrides the key namespace.
	Prefix string
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, opts Options) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("ping redis: %w", err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}

	return &Store{
		client: client,
		prefix: prefix,
	}, nil
}

// Get returns the value under key or kv.ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, kv.ErrNotFound
		}

		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	return value, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
