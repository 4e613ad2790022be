package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/rant/internal/kv"
)

const (
	// DefaultProfileTTL is the sliding TTL of profile keys (one year).
	// Every read and write renews it, so only keys left untouched for a
	// whole TTL are reclaimed.
	DefaultProfileTTL = 365 * 24 * time.Hour
)

// Store implements kv.Store on top of Redis.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

var _ kv.Store = (*Store)(nil)

// NewStore creates a new Redis-backed profile store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		ttl:    DefaultProfileTTL,
	}
}

// WithTTL sets the sliding TTL of profile keys. Non-positive values keep
// the default.
func (s *Store) WithTTL(ttl time.Duration) *Store {
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// Get reads a key and renews its TTL, returning kv.ErrNotFound on a miss.
// A profile in use never expires.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.GetEx(ctx, ProfileKey(key), s.ttl).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", kv.ErrNotFound
		}
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return val, nil
}

// Set replaces the whole value of a key in one write
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, ProfileKey(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// SetNX stores value only when key is absent
func (s *Store) SetNX(ctx context.Context, key, value string) (bool, error) {
	ok, err := s.client.SetNX(ctx, ProfileKey(key), value, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to setnx %s: %w", key, err)
	}
	return ok, nil
}

// Delete removes a key
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, ProfileKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// CountProfiles counts stored identity keys
func (s *Store) CountProfiles(ctx context.Context) (int, error) {
	count := 0
	iter := s.client.Scan(ctx, 0, KeyPrefixProfile+"*:"+kv.KeyIdentity, 0).Iterator()
	for iter.Next(ctx) {
		if _, err := ExtractKey(iter.Val()); err == nil {
			count++
		}
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return count, nil
}
