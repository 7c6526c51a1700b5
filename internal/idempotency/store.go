// Package idempotency keeps destructive admin actions from running twice
// when a form is resubmitted or double-clicked.
package idempotency

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store records claimed tokens. Implementations must be safe for
// concurrent use.
type Store interface {
	// Claim marks token as used. It returns false if the token was already
	// claimed and has not expired.
	Claim(ctx context.Context, token string) (bool, error)
	// Release forgets token so it can be claimed again.
	Release(ctx context.Context, token string) error
}

// MemoryStore is an in-process Store. Entries expire after the TTL; Claim
// drops expired entries at most once per TTL.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]time.Time
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// NewMemoryStore creates a MemoryStore whose tokens live for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Claim implements Store.
func (s *MemoryStore) Claim(_ context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.ttl {
		s.sweep(now)
	}
	if ts, ok := s.entries[token]; ok && now.Sub(ts) <= s.ttl {
		return false, nil
	}
	s.entries[token] = now
	return true, nil
}

func (s *MemoryStore) sweep(now time.Time) {
	for token, ts := range s.entries {
		if now.Sub(ts) > s.ttl {
			delete(s.entries, token)
		}
	}
	s.lastSweep = now
}

// Release implements Store.
func (s *MemoryStore) Release(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.entries, token)
	s.mu.Unlock()
	return nil
}

// Len returns the number of entries, including expired ones not yet
// cleaned up.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

const keyPrefix = "brandadmin:idem:"

// RedisStore is a Store shared between replicas.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore whose tokens live for ttl.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Claim implements Store.
func (s *RedisStore) Claim(ctx context.Context, token string) (bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+token, time.Now().UTC().Format(time.RFC3339), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis claim token: %w", err)
	}
	return ok, nil
}

// Release implements Store.
func (s *RedisStore) Release(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("redis release token: %w", err)
	}
	return nil
}
