// Package limiter provides windowed counters backed by Redis or memory.
// They serve two jobs: request rate limiting on the OTP endpoints, and the
// per-phone resend cooldown of the login flow.
package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (int, error)
	GetCount(ctx context.Context, key string) (int, error)
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	pipe := s.client.Pipeline()

	incr := pipe.Incr(ctx, key)

	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return int(incr.Val()), nil
}

func (s *RedisStore) GetCount(ctx context.Context, key string) (int, error) {
	count, err := s.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return 0, nil
	}
	return count, err
}

type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]*entry
}

type entry struct {
	count     int
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		store: make(map[string]*entry),
	}
}

func (s *MemoryStore) Increment(ctx context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, e := range s.store {
		if now.After(e.expiresAt) {
			delete(s.store, k)
		}
	}

	e, exists := s.store[key]
	if !exists {
		e = &entry{
			count:     0,
			expiresAt: now.Add(window),
		}
		s.store[key] = e
	}

	e.count++
	return e.count, nil
}

func (s *MemoryStore) GetCount(ctx context.Context, key string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.store[key]
	if !exists {
		return 0, nil
	}

	if time.Now().After(e.expiresAt) {
		return 0, nil
	}

	return e.count, nil
}

// Cooldown gates OTP resends: Start opens a window for a key, Active reports
// whether one is still open.
type Cooldown struct {
	store  Store
	window time.Duration
}

func NewCooldown(store Store, window time.Duration) *Cooldown {
	return &Cooldown{store: store, window: window}
}

func cooldownKey(key string) string {
	return "otp_cooldown:" + key
}

func (c *Cooldown) Start(ctx context.Context, key string) error {
	_, err := c.store.Increment(ctx, cooldownKey(key), c.window)
	return err
}

func (c *Cooldown) Active(ctx context.Context, key string) (bool, error) {
	count, err := c.store.GetCount(ctx, cooldownKey(key))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
