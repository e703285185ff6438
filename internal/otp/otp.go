// Package otp keeps short-lived one-time codes such as password reset codes.
package otp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNoCode = errors.New("no code stored")

func key(purpose, subject string) string {
	return fmt.Sprintf("otp_%s_%s", subject, purpose)
}

// RedisStore keeps codes in redis with native expiry.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisStore(client *redis.Client, timeout time.Duration) *RedisStore {
	return &RedisStore{client: client, timeout: timeout}
}

func (s *RedisStore) Set(ctx context.Context, purpose, subject, code string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Set(ctx, key(purpose, subject), code, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, purpose, subject string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	code, err := s.client.Get(ctx, key(purpose, subject)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoCode
	}
	return code, err
}

func (s *RedisStore) Delete(ctx context.Context, purpose, subject string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Del(ctx, key(purpose, subject)).Err()
}

type memoryCode struct {
	code    string
	expires time.Time
}

// MemoryStore is a process-local Store for single-instance and test setups.
type MemoryStore struct {
	mu    sync.Mutex
	codes map[string]memoryCode
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{codes: make(map[string]memoryCode), now: time.Now}
}

func (s *MemoryStore) Set(_ context.Context, purpose, subject, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[key(purpose, subject)] = memoryCode{code: code, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, purpose, subject string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(purpose, subject)
	c, ok := s.codes[k]
	if !ok {
		return "", ErrNoCode
	}
	if !s.now().Before(c.expires) {
		delete(s.codes, k)
		return "", ErrNoCode
	}
	return c.code, nil
}

func (s *MemoryStore) Delete(_ context.Context, purpose, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, key(purpose, subject))
	return nil
}
