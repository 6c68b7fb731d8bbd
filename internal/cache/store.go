package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store is a shared byte cache keyed by string. It backs the per-user view
// cache and can also hold offline blobs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// LocalStore is a process-local Store on top of LRUCache.
type LocalStore struct {
	lru *LRUCache[[]byte]
}

func NewLocalStore(maxSize int, ttl time.Duration) *LocalStore {
	return &LocalStore{lru: NewLRUCache[[]byte](maxSize, ttl)}
}

func (s *LocalStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.lru.Get(key)
	return v, ok, nil
}

func (s *LocalStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.lru.SetWithTTL(key, append([]byte(nil), value...), ttl)
	return nil
}

func (s *LocalStore) DeletePrefix(_ context.Context, prefix string) error {
	s.lru.DeletePrefix(prefix)
	return nil
}

// Len reports the number of entries, expired ones included.
func (s *LocalStore) Len() int { return s.lru.Size() }

// CleanExpired lets a Manager sweep the store.
func (s *LocalStore) CleanExpired() int { return s.lru.CleanExpired() }

// GetJSON decodes the cached value of key into v. A miss or an undecodable
// value reports false.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	data, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	return s.Set(ctx, key, data, ttl)
}
