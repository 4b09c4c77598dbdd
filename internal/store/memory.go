package store

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps blobs in process memory. Values never expire.
type MemoryStore struct {
	c *cache.Cache
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: cache.New(cache.NoExpiration, 0)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	v, found := m.c.Get(key)
	if !found {
		return "", ErrNotFound
	}
	return v.(string), nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value string) error {
	m.c.Set(key, value, cache.NoExpiration)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}
