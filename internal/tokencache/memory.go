package tokencache

import (
	"context"
	"slices"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryStore keeps blobs in process memory. Nothing survives a restart.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore creates a MemoryStore. A zero ttl keeps entries until deleted.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &MemoryStore{c: gocache.New(ttl, time.Minute)}
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context, key string) ([]byte, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	b, _ := v.([]byte)
	return slices.Clone(b), nil
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, key string, blob []byte) error {
	s.c.Set(key, slices.Clone(blob), gocache.DefaultExpiration)
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.c.Delete(key)
	return nil
}

// Backend implements Store.
func (s *MemoryStore) Backend() string {
	return BackendMemory
}
