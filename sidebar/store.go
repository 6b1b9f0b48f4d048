package sidebar

import "context"

// Keys used in the client-local store.
const (
	keyCachedAgents = "cached_agents"
	keyToken        = "token"
)

// Store is a client-local key-value store. Values have no expiry; the
// cache layer decides when entries go stale.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// MemoryStore is an in-memory Store for tests and throwaway sessions.
type MemoryStore struct {
	values map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	delete(s.values, key)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
