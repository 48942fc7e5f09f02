package remote

import (
	"context"
	"strings"
	"sync"

	"github.com/dmitrijs2005/mediasync/internal/common"
)

// MemoryStore is an in-memory ObjectStore used in tests and in the local
// development flow where no S3 endpoint is available.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// FailPuts makes every Put fail while > 0, decrementing per call.
	// Lets tests exercise the master-index write retry.
	FailPuts int

	// FailGets makes Get fail with the mapped error for specific keys,
	// simulating an unreachable store rather than an absent object.
	FailGets map[string]error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err, ok := s.FailGets[key]; ok {
		return nil, err
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPuts > 0 {
		s.FailPuts--
		return common.ErrInternal
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[key] = stored
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
