package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/emr-assistant/internal/repository"
)

// MemoryStore keeps session context in a process-local TTL cache.
type MemoryStore struct {
	cache *cache.Cache
	ttl   time.Duration
}

var _ repository.SessionRepository = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (s *MemoryStore) GetContext(ctx context.Context, sessionID string) (string, error) {
	v, ok := s.cache.Get(sessionID)
	if !ok {
		return "", nil
	}
	str, _ := v.(string)
	return str, nil
}

func (s *MemoryStore) SetContext(ctx context.Context, sessionID, value string) error {
	s.cache.Set(sessionID, value, s.ttl)
	return nil
}
