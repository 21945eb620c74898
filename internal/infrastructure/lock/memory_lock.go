package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLockService is an in-process Service used in tests and single-node
// development runs. Same contract as the Redis implementation.
type MemoryLockService struct {
	mu    sync.Mutex
	locks map[string]memoryEntry
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

func NewMemoryLockService() *MemoryLockService {
	return &MemoryLockService{locks: make(map[string]memoryEntry)}
}

func (s *MemoryLockService) AcquireLock(_ context.Context, key string, ttl time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	fullKey := keyPrefix + key
	now := time.Now()

	if entry, ok := s.locks[fullKey]; ok && entry.expiresAt.After(now) {
		return ""
	}

	token := newToken()
	s.locks[fullKey] = memoryEntry{token: token, expiresAt: now.Add(ttl)}
	return token
}

func (s *MemoryLockService) ReleaseLock(_ context.Context, key string, token string) {
	if token == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fullKey := keyPrefix + key
	if entry, ok := s.locks[fullKey]; ok && entry.token == token {
		delete(s.locks, fullKey)
	}
}
