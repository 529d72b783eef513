package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	payload   []byte
	expiresAt time.Time
}

// Store is an in-process cache with per-entry TTL. Expired entries are
// removed when they are next read; there is no background sweeper.
type Store struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration
	now        func() time.Time
}

func NewStore(defaultTTL time.Duration) *Store {
	return &Store{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for expiry.
func (s *Store) WithClock(now func() time.Time) *Store {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, nil
	}

	now := s.now()
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !e.expiresAt.After(now) {
		s.mu.Lock()
		if current, still := s.entries[key]; still && current.expiresAt.Equal(e.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}

	return e.payload, true, nil
}

// Set stores a private copy of payload. A non-positive ttl falls back to the
// store default; when both are zero the entry never expires.
func (s *Store) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	if key == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	expiresAt := time.Time{}
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry{
		payload:   append([]byte(nil), payload...),
		expiresAt: expiresAt,
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) DeletePrefix(_ context.Context, prefix string) error {
	if prefix == "" {
		return nil
	}

	s.mu.Lock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
