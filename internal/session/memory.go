package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions in a process-local map. Sessions are lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context) (*Session, error) {
	sess, err := newSession(s.now(), s.ttl)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[sess.Token] = *sess
	s.mu.Unlock()

	return sess, nil
}

func (s *MemoryStore) Validate(ctx context.Context, token string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok || !sess.Authenticated {
		return nil, ErrSessionNotFound
	}
	if sess.IsExpiredAt(s.now()) {
		_ = s.Invalidate(ctx, token)
		return nil, ErrSessionExpired
	}
	return &sess, nil
}

func (s *MemoryStore) Invalidate(ctx context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) SweepExpired(ctx context.Context) (int, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for token, sess := range s.sessions {
		if sess.IsExpiredAt(now) {
			delete(s.sessions, token)
			count++
		}
	}
	return count, nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemoryStore) Close() error {
	return nil
}
