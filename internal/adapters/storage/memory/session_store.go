package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/PabloGalante/chatpro/internal/domain"
)

// SessionStore is an in-memory domain.SessionStore.
// It is NOT persistent and is only suitable for development / local mode.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[domain.SessionID]*domain.Session),
	}
}

func (s *SessionStore) ListSessions(ctx context.Context) ([]domain.SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SessionSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Summary())
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *SessionStore) GetSession(ctx context.Context, id domain.SessionID) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("memory GetSession %s: %w", id, domain.ErrSessionNotFound)
	}

	// Callers mutate what they get back; hand out a copy.
	return sess.Clone(), nil
}

func (s *SessionStore) SaveSession(ctx context.Context, session *domain.Session) error {
	if session == nil {
		return fmt.Errorf("memory SaveSession: nil session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("memory DeleteSession %s: %w", id, domain.ErrSessionNotFound)
	}
	delete(s.sessions, id)
	return nil
}

func (s *SessionStore) Close() error { return nil }
