package store

import (
	"context"
	"sync"
	"time"

	"github.com/seatly/concierge/internal/domain"
)

// MemoryStore implements Repository with an in-process map. Intended for
// tests and local development; state does not survive a restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.SessionRecord
}

// NewMemory creates an in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*domain.SessionRecord)}
}

// GetSession retrieves the session record for a user.
func (s *MemoryStore) GetSession(_ context.Context, userID string) (*domain.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	if rec.Pending != nil {
		pending := *rec.Pending
		cp.Pending = &pending
	}
	return &cp, nil
}

// UpsertSession creates or replaces the session record for a user.
func (s *MemoryStore) UpsertSession(_ context.Context, rec *domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	cp := *rec
	if cp.CreatedAt.IsZero() {
		if existing, ok := s.sessions[rec.UserID]; ok {
			cp.CreatedAt = existing.CreatedAt
		} else {
			cp.CreatedAt = now
		}
	}
	cp.UpdatedAt = now
	if rec.Pending != nil {
		pending := *rec.Pending
		cp.Pending = &pending
	}
	s.sessions[rec.UserID] = &cp
	return nil
}

// UpdateSequence sets the sequence number if the stored value still matches
// expected.
func (s *MemoryStore) UpdateSequence(_ context.Context, userID string, seq, expected int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[userID]
	if !ok || rec.SequenceNumber != expected {
		return ErrSequenceConflict
	}
	rec.SequenceNumber = seq
	rec.UpdatedAt = time.Now()
	return nil
}

// DeleteSession removes the session record for a user.
func (s *MemoryStore) DeleteSession(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
