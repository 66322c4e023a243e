// Package store provides session persistence interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/seatly/concierge/internal/domain"
)

// ErrSequenceConflict is returned by UpdateSequence when the stored sequence
// number no longer matches the expected value (a concurrent writer won).
var ErrSequenceConflict = errors.New("sequence number does not match expected value")

// Repository defines the interface for persisting session-correlation state.
type Repository interface {
	// GetSession retrieves the session record for a user.
	// Returns (nil, nil) when no record exists.
	GetSession(ctx context.Context, userID string) (*domain.SessionRecord, error)

	// UpsertSession creates or replaces the session record for a user.
	UpsertSession(ctx context.Context, rec *domain.SessionRecord) error

	// UpdateSequence sets the sequence number for a user's session, but only if
	// the current value still equals expected (optimistic locking). Returns
	// ErrSequenceConflict when another writer got there first.
	UpdateSequence(ctx context.Context, userID string, seq, expected int64) error

	// DeleteSession removes the session record for a user. Deleting a missing
	// record is not an error.
	DeleteSession(ctx context.Context, userID string) error

	// Ping verifies store connectivity.
	Ping(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}
