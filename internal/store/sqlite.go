package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/seatly/concierge/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		user_id TEXT PRIMARY KEY,
		session_handle TEXT NOT NULL,
		sequence_number INTEGER NOT NULL DEFAULT 1,
		pending_json TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetSession retrieves the session record for a user.
func (s *SQLiteStore) GetSession(ctx context.Context, userID string) (*domain.SessionRecord, error) {
	query := `
		SELECT user_id, session_handle, sequence_number, pending_json, created_at, updated_at
		FROM sessions WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var rec domain.SessionRecord
	var pendingJSON sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(
		&rec.UserID, &rec.SessionHandle, &rec.SequenceNumber,
		&pendingJSON, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	if pendingJSON.Valid && pendingJSON.String != "" {
		var pending domain.PendingConfirmation
		if err := json.Unmarshal([]byte(pendingJSON.String), &pending); err != nil {
			// A malformed pending record should not brick the session; drop it.
			slog.Warn("discarding malformed pending confirmation", "user_id", userID, "error", err)
		} else {
			rec.Pending = &pending
		}
	}

	rec.CreatedAt = time.Unix(createdAt, 0)
	rec.UpdatedAt = time.Unix(updatedAt, 0)

	return &rec, nil
}

// UpsertSession creates or replaces the session record for a user.
func (s *SQLiteStore) UpsertSession(ctx context.Context, rec *domain.SessionRecord) error {
	query := `
	INSERT INTO sessions (user_id, session_handle, sequence_number, pending_json, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		session_handle = excluded.session_handle,
		sequence_number = excluded.sequence_number,
		pending_json = excluded.pending_json,
		updated_at = excluded.updated_at`

	var pendingJSON interface{}
	if rec.Pending != nil {
		data, err := json.Marshal(rec.Pending)
		if err != nil {
			return fmt.Errorf("marshal pending confirmation: %w", err)
		}
		pendingJSON = string(data)
	}

	now := time.Now()
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := s.db.ExecContext(ctx, query,
		rec.UserID, rec.SessionHandle, rec.SequenceNumber,
		pendingJSON, createdAt.Unix(), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// UpdateSequence sets the sequence number if the stored value still matches
// expected.
func (s *SQLiteStore) UpdateSequence(ctx context.Context, userID string, seq, expected int64) error {
	query := `
		UPDATE sessions SET sequence_number = ?, updated_at = ?
		WHERE user_id = ? AND sequence_number = ?`

	result, err := s.db.ExecContext(ctx, query, seq, time.Now().Unix(), userID, expected)
	if err != nil {
		return fmt.Errorf("update sequence: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateSequence affected 0 rows", "user_id", userID, "expected", expected)
		return ErrSequenceConflict
	}
	return nil
}

// DeleteSession removes the session record for a user.
func (s *SQLiteStore) DeleteSession(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
