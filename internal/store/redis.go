package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/seatly/concierge/internal/domain"
)

// sessionKeyPrefix namespaces session records in the shared keyspace.
const sessionKeyPrefix = "session:"

// defaultSessionTTL bounds how long an idle session record survives. The
// agent backend expires conversations well before this; the TTL only keeps
// abandoned rows from accumulating.
const defaultSessionTTL = 24 * time.Hour

// RedisStore implements Repository on a managed Redis instance.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis creates a Redis-backed repository from a redis:// URL.
func NewRedis(redisURL string) (Repository, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{rdb: rdb, ttl: defaultSessionTTL}, nil
}

func sessionKey(userID string) string {
	return sessionKeyPrefix + userID
}

// GetSession retrieves the session record for a user.
func (s *RedisStore) GetSession(ctx context.Context, userID string) (*domain.SessionRecord, error) {
	data, err := s.rdb.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}
	return &rec, nil
}

// UpsertSession creates or replaces the session record for a user.
func (s *RedisStore) UpsertSession(ctx context.Context, rec *domain.SessionRecord) error {
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}

	if err := s.rdb.Set(ctx, sessionKey(rec.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// UpdateSequence sets the sequence number if the stored value still matches
// expected. Uses WATCH so a concurrent writer fails the transaction instead
// of silently clobbering the counter.
func (s *RedisStore) UpdateSequence(ctx context.Context, userID string, seq, expected int64) error {
	key := sessionKey(userID)

	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSequenceConflict
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		var rec domain.SessionRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("decode session record: %w", err)
		}
		if rec.SequenceNumber != expected {
			return ErrSequenceConflict
		}

		rec.SequenceNumber = seq
		rec.UpdatedAt = time.Now()
		updated, err := json.Marshal(&rec)
		if err != nil {
			return fmt.Errorf("encode session record: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, s.ttl)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrSequenceConflict
	}
	return err
}

// DeleteSession removes the session record for a user.
func (s *RedisStore) DeleteSession(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Ping verifies store connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
