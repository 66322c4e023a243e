package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/seatly/concierge/internal/domain"
)

// eachStore runs fn against every repository backend that needs no external
// service.
func eachStore(t *testing.T, fn func(t *testing.T, repo Repository)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		repo := NewMemory()
		defer repo.Close()
		fn(t, repo)
	})

	t.Run("sqlite", func(t *testing.T) {
		repo, err := NewSQLite(filepath.Join(t.TempDir(), "sessions.db"))
		if err != nil {
			t.Fatalf("NewSQLite: %v", err)
		}
		defer repo.Close()
		fn(t, repo)
	})
}

func TestGetSessionMissing(t *testing.T) {
	eachStore(t, func(t *testing.T, repo Repository) {
		rec, err := repo.GetSession(context.Background(), "nobody")
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if rec != nil {
			t.Errorf("expected nil record, got %+v", rec)
		}
	})
}

func TestUpsertAndGet(t *testing.T) {
	eachStore(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		in := &domain.SessionRecord{
			UserID:         "alice",
			SessionHandle:  "sess-1",
			SequenceNumber: 1,
			Pending: &domain.PendingConfirmation{
				Email:                "alice@example.com",
				ReservationID:        "RZ-1234",
				AwaitingConfirmation: true,
				OriginalMessage:      "change my booking to alice@example.com ref RZ-1234",
			},
		}
		if err := repo.UpsertSession(ctx, in); err != nil {
			t.Fatalf("UpsertSession: %v", err)
		}

		out, err := repo.GetSession(ctx, "alice")
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if out == nil {
			t.Fatal("expected a record")
		}
		if out.SessionHandle != "sess-1" || out.SequenceNumber != 1 {
			t.Errorf("record = %+v", out)
		}
		if out.Pending == nil || out.Pending.Email != "alice@example.com" || out.Pending.ReservationID != "RZ-1234" {
			t.Errorf("pending = %+v", out.Pending)
		}
		if out.CreatedAt.IsZero() || out.UpdatedAt.IsZero() {
			t.Error("timestamps should be set on upsert")
		}
	})
}

func TestUpsertReplaces(t *testing.T) {
	eachStore(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		first := &domain.SessionRecord{
			UserID:         "bob",
			SessionHandle:  "sess-1",
			SequenceNumber: 4,
			Pending:        &domain.PendingConfirmation{Email: "bob@example.com", AwaitingConfirmation: true},
		}
		if err := repo.UpsertSession(ctx, first); err != nil {
			t.Fatalf("UpsertSession: %v", err)
		}

		second := &domain.SessionRecord{
			UserID:         "bob",
			SessionHandle:  "sess-2",
			SequenceNumber: 1,
		}
		if err := repo.UpsertSession(ctx, second); err != nil {
			t.Fatalf("UpsertSession: %v", err)
		}

		out, err := repo.GetSession(ctx, "bob")
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if out.SessionHandle != "sess-2" || out.SequenceNumber != 1 {
			t.Errorf("record = %+v", out)
		}
		if out.Pending != nil {
			t.Errorf("replacement should clear pending, got %+v", out.Pending)
		}
	})
}

func TestUpdateSequence(t *testing.T) {
	eachStore(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		rec := &domain.SessionRecord{UserID: "carol", SessionHandle: "s", SequenceNumber: 2}
		if err := repo.UpsertSession(ctx, rec); err != nil {
			t.Fatalf("UpsertSession: %v", err)
		}

		if err := repo.UpdateSequence(ctx, "carol", 3, 2); err != nil {
			t.Fatalf("UpdateSequence: %v", err)
		}

		out, err := repo.GetSession(ctx, "carol")
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if out.SequenceNumber != 3 {
			t.Errorf("sequence = %d, want 3", out.SequenceNumber)
		}
	})
}

func TestUpdateSequenceConflict(t *testing.T) {
	eachStore(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		rec := &domain.SessionRecord{UserID: "dave", SessionHandle: "s", SequenceNumber: 5}
		if err := repo.UpsertSession(ctx, rec); err != nil {
			t.Fatalf("UpsertSession: %v", err)
		}

		err := repo.UpdateSequence(ctx, "dave", 3, 2)
		if !errors.Is(err, ErrSequenceConflict) {
			t.Fatalf("expected ErrSequenceConflict, got %v", err)
		}

		err = repo.UpdateSequence(ctx, "missing", 2, 1)
		if !errors.Is(err, ErrSequenceConflict) {
			t.Fatalf("expected ErrSequenceConflict for absent user, got %v", err)
		}

		out, err := repo.GetSession(ctx, "dave")
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if out.SequenceNumber != 5 {
			t.Errorf("conflict must not change the stored value, got %d", out.SequenceNumber)
		}
	})
}

func TestDeleteSession(t *testing.T) {
	eachStore(t, func(t *testing.T, repo Repository) {
		ctx := context.Background()
		rec := &domain.SessionRecord{UserID: "erin", SessionHandle: "s", SequenceNumber: 1}
		if err := repo.UpsertSession(ctx, rec); err != nil {
			t.Fatalf("UpsertSession: %v", err)
		}
		if err := repo.DeleteSession(ctx, "erin"); err != nil {
			t.Fatalf("DeleteSession: %v", err)
		}

		out, err := repo.GetSession(ctx, "erin")
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if out != nil {
			t.Errorf("expected nil after delete, got %+v", out)
		}

		// Deleting an absent session is not an error.
		if err := repo.DeleteSession(ctx, "erin"); err != nil {
			t.Errorf("DeleteSession on absent user: %v", err)
		}
	})
}

func TestMemoryStoreCopies(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	rec := &domain.SessionRecord{
		UserID:         "frank",
		SessionHandle:  "s",
		SequenceNumber: 1,
		Pending:        &domain.PendingConfirmation{Email: "frank@example.com"},
	}
	if err := repo.UpsertSession(ctx, rec); err != nil {
		t.Fatalf("UpsertSession: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	rec.SequenceNumber = 99
	rec.Pending.Email = "evil@example.com"

	out, err := repo.GetSession(ctx, "frank")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if out.SequenceNumber != 1 || out.Pending.Email != "frank@example.com" {
		t.Errorf("stored record was aliased: %+v pending %+v", out, out.Pending)
	}

	// And mutating a returned record must not change the stored one.
	out.Pending.Email = "other@example.com"
	again, _ := repo.GetSession(ctx, "frank")
	if again.Pending.Email != "frank@example.com" {
		t.Errorf("returned record was aliased: %+v", again.Pending)
	}
}
