// Package concierge implements the session-correlation and confirmation
// proxy between chat/voice clients and the conversational-agent backend.
package concierge

import (
	"context"
	"errors"
	"log/slog"

	"github.com/seatly/concierge/internal/agent"
	"github.com/seatly/concierge/internal/domain"
	"github.com/seatly/concierge/internal/store"
)

// DefaultUserID is substituted when the caller supplies no user identifier.
const DefaultUserID = "anonymous"

const (
	greetingReply = "Hi, I'm your reservation concierge. I can book a table, update an existing reservation, or answer questions about the restaurant. How can I help?"

	// Every failure surfaces as natural language. The voice client ahead of
	// us cannot handle error codes or non-2xx responses.
	apologyNoSession = "I'm sorry, I'm having trouble reaching our reservation system right now. Please try again in a moment."
	apologyReconnect = "I'm sorry, I lost my connection while trying to reconnect. Please give me a moment and ask again."
	apologyEscalate  = "I'm sorry, something went wrong on my end. Would you like me to connect you with a member of our staff?"
	apologyRetry     = "I'm sorry, that didn't go through. Could you try that again?"

	rejectReprompt = "No problem, let's start over. Please tell me your email address and reservation number one more time."
)

// AgentAPI is the slice of the agent backend client the service depends on.
type AgentAPI interface {
	CreateSession(ctx context.Context) (string, error)
	SendMessage(ctx context.Context, sessionHandle string, seq int64, text string) (*agent.Turn, error)
}

// RetryPolicy bounds send attempts against the agent backend. Attempts after
// the first are always made on a freshly created session.
type RetryPolicy struct {
	MaxAttempts int
}

// DefaultRetryPolicy retries an invalid-session failure exactly once.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 2}
}

// Service mediates between callers and the agent backend: it resolves or
// creates backend sessions, runs the identifier-confirmation sub-protocol,
// and relays everything else.
type Service struct {
	repo   store.Repository
	agent  AgentAPI
	retry  RetryPolicy
	logger *slog.Logger
}

// NewService creates a concierge service.
func NewService(repo store.Repository, agentClient AgentAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		agent:  agentClient,
		retry:  DefaultRetryPolicy(),
		logger: logger,
	}
}

// Greeting is the canned opening line for an empty conversation.
func (s *Service) Greeting() string {
	return greetingReply
}

// ClearSession drops the cached backend session for a user.
func (s *Service) ClearSession(ctx context.Context, userID string) error {
	if userID == "" {
		userID = DefaultUserID
	}
	return s.repo.DeleteSession(ctx, userID)
}

// Respond runs one user utterance through the full pipeline and returns the
// reply text. It never fails outward; every error branch degrades to a
// natural-language apology.
func (s *Service) Respond(ctx context.Context, userID, utterance string) string {
	if userID == "" {
		userID = DefaultUserID
	}
	utterance = CleanUtterance(utterance)

	rec, err := s.repo.GetSession(ctx, userID)
	if err != nil {
		// A store read failure degrades to "no record": worst case we create
		// a duplicate backend session.
		s.logger.Error("session lookup failed", "user_id", userID, "error", err)
		rec = nil
	}

	if rec != nil && rec.Pending != nil && rec.Pending.AwaitingConfirmation {
		return s.resolveConfirmation(ctx, userID, rec, utterance)
	}

	email, reservationID := ExtractIdentifiers(utterance)
	if email != "" && reservationID != "" {
		return s.beginConfirmation(ctx, userID, rec, utterance, email, reservationID)
	}

	return s.relay(ctx, userID, rec, utterance)
}

// beginConfirmation stores the extracted identifiers and reads them back.
// The utterance is NOT forwarded to the backend this turn.
func (s *Service) beginConfirmation(ctx context.Context, userID string, rec *domain.SessionRecord, utterance, email, reservationID string) string {
	if rec == nil {
		rec = &domain.SessionRecord{UserID: userID, SequenceNumber: 1}
	}
	rec.Pending = &domain.PendingConfirmation{
		Email:                email,
		ReservationID:        reservationID,
		AwaitingConfirmation: true,
		OriginalMessage:      utterance,
	}

	if err := s.repo.UpsertSession(ctx, rec); err != nil {
		// Fire and forget: the user still hears the read-back, we just lose
		// the replay if the process dies before their answer.
		s.logger.Error("persist pending confirmation failed", "user_id", userID, "error", err)
	}

	s.logger.Info("awaiting identifier confirmation", "user_id", userID, "reservation_id", reservationID)
	return confirmationPrompt(email, reservationID)
}

// resolveConfirmation handles the turn after identifiers were read back.
func (s *Service) resolveConfirmation(ctx context.Context, userID string, rec *domain.SessionRecord, utterance string) string {
	pending := rec.Pending

	switch ClassifyConfirmation(utterance) {
	case IntentAffirm:
		rec.Pending = nil
		if err := s.repo.UpsertSession(ctx, rec); err != nil {
			s.logger.Error("clear pending confirmation failed", "user_id", userID, "error", err)
		}
		// Replay the stored original message, not the confirmation utterance.
		return s.relay(ctx, userID, rec, pending.OriginalMessage)

	case IntentReject:
		rec.Pending = nil
		if err := s.repo.UpsertSession(ctx, rec); err != nil {
			s.logger.Error("clear pending confirmation failed", "user_id", userID, "error", err)
		}
		return rejectReprompt

	default:
		// Neither yes nor no: re-issue the prompt unchanged and stay put.
		return confirmationPrompt(pending.Email, pending.ReservationID)
	}
}

// relay forwards an utterance to the agent backend and renders its reply,
// recovering once from an invalid session per the retry policy.
func (s *Service) relay(ctx context.Context, userID string, rec *domain.SessionRecord, text string) string {
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			rec = nil // retries always run on a fresh session
		}

		if !rec.HasSession() {
			handle, err := s.agent.CreateSession(ctx)
			if err != nil {
				s.logger.Error("create backend session failed", "user_id", userID, "attempt", attempt, "error", err)
				if attempt > 1 {
					// The retry already failed once; a failed recreation ends
					// it the same way a failed resend would.
					return apologyReconnect
				}
				return apologyNoSession
			}
			// New record: sequence restarts at 1 and any stale pending
			// confirmation is dropped with it.
			rec = &domain.SessionRecord{UserID: userID, SessionHandle: handle, SequenceNumber: 1}
			if err := s.repo.UpsertSession(ctx, rec); err != nil {
				s.logger.Error("persist new session failed", "user_id", userID, "error", err)
			}
			s.logger.Info("created backend session", "user_id", userID, "attempt", attempt)
		}

		seq := rec.SequenceNumber
		turn, sendErr := s.agent.SendMessage(ctx, rec.SessionHandle, seq, text)

		// The backend consumed the sequence number whether or not the send
		// succeeded, so the counter advances unconditionally.
		s.advanceSequence(ctx, rec)

		if sendErr == nil {
			return s.renderTurn(ctx, userID, turn)
		}

		if attempt > 1 {
			s.logger.Error("retried send failed", "user_id", userID, "error", sendErr)
			return apologyReconnect
		}

		switch {
		case agent.IsTimeout(sendErr):
			s.logger.Warn("backend send timed out", "user_id", userID)
			return apologyEscalate
		case agent.IsSessionInvalid(sendErr):
			s.logger.Info("backend session invalid, recreating", "user_id", userID, "error", sendErr)
			s.dropSession(ctx, userID)
			continue
		default:
			s.logger.Error("backend send failed", "user_id", userID, "error", sendErr)
			return apologyEscalate
		}
	}
	return apologyReconnect
}

// renderTurn maps a backend turn to the reply text, clearing the cached
// session on terminal signals so the next turn starts fresh.
func (s *Service) renderTurn(ctx context.Context, userID string, turn *agent.Turn) string {
	if turn.Escalated() {
		s.dropSession(ctx, userID)
		if text, ok := turn.Reply(); ok {
			return text
		}
		return apologyRetry
	}

	if text, ok := turn.Reply(); ok {
		return text
	}

	if turn.Failed() {
		s.dropSession(ctx, userID)
	}
	return apologyRetry
}

func (s *Service) advanceSequence(ctx context.Context, rec *domain.SessionRecord) {
	prev := rec.SequenceNumber
	rec.SequenceNumber = prev + 1
	if err := s.repo.UpdateSequence(ctx, rec.UserID, rec.SequenceNumber, prev); err != nil {
		if errors.Is(err, store.ErrSequenceConflict) {
			s.logger.Warn("sequence update lost to concurrent writer", "user_id", rec.UserID, "seq", rec.SequenceNumber)
			return
		}
		s.logger.Error("persist sequence failed", "user_id", rec.UserID, "error", err)
	}
}

func (s *Service) dropSession(ctx context.Context, userID string) {
	if err := s.repo.DeleteSession(ctx, userID); err != nil {
		s.logger.Error("delete session failed", "user_id", userID, "error", err)
	}
}
