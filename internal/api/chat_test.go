package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/seatly/concierge/internal/agent"
	"github.com/seatly/concierge/internal/concierge"
	"github.com/seatly/concierge/internal/domain"
	"github.com/seatly/concierge/internal/store"
)

// stubAgent answers every send with a fixed final message.
type stubAgent struct {
	reply string
}

func (s *stubAgent) CreateSession(context.Context) (string, error) {
	return "sess-1", nil
}

func (s *stubAgent) SendMessage(context.Context, string, int64, string) (*agent.Turn, error) {
	return &agent.Turn{Messages: []agent.TurnMessage{{Kind: agent.KindFinal, Text: s.reply}}}, nil
}

func newTestRouter(repo store.Repository, reply string, configured bool) http.Handler {
	svc := concierge.NewService(repo, &stubAgent{reply: reply}, nil)
	h := NewChatHandler(svc, "reservation-concierge", configured, nil)

	r := chi.NewRouter()
	r.Route("/api", func(api chi.Router) {
		h.RegisterRoutes(api)
	})
	return r
}

func postChat(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router := newTestRouter(store.NewMemory(), "ok", true)

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["status"] != "ok" || got["service"] != serviceName || got["model"] != "reservation-concierge" {
		t.Errorf("unexpected health payload: %v", got)
	}
	if got["timestamp"] == "" {
		t.Error("Expected a timestamp")
	}
}

func TestCompletionsNonStreaming(t *testing.T) {
	router := newTestRouter(store.NewMemory(), "Your table is booked.", true)

	w := postChat(t, router, `{"messages":[{"role":"user","content":"book a table"}],"user_id":"u1"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var got completion
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got.Object != "chat.completion" {
		t.Errorf("object = %q, want chat.completion", got.Object)
	}
	if len(got.Choices) != 1 {
		t.Fatalf("Expected exactly 1 choice, got %d", len(got.Choices))
	}
	choice := got.Choices[0]
	if choice.Message == nil || choice.Message.Role != "assistant" || choice.Message.Content != "Your table is booked." {
		t.Errorf("unexpected message: %+v", choice.Message)
	}
	if choice.FinishReason == nil || *choice.FinishReason != "stop" {
		t.Errorf("finish_reason = %v, want stop", choice.FinishReason)
	}
	if got.Usage == nil || got.Usage.TotalTokens != got.Usage.PromptTokens+got.Usage.CompletionTokens {
		t.Errorf("unexpected usage: %+v", got.Usage)
	}
}

func TestCompletionsStreaming(t *testing.T) {
	router := newTestRouter(store.NewMemory(), "Your table is booked.", true)

	w := postChat(t, router, `{"messages":[{"role":"user","content":"book a table"}],"stream":true}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", ct)
	}

	var frames []string
	scanner := bufio.NewScanner(bytes.NewReader(w.Body.Bytes()))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			frames = append(frames, strings.TrimPrefix(line, "data: "))
		}
	}

	if len(frames) != 4 {
		t.Fatalf("Expected 3 data frames plus [DONE], got %d: %v", len(frames), frames)
	}
	if frames[3] != streamDoneMarker {
		t.Errorf("last frame = %q, want %q", frames[3], streamDoneMarker)
	}

	var chunks []completion
	for _, f := range frames[:3] {
		var c completion
		if err := json.Unmarshal([]byte(f), &c); err != nil {
			t.Fatalf("Failed to decode chunk %q: %v", f, err)
		}
		if c.Object != "chat.completion.chunk" {
			t.Errorf("object = %q, want chat.completion.chunk", c.Object)
		}
		chunks = append(chunks, c)
	}

	if d := chunks[0].Choices[0].Delta; d == nil || d.Role != "assistant" || d.Content != "" {
		t.Errorf("first frame delta = %+v, want role announcement with empty content", d)
	}
	if d := chunks[1].Choices[0].Delta; d == nil || d.Content != "Your table is booked." {
		t.Errorf("second frame delta = %+v, want the whole reply", d)
	}
	last := chunks[2].Choices[0]
	if last.FinishReason == nil || *last.FinishReason != "stop" {
		t.Errorf("final frame finish_reason = %v, want stop", last.FinishReason)
	}
}

func TestEmptyMessagesReturnsGreeting(t *testing.T) {
	repo := store.NewMemory()
	router := newTestRouter(repo, "unused", true)

	w := postChat(t, router, `{"messages":[]}`)

	var got completion
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	content := got.Choices[0].Message.Content
	if !strings.Contains(content, "reservation concierge") {
		t.Errorf("Expected the greeting, got %q", content)
	}
}

func TestCompletionsWithoutCredentials(t *testing.T) {
	router := newTestRouter(store.NewMemory(), "unused", false)

	w := postChat(t, router, `{"messages":[{"role":"user","content":"hi"}]}`)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500 for missing configuration, got %d", w.Code)
	}
}

func TestClearSession(t *testing.T) {
	repo := store.NewMemory()
	ctx := context.Background()
	if err := repo.UpsertSession(ctx, &domain.SessionRecord{
		UserID: "u1", SessionHandle: "sess-9", SequenceNumber: 3,
	}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	router := newTestRouter(repo, "unused", true)

	req := httptest.NewRequest(http.MethodDelete, "/api/chat?user_id=u1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["status"] != "cleared" || got["user_id"] != "u1" {
		t.Errorf("unexpected payload: %v", got)
	}

	rec, err := repo.GetSession(ctx, "u1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if rec != nil {
		t.Errorf("Expected session removed, got %+v", rec)
	}
}

func TestInvalidBody(t *testing.T) {
	router := newTestRouter(store.NewMemory(), "unused", true)

	w := postChat(t, router, `{not json`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}
