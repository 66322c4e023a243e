package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/seatly/concierge/internal/domain"
)

// chatRequest is the inbound chat-completion-style request body.
type chatRequest struct {
	Messages []domain.Message `json:"messages"`
	Stream   bool             `json:"stream,omitempty"`
	UserID   string           `json:"user_id,omitempty"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionChoice struct {
	Index        int                `json:"index"`
	Message      *completionMessage `json:"message,omitempty"`
	Delta        *completionMessage `json:"delta,omitempty"`
	FinishReason *string            `json:"finish_reason"`
}

// completionUsage approximates token counts as raw character lengths. Good
// enough for dashboards, not a billing contract.
type completionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type completion struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []completionChoice `json:"choices"`
	Usage   *completionUsage   `json:"usage,omitempty"`
}

func completionID() string {
	return "chatcmpl-" + uuid.NewString()
}

const streamDoneMarker = "[DONE]"

var stopReason = "stop"

// writeCompletion emits the reply as a single chat-completion object.
func writeCompletion(w http.ResponseWriter, model, prompt, reply string) {
	JSON(w, http.StatusOK, completion{
		ID:      completionID(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []completionChoice{{
			Index:        0,
			Message:      &completionMessage{Role: "assistant", Content: reply},
			FinishReason: &stopReason,
		}},
		Usage: &completionUsage{
			PromptTokens:     len(prompt),
			CompletionTokens: len(reply),
			TotalTokens:      len(prompt) + len(reply),
		},
	})
}

// writeCompletionStream emits the reply as a server-sent-event stream of
// exactly three frames: a role announcement, the whole sanitized reply, and a
// stop frame, then the stream-end marker. The reply is deliberately not
// token-chunked; the video avatar consumes whole sentences.
func writeCompletionStream(w http.ResponseWriter, model, reply string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	id := completionID()
	created := time.Now().Unix()

	frames := []completionChoice{
		{Index: 0, Delta: &completionMessage{Role: "assistant", Content: ""}},
		{Index: 0, Delta: &completionMessage{Content: reply}},
		{Index: 0, Delta: &completionMessage{}, FinishReason: &stopReason},
	}

	for _, choice := range frames {
		chunk := completion{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   model,
			Choices: []completionChoice{choice},
		}
		writeSSEFrame(w, flusher, chunk)
	}

	if _, err := w.Write([]byte("data: " + streamDoneMarker + "\n\n")); err != nil {
		slog.Debug("failed to write stream end marker", "error", err)
		return
	}
	flusher.Flush()
}

func writeSSEFrame(w http.ResponseWriter, flusher http.Flusher, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal sse payload", "error", err)
		return
	}
	if _, err := w.Write([]byte("data: ")); err != nil {
		slog.Debug("failed to write sse prefix", "error", err)
		return
	}
	if _, err := w.Write(data); err != nil {
		slog.Debug("failed to write sse payload", "error", err)
		return
	}
	if _, err := w.Write([]byte("\n\n")); err != nil {
		slog.Debug("failed to write sse terminator", "error", err)
		return
	}
	flusher.Flush()
}
