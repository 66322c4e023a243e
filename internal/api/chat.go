package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/seatly/concierge/internal/concierge"
)

// maxRequestBodySize caps the inbound chat payload (1MB).
const maxRequestBodySize = 1 << 20

// serviceName is reported by the health check.
const serviceName = "concierge-proxy"

// ChatHandler serves the method-dispatched chat endpoint.
type ChatHandler struct {
	svc        *concierge.Service
	model      string
	configured bool
	logger     *slog.Logger
}

// NewChatHandler creates the chat endpoint handler. configured indicates
// whether agent backend credentials are present; without them POST requests
// fail with a configuration error.
func NewChatHandler(svc *concierge.Service, model string, configured bool, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{svc: svc, model: model, configured: configured, logger: logger}
}

// RegisterRoutes registers chat routes.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Get("/chat", h.Health)
	r.Delete("/chat", h.ClearSession)
	r.Post("/chat", h.Completions)
}

// Health reports endpoint liveness in the shape the widget polls for.
func (h *ChatHandler) Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"service":   serviceName,
		"model":     h.model,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ClearSession drops the cached backend session for a user.
func (h *ChatHandler) ClearSession(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = concierge.DefaultUserID
	}

	if err := h.svc.ClearSession(r.Context(), userID); err != nil {
		h.logger.Error("clear session failed", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to clear session")
		return
	}

	JSON(w, http.StatusOK, map[string]string{
		"status":  "cleared",
		"user_id": userID,
	})
}

// Completions runs the full proxy pipeline for one chat turn. Every pipeline
// failure still answers 200 with an apology payload: the voice client on the
// other end treats any non-2xx as a dead conversation.
func (h *ChatHandler) Completions(w http.ResponseWriter, r *http.Request) {
	if !h.configured {
		Error(w, http.StatusInternalServerError, "agent backend credentials not configured")
		return
	}

	var req chatRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var prompt, reply string
	if len(req.Messages) == 0 {
		reply = h.svc.Greeting()
	} else {
		prompt = req.Messages[len(req.Messages)-1].Content
		reply = h.svc.Respond(r.Context(), req.UserID, prompt)
	}
	reply = concierge.SanitizeReply(reply)

	if req.Stream {
		writeCompletionStream(w, h.model, reply)
		return
	}
	writeCompletion(w, h.model, prompt, reply)
}
