package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/seatly/concierge/internal/video"
)

// VideoHandler proxies video-call session lifecycle to the avatar platform.
type VideoHandler struct {
	client      *video.Client
	callbackURL string
	logger      *slog.Logger
}

// NewVideoHandler creates the video session handler. callbackURL is where
// the vendor relays transcribed speech; it points at our chat endpoint.
func NewVideoHandler(client *video.Client, callbackURL string, logger *slog.Logger) *VideoHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VideoHandler{client: client, callbackURL: callbackURL, logger: logger}
}

// RegisterRoutes registers video session routes.
func (h *VideoHandler) RegisterRoutes(r chi.Router) {
	r.Post("/video/sessions", h.Create)
	r.Post("/video/sessions/{conversationID}/end", h.End)
}

// Create starts a video-call session with the avatar vendor.
func (h *VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		Error(w, http.StatusInternalServerError, "video platform credentials not configured")
		return
	}

	var req struct {
		UserID string `json:"user_id,omitempty"`
	}
	if r.Body != nil {
		// Body is optional; ignore decode errors from an empty payload.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	name := "concierge-" + uuid.NewString()
	conv, err := h.client.CreateConversation(r.Context(), name, h.callbackURL)
	if err != nil {
		h.logger.Error("create video conversation failed", "user_id", req.UserID, "error", err)
		Error(w, http.StatusBadGateway, "failed to create video session")
		return
	}

	h.logger.Info("video conversation created", "conversation_id", conv.ConversationID, "user_id", req.UserID)
	JSON(w, http.StatusCreated, conv)
}

// End tears down a video-call session.
func (h *VideoHandler) End(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		Error(w, http.StatusInternalServerError, "video platform credentials not configured")
		return
	}

	conversationID := chi.URLParam(r, "conversationID")
	if err := h.client.EndConversation(r.Context(), conversationID); err != nil {
		h.logger.Error("end video conversation failed", "conversation_id", conversationID, "error", err)
		Error(w, http.StatusBadGateway, "failed to end video session")
		return
	}

	JSON(w, http.StatusOK, map[string]string{
		"status":          "ended",
		"conversation_id": conversationID,
	})
}
