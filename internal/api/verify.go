package api

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/seatly/concierge/internal/verify"
)

// VerifyHandler checks bot-challenge tokens before the widget is unlocked.
type VerifyHandler struct {
	client *verify.Client
	logger *slog.Logger
}

// NewVerifyHandler creates the verification handler.
func NewVerifyHandler(client *verify.Client, logger *slog.Logger) *VerifyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VerifyHandler{client: client, logger: logger}
}

// RegisterRoutes registers verification routes.
func (h *VerifyHandler) RegisterRoutes(r chi.Router) {
	r.Post("/verify", h.Verify)
}

// Verify forwards a challenge token to the vendor and reports the verdict.
func (h *VerifyHandler) Verify(w http.ResponseWriter, r *http.Request) {
	if h.client == nil {
		Error(w, http.StatusInternalServerError, "verification secret not configured")
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		Error(w, http.StatusBadRequest, "token is required")
		return
	}

	remoteIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remoteIP = host
	}

	result, err := h.client.Check(r.Context(), req.Token, remoteIP)
	if err != nil {
		h.logger.Error("bot verification request failed", "error", err)
		Error(w, http.StatusBadGateway, "verification unavailable")
		return
	}

	JSON(w, http.StatusOK, map[string]bool{"success": result.Success})
}
