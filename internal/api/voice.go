package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/seatly/concierge/internal/concierge"
)

// voiceMessage is the WebSocket frame exchanged with the voice widget.
type voiceMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

// VoiceHandler relays transcribed utterances from the voice widget through
// the same concierge pipeline the chat endpoint uses.
type VoiceHandler struct {
	svc           *concierge.Service
	allowedOrigin string
	isDev         bool
	logger        *slog.Logger
}

// NewVoiceHandler creates the voice relay handler.
func NewVoiceHandler(svc *concierge.Service, allowedOrigin string, isDev bool, logger *slog.Logger) *VoiceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VoiceHandler{svc: svc, allowedOrigin: allowedOrigin, isDev: isDev, logger: logger}
}

// Handle upgrades the connection and serves the relay loop until the client
// disconnects.
func (h *VoiceHandler) Handle(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if h.isDev {
		opts.InsecureSkipVerify = true
	} else if h.allowedOrigin != "" {
		opts.OriginPatterns = []string{h.allowedOrigin}
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		h.logger.Warn("voice websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	ctx := r.Context()
	for {
		if err := h.serveOne(ctx, conn); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			h.logger.Debug("voice websocket closed", "error", err)
			return
		}
	}
}

func (h *VoiceHandler) serveOne(ctx context.Context, conn *websocket.Conn) error {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return err
	}

	var msg voiceMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return h.write(ctx, conn, voiceMessage{Type: "error", Content: "invalid message"})
	}

	switch msg.Type {
	case "utterance":
		reply := concierge.SanitizeReply(h.svc.Respond(ctx, msg.UserID, msg.Content))
		return h.write(ctx, conn, voiceMessage{Type: "reply", Content: reply})
	case "ping":
		return h.write(ctx, conn, voiceMessage{Type: "pong"})
	default:
		return h.write(ctx, conn, voiceMessage{Type: "error", Content: "unknown message type"})
	}
}

func (h *VoiceHandler) write(ctx context.Context, conn *websocket.Conn, msg voiceMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
