// Package video implements the client for the video-avatar platform.
package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultRequestTimeout bounds one vendor call.
const DefaultRequestTimeout = 15 * time.Second

// Config holds video platform connection settings.
type Config struct {
	BaseURL   string
	APIKey    string
	ReplicaID string
	PersonaID string
	Timeout   time.Duration
}

// Enabled reports whether the required credentials are present.
func (c Config) Enabled() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

// Client talks to the video-avatar platform's conversation API.
type Client struct {
	baseURL   string
	apiKey    string
	replicaID string
	personaID string

	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new video platform client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultRequestTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		replicaID:  cfg.ReplicaID,
		personaID:  cfg.PersonaID,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Conversation is a live video-call session on the vendor platform.
type Conversation struct {
	ConversationID  string `json:"conversation_id"`
	ConversationURL string `json:"conversation_url"`
}

// CreateConversation starts a video-call session. callbackURL, when set,
// tells the vendor where to relay transcribed speech.
func (c *Client) CreateConversation(ctx context.Context, conversationName, callbackURL string) (*Conversation, error) {
	payload := map[string]string{
		"replica_id":        c.replicaID,
		"persona_id":        c.personaID,
		"conversation_name": conversationName,
	}
	if callbackURL != "" {
		payload["callback_url"] = callbackURL
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal conversation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/conversations", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build conversation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Warn("video platform rejected conversation create",
			"status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("video platform returned status %d", resp.StatusCode)
	}

	var conv Conversation
	if err := json.NewDecoder(resp.Body).Decode(&conv); err != nil {
		return nil, fmt.Errorf("decode conversation response: %w", err)
	}
	return &conv, nil
}

// EndConversation tears down a video-call session. Ending an already-ended
// conversation is treated as success.
func (c *Client) EndConversation(ctx context.Context, conversationID string) error {
	path := c.baseURL + "/v2/conversations/" + url.PathEscape(conversationID) + "/end"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, nil)
	if err != nil {
		return fmt.Errorf("build end request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("end conversation: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Debug("conversation already gone", "conversation_id", conversationID)
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("video platform returned status %d", resp.StatusCode)
	}
	return nil
}
