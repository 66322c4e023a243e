package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultRequestTimeout bounds one message send. The voice client ahead of
	// us gives up after roughly this long, so a longer wait buys nothing.
	DefaultRequestTimeout = 15 * time.Second
	// tokenExpirySlack refreshes the OAuth token slightly before the backend
	// would reject it.
	tokenExpirySlack = 30 * time.Second
)

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("agent backend returned status %d", e.StatusCode)
}

// IsSessionInvalid reports whether err means the backend no longer recognizes
// the session handle. The backend is inconsistent about which status it uses
// for an expired conversation, hence the breadth.
func IsSessionInvalid(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	switch se.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound, http.StatusGone:
		return true
	}
	return false
}

// IsTimeout reports whether err was caused by the request deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue) && ue.Timeout()
}

// Config holds agent backend connection settings.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Enabled reports whether the required credentials are present.
func (c Config) Enabled() bool {
	return c.BaseURL != "" && c.TokenURL != "" && c.ClientID != "" && c.ClientSecret != ""
}

// Client talks to the conversational-agent backend over REST, authenticating
// with OAuth client credentials.
type Client struct {
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *slog.Logger

	tokenMu     sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a new agent backend client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultRequestTimeout
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		tokenURL:     cfg.TokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// token returns a cached OAuth access token, fetching a fresh one when the
// cached token is missing or close to expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenExpirySlack)) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("token endpoint returned empty access_token")
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	c.logger.Debug("refreshed agent backend token", "expires_in", tok.ExpiresIn)

	return c.accessToken, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	token, err := c.token(ctx)
	if err != nil {
		return fmt.Errorf("acquire token: %w", err)
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// CreateSession opens a new conversation on the backend and returns its
// session handle.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/sessions", struct{}{}, &resp); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	if resp.SessionID == "" {
		return "", errors.New("backend returned empty session_id")
	}
	return resp.SessionID, nil
}

// SendMessage forwards one utterance on an existing session. The sequence
// number is part of the backend's ordering contract and must strictly
// increase within a session.
func (c *Client) SendMessage(ctx context.Context, sessionHandle string, seq int64, text string) (*Turn, error) {
	payload := struct {
		Text     string `json:"text"`
		Sequence int64  `json:"sequence"`
	}{Text: text, Sequence: seq}

	var turn Turn
	path := "/v1/sessions/" + url.PathEscape(sessionHandle) + "/messages"
	if err := c.doJSON(ctx, http.MethodPost, path, payload, &turn); err != nil {
		return nil, err
	}
	return &turn, nil
}
