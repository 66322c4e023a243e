// Package verify implements server-side bot-verification token checks.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultVerifyURL is the vendor's token-verification endpoint.
const DefaultVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Config holds bot-verification settings.
type Config struct {
	SecretKey string
	VerifyURL string
	Timeout   time.Duration
}

// Enabled reports whether the secret key is present.
func (c Config) Enabled() bool {
	return c.SecretKey != ""
}

// Client verifies bot-challenge tokens against the vendor endpoint.
type Client struct {
	secretKey  string
	verifyURL  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new verification client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.VerifyURL == "" {
		cfg.VerifyURL = DefaultVerifyURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &Client{
		secretKey:  cfg.SecretKey,
		verifyURL:  cfg.VerifyURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Result is the vendor's verdict on one token.
type Result struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes,omitempty"`
}

// Check verifies a client-supplied token. remoteIP is optional.
func (c *Client) Check(ctx context.Context, token, remoteIP string) (*Result, error) {
	form := url.Values{}
	form.Set("secret", c.secretKey)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("verification endpoint returned status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode verify response: %w", err)
	}

	if !result.Success {
		c.logger.Info("bot verification failed", "error_codes", result.ErrorCodes)
	}
	return &result, nil
}
