// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/seatly/concierge/internal/agent"
	"github.com/seatly/concierge/internal/verify"
	"github.com/seatly/concierge/internal/video"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	// PublicURL is this service's externally reachable base URL, used to
	// build the callback the video platform posts transcripts to.
	PublicURL string
	DBPath    string
	RedisURL  string
	ModelName string

	Agent  agent.Config
	Video  video.Config
	Verify verify.Config
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		PublicURL:   getEnv("PUBLIC_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/concierge.db"),
		RedisURL:    getEnv("REDIS_URL", ""),
		ModelName:   getEnv("MODEL_NAME", "reservation-concierge"),
		Agent: agent.Config{
			BaseURL:      getEnv("AGENT_BASE_URL", ""),
			TokenURL:     getEnv("AGENT_TOKEN_URL", ""),
			ClientID:     getEnv("AGENT_CLIENT_ID", ""),
			ClientSecret: getEnv("AGENT_CLIENT_SECRET", ""),
			Timeout:      time.Duration(getEnvInt("AGENT_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Video: video.Config{
			BaseURL:   getEnv("VIDEO_BASE_URL", ""),
			APIKey:    getEnv("VIDEO_API_KEY", ""),
			ReplicaID: getEnv("VIDEO_REPLICA_ID", ""),
			PersonaID: getEnv("VIDEO_PERSONA_ID", ""),
		},
		Verify: verify.Config{
			SecretKey: getEnv("TURNSTILE_SECRET_KEY", ""),
			VerifyURL: getEnv("TURNSTILE_VERIFY_URL", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" && c.RedisURL == "" {
		return fmt.Errorf("one of DB_PATH or REDIS_URL must be set")
	}
	if c.Agent.Timeout <= 0 {
		return fmt.Errorf("AGENT_TIMEOUT_SECONDS must be > 0")
	}
	return nil
}

// CallbackURL returns the chat endpoint URL the video platform should relay
// transcripts to, or empty when no public URL is configured.
func (c *Config) CallbackURL() string {
	if c.PublicURL == "" {
		return ""
	}
	return strings.TrimRight(c.PublicURL, "/") + "/api/chat"
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
