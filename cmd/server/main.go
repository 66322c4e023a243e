// Reservation concierge proxy server.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/seatly/concierge/internal/agent"
	"github.com/seatly/concierge/internal/api"
	"github.com/seatly/concierge/internal/concierge"
	"github.com/seatly/concierge/internal/config"
	"github.com/seatly/concierge/internal/store"
	"github.com/seatly/concierge/internal/verify"
	"github.com/seatly/concierge/internal/video"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize session store: managed Redis when configured, SQLite otherwise.
	var repo store.Repository
	if cfg.RedisURL != "" {
		repo, err = store.NewRedis(cfg.RedisURL)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		slog.Info("Session store connected", "backend", "redis")
	} else {
		repo, err = store.NewSQLite(cfg.DBPath)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
		slog.Info("Session store connected", "backend", "sqlite", "path", cfg.DBPath)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close session store", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Session store health check failed", "error", err)
		os.Exit(1)
	}

	// Vendor clients.
	agentClient := agent.NewClient(cfg.Agent, logger)
	if !cfg.Agent.Enabled() {
		slog.Warn("Agent backend credentials missing, chat requests will fail with a configuration error")
	}

	var videoClient *video.Client
	if cfg.Video.Enabled() {
		videoClient = video.NewClient(cfg.Video, logger)
		slog.Info("Video platform client initialized")
	} else {
		slog.Info("Video platform credentials missing, video sessions disabled")
	}

	var verifyClient *verify.Client
	if cfg.Verify.Enabled() {
		verifyClient = verify.NewClient(cfg.Verify, logger)
	} else {
		slog.Info("Bot verification secret missing, verification disabled")
	}

	// Core service and handlers.
	svc := concierge.NewService(repo, agentClient, logger)

	chatHandler := api.NewChatHandler(svc, cfg.ModelName, cfg.Agent.Enabled(), logger)
	videoHandler := api.NewVideoHandler(videoClient, cfg.CallbackURL(), logger)
	verifyHandler := api.NewVerifyHandler(verifyClient, logger)
	voiceHandler := api.NewVoiceHandler(svc, cfg.FrontendURL, cfg.IsDevelopment(), logger)

	router := api.NewRouter(chatHandler, videoHandler, verifyHandler, voiceHandler, []string{"*"})

	// Note: SSE responses require no write timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
