package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/dhruvm/splitchat/internal/assist"
	"github.com/dhruvm/splitchat/internal/auth"
	"github.com/dhruvm/splitchat/internal/config"
	"github.com/dhruvm/splitchat/internal/server"
	"github.com/dhruvm/splitchat/internal/storage/sqlite"
	"github.com/dhruvm/splitchat/pkg/logging"
)

const tokenDuration = 24 * time.Hour

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	gemini, err := assist.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		slog.Error("Failed to initialize Gemini", "error", err)
		os.Exit(1)
	}
	defer gemini.Close()
	slog.Info("Gemini initialized", "model", cfg.GeminiModel)

	tokens := auth.NewTokenManager(cfg.JWTSecret, tokenDuration)
	srv := server.New(gemini, gemini, store, tokens, cfg.DefaultTip)

	// h2c allows HTTP/2 without TLS for clients behind a terminating proxy.
	handler := h2c.NewHandler(srv.Handler(), &http2.Server{})

	slog.Info("Server starting", "address", cfg.Bind)
	if err := http.ListenAndServe(cfg.Bind, handler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
