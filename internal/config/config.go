// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start.
type Config struct {
	// Bind is the listen address for the HTTP server.
	Bind string

	// DBPath is the SQLite database file.
	DBPath string

	// GeminiAPIKey authenticates against the Gemini API.
	GeminiAPIKey string

	// GeminiModel is the model used for extraction and interpretation.
	GeminiModel string

	// JWTSecret signs session tokens.
	JWTSecret string

	// DefaultTip is the tip percentage new sessions start with.
	DefaultTip float64
}

// Load reads configuration from the environment, honoring a .env file if
// present.
func Load() (*Config, error) {
	// Non-fatal if missing; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := &Config{
		Bind:         getEnvDefault("BIND", ":8080"),
		DBPath:       getEnvDefault("DB_PATH", "./data/splitchat.db"),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnvDefault("GEMINI_MODEL", "gemini-2.5-flash"),
		JWTSecret:    getEnvDefault("JWT_SECRET", "dev-only-change-me"),
		DefaultTip:   15,
	}

	if v := os.Getenv("DEFAULT_TIP"); v != "" {
		tip, err := strconv.ParseFloat(v, 64)
		if err != nil || tip < 0 {
			return nil, fmt.Errorf("DEFAULT_TIP must be a non-negative number, got %q", v)
		}
		cfg.DefaultTip = tip
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	return cfg, nil
}

func getEnvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
