// Package config loads runtime settings from the environment, reading a
// .env file first when one is present.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the settings shared by the chat client and the dev backend.
type Config struct {
	BaseURL        string        `env:"BASE_URL" envDefault:"http://localhost:8080"`
	WSURL          string        `env:"WS_URL"`
	SessionToken   string        `env:"SESSION_TOKEN"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	TypingTimeout  time.Duration `env:"TYPING_TIMEOUT" envDefault:"4s"`
	LogFile        string        `env:"LOG_FILE"`

	Port         string `env:"PORT" envDefault:"8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"lifeinvader.db"`
}

// Load reads .env (if any) and parses the environment into a Config.
func Load(logger *slog.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil && logger != nil {
		logger.Debug("No .env file found, using environment variables")
	}
	return Parse()
}

// Parse parses the current environment without touching .env.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.WSURL == "" {
		cfg.WSURL = DeriveWSURL(cfg.BaseURL)
	}
	return cfg, nil
}

// DeriveWSURL maps an http(s) base URL onto the backend websocket endpoint.
func DeriveWSURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}
