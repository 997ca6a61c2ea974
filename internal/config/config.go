// Package config loads application settings from the environment.
//
// A .env file in the working directory is loaded first (if present) via
// godotenv, then real environment variables take precedence — the same
// layering the deployment scripts have always relied on.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting the server needs.
type Config struct {
	Port   int
	DBPath string

	JWTSecret string
	JWTTTL    time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration

	CORSAllowOrigins []string

	LogLevel slog.Level

	// Optional bootstrap account, created at startup if it does not exist.
	InitialAdminEmail    string
	InitialAdminPassword string
}

// Load reads configuration from .env (if present) and the environment.
// Every setting has a development-friendly default except JWT_SECRET,
// which the server refuses to run without.
func Load() Config {
	// Ignore the error: a missing .env just means "env vars only".
	_ = godotenv.Load()

	cfg := Config{
		Port:                 envInt("PORT", 8080),
		DBPath:               envStr("DB_PATH", "data/monitoramento.db"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		JWTTTL:               time.Duration(envInt("JWT_EXPIRATION_MINUTES", 60*24)) * time.Minute,
		RateLimitRequests:    envInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:      time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		InitialAdminEmail:    os.Getenv("INITIAL_ADMIN_EMAIL"),
		InitialAdminPassword: os.Getenv("INITIAL_ADMIN_PASSWORD"),
		LogLevel:             parseLevel(envStr("LOG_LEVEL", "info")),
	}

	origins := envStr("CORS_ALLOW_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSAllowOrigins = append(cfg.CORSAllowOrigins, o)
		}
	}

	return cfg
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
