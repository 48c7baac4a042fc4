// Package config loads runtime configuration from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// defaultAdminPassword seeds the owner account in development only.
const defaultAdminPassword = "change-me-now"

// Environments
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config carries every runtime setting of the admin server.
type Config struct {
	Addr          string
	DBPath        string
	Env           string
	CSRFKey       []byte // 32 bytes; nil means "generate per startup"
	UploadDir     string
	MaxUploadSize int64 // bytes
	ResendKey     string
	MailFrom      string
	AdminEmail    string
	AdminPassword string
	CORSOrigins   []string
	RateLimit     int // requests per second per IP
	SessionTTL    time.Duration
	LogLevel      slog.Level
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads configuration from environment variables.
// PRE: none
// POST: Returns a populated Config or an error naming the invalid variable
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{
		Addr:          getEnv("MARKETADMIN_ADDR", ":8080"),
		DBPath:        getEnv("MARKETADMIN_DB_PATH", "marketadmin.db"),
		Env:           getEnv("MARKETADMIN_ENV", EnvDevelopment),
		UploadDir:     getEnv("MARKETADMIN_UPLOAD_DIR", "uploads"),
		ResendKey:     os.Getenv("MARKETADMIN_RESEND_KEY"),
		MailFrom:      getEnv("MARKETADMIN_MAIL_FROM", "Marketplace Admin <noreply@example.com>"),
		AdminEmail:    getEnv("MARKETADMIN_ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: getEnv("MARKETADMIN_ADMIN_PASSWORD", defaultAdminPassword),
		CORSOrigins:   splitList(os.Getenv("MARKETADMIN_CORS_ORIGINS")),
	}

	if cfg.Env != EnvDevelopment && cfg.Env != EnvProduction {
		return nil, fmt.Errorf("invalid MARKETADMIN_ENV %q: must be development or production", cfg.Env)
	}

	maxMB, err := strconv.Atoi(getEnv("MARKETADMIN_MAX_UPLOAD_MB", "5"))
	if err != nil || maxMB <= 0 {
		return nil, fmt.Errorf("invalid MARKETADMIN_MAX_UPLOAD_MB: %w", errOrPositive(err))
	}
	cfg.MaxUploadSize = int64(maxMB) << 20

	cfg.RateLimit, err = strconv.Atoi(getEnv("MARKETADMIN_RATE_LIMIT", "20"))
	if err != nil || cfg.RateLimit <= 0 {
		return nil, fmt.Errorf("invalid MARKETADMIN_RATE_LIMIT: %w", errOrPositive(err))
	}

	ttlHours, err := strconv.Atoi(getEnv("MARKETADMIN_SESSION_TTL_HOURS", "24"))
	if err != nil || ttlHours <= 0 {
		return nil, fmt.Errorf("invalid MARKETADMIN_SESSION_TTL_HOURS: %w", errOrPositive(err))
	}
	cfg.SessionTTL = time.Duration(ttlHours) * time.Hour

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("MARKETADMIN_LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid MARKETADMIN_LOG_LEVEL: %w", err)
	}

	if keyHex := os.Getenv("MARKETADMIN_CSRF_KEY"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid MARKETADMIN_CSRF_KEY: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("invalid MARKETADMIN_CSRF_KEY: must be 64 hex characters (32 bytes)")
		}
		cfg.CSRFKey = key
	} else if cfg.IsProduction() {
		return nil, fmt.Errorf("MARKETADMIN_CSRF_KEY is required in production")
	}

	if cfg.IsProduction() && cfg.AdminPassword == defaultAdminPassword {
		return nil, fmt.Errorf("MARKETADMIN_ADMIN_PASSWORD is required in production")
	}

	return cfg, nil
}

// getEnv reads an environment variable, falling back when unset or empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func errOrPositive(err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("must be a positive integer")
}
