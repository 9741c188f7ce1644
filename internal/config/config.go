package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"anoa.com/yamdb/pkg/database"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string

	Database database.Config
	RedisURL string

	MeiliSearchHost string
	MeiliMasterKey  string
	// ReindexSchedule is the cron spec of the search reindex job; empty disables it.
	ReindexSchedule string

	// SecretKey is the root secret; token and confirmation-code keys are derived from it.
	SecretKey           string
	JWTTTL              time.Duration
	ConfirmationCodeTTL time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPUseTLS   bool
	MailFrom     string

	LogLevel  string
	LogFormat string

	RateLimitReview  time.Duration
	RateLimitComment time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		Database: database.Config{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASS"),
			Name:     getEnv("DB_NAME", "yamdb"),
			Port:     getEnv("DB_PORT", "5432"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisURL: os.Getenv("REDIS_URL"),

		MeiliSearchHost: os.Getenv("MEILISEARCH_HOST"),
		MeiliMasterKey:  os.Getenv("MEILI_MASTER_KEY"),
		ReindexSchedule: getEnv("SEARCH_REINDEX_SCHEDULE", "@daily"),

		SecretKey: os.Getenv("SECRET_KEY"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     getEnv("DEFAULT_FROM_EMAIL", "noreply@yamdb.local"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.SMTPPort, err = strconv.Atoi(getEnv("SMTP_PORT", "25")); err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	if cfg.SMTPUseTLS, err = strconv.ParseBool(getEnv("SMTP_USE_TLS", "false")); err != nil {
		return nil, fmt.Errorf("invalid SMTP_USE_TLS: %w", err)
	}
	if cfg.Database.MaxOpenConns, err = strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25")); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	if cfg.Database.MaxIdleConns, err = strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "5")); err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}

	// Parsing durations
	durations := []struct {
		key      string
		fallback string
		dst      *time.Duration
	}{
		{"JWT_TTL", "24h", &cfg.JWTTTL},
		{"CONFIRMATION_CODE_TTL", "24h", &cfg.ConfirmationCodeTTL},
		{"DB_CONN_MAX_LIFETIME", "1h", &cfg.Database.ConnMaxLifetime},
		{"DB_SLOW_QUERY", "200ms", &cfg.Database.SlowQuery},
		{"RATE_LIMIT_REVIEW", "10s", &cfg.RateLimitReview},
		{"RATE_LIMIT_COMMENT", "5s", &cfg.RateLimitComment},
	}
	for _, d := range durations {
		if *d.dst, err = parseDuration(getEnv(d.key, d.fallback)); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
	}

	if cfg.SecretKey == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("SECRET_KEY is required in production")
		}
		cfg.SecretKey = "insecure-development-secret"
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
