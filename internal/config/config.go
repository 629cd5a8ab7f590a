package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Redis    RedisConfig
	Session  SessionConfig
	Database DatabaseConfig
}

type ServerConfig struct {
	Port        string
	Environment string
	RateLimit   RateLimitConfig
}

// UpstreamConfig points the gateway at the care-platform REST API.
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type SessionConfig struct {
	Secret         string
	CookieName     string
	TTL            time.Duration
	ResendCooldown time.Duration
}

// DatabaseConfig holds the Postgres settings for the audit log. The audit log
// falls back to an in-memory ring when Enabled is false.
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RateLimitConfig struct {
	Enabled bool
	Limit   int
	Window  time.Duration
}

// DefaultUpstreamBaseURL is the documented deployment host used when
// UPSTREAM_BASE_URL is not set.
const DefaultUpstreamBaseURL = "https://api.caregrid.io"

func Load() (*Config, error) {
	godotenv.Load() // ignore error — plain env vars are used when no .env exists

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	rateLimit, _ := strconv.Atoi(getEnv("RATE_LIMIT", "100"))
	rateLimitWindow, _ := strconv.Atoi(getEnv("RATE_LIMIT_WINDOW", "60"))
	upstreamTimeout, _ := strconv.Atoi(getEnv("UPSTREAM_TIMEOUT_SECONDS", "30"))
	sessionTTL, _ := strconv.Atoi(getEnv("SESSION_TTL_HOURS", "24"))
	resendCooldown, _ := strconv.Atoi(getEnv("OTP_RESEND_COOLDOWN_SECONDS", "30"))

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			RateLimit: RateLimitConfig{
				Enabled: getEnv("RATE_LIMIT_ENABLED", "true") == "true",
				Limit:   rateLimit,
				Window:  time.Duration(rateLimitWindow) * time.Second,
			},
		},
		Upstream: UpstreamConfig{
			BaseURL: getEnv("UPSTREAM_BASE_URL", DefaultUpstreamBaseURL),
			Timeout: time.Duration(upstreamTimeout) * time.Second,
		},
		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ENABLED", "false") == "true",
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Session: SessionConfig{
			Secret:         getEnv("SESSION_SECRET", "your-secret-key"),
			CookieName:     getEnv("SESSION_COOKIE_NAME", "caregate_session"),
			TTL:            time.Duration(sessionTTL) * time.Hour,
			ResendCooldown: time.Duration(resendCooldown) * time.Second,
		},
		Database: DatabaseConfig{
			Enabled:  getEnv("AUDIT_DB_ENABLED", "false") == "true",
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "caregate"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
