package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// Logging Configuration
	Logging LoggingConfig

	// HTTP listener and CORS
	HTTP HTTPConfig

	// Event bus
	Events EventsConfig

	// Contact form relay
	Relay RelayConfig

	// Location suggester
	AI AIConfig

	// Billboard image storage
	Media MediaConfig

	// Token issuance
	Auth AuthConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// HTTPConfig holds the API listener configuration
type HTTPConfig struct {
	Port           string
	AllowedOrigins []string
}

// EventsConfig selects the event bus implementation
type EventsConfig struct {
	NATSURL string // empty = in-process bus
}

// RelayConfig holds the outbound contact form relay settings
type RelayConfig struct {
	URL         string // empty = inquiries are stored but never forwarded
	MaxAttempts int
}

// AIConfig holds generative model credentials
type AIConfig struct {
	APIKey string
	Model  string
}

// MediaConfig holds S3-compatible storage settings for billboard images
type MediaConfig struct {
	Bucket        string // empty = uploads disabled
	Region        string
	Endpoint      string // optional, enables path-style addressing (MinIO)
	PublicBaseURL string
}

// AuthConfig holds token settings
type AuthConfig struct {
	TokenTTL time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	maxAttempts, err := intEnv("FORM_RELAY_MAX_ATTEMPTS", 5)
	if err != nil {
		return nil, err
	}

	tokenTTL, err := durationEnv("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	return &Config{
		Database: DatabaseConfig{
			URL: stringEnv("DATABASE_URL", "adspot.sqlite"),
		},
		Redis: RedisConfig{
			Address: stringEnv("REDIS_ADDRESS", "localhost:6379"),
		},
		Logging: LoggingConfig{
			Level:  stringEnv("LOG_LEVEL", "info"),
			Format: stringEnv("LOG_FORMAT", "json"),
		},
		HTTP: HTTPConfig{
			Port:           stringEnv("PORT", "8080"),
			AllowedOrigins: listEnv("CORS_ORIGINS", []string{"http://localhost:3000"}),
		},
		Events: EventsConfig{
			NATSURL: os.Getenv("NATS_URL"),
		},
		Relay: RelayConfig{
			URL:         os.Getenv("FORM_RELAY_URL"),
			MaxAttempts: maxAttempts,
		},
		AI: AIConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  stringEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Media: MediaConfig{
			Bucket:        os.Getenv("MEDIA_BUCKET"),
			Region:        stringEnv("AWS_REGION", "us-east-1"),
			Endpoint:      os.Getenv("MEDIA_ENDPOINT"),
			PublicBaseURL: os.Getenv("MEDIA_PUBLIC_URL"),
		},
		Auth: AuthConfig{
			TokenTTL: tokenTTL,
		},
	}, nil
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func listEnv(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if v < 1 {
		return 0, fmt.Errorf("invalid %s %q: must be at least 1", key, raw)
	}
	return v, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, raw)
	}
	return v, nil
}
