// Package config loads the application configuration from environment
// variables, with optional .env support for development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries every runtime setting in one place.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Stream   StreamConfig
	Email    EmailConfig
	Redis    RedisConfig
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds the SQLite settings.
type DatabaseConfig struct {
	Path string // SQLite file path (e.g. ./data/sandwich.db)
}

// JWTConfig holds the access token settings.
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry int // minutes
}

// StreamConfig holds the Stream Chat SaaS credentials. Both values empty
// means the Stream integration is disabled and the credentials endpoint
// returns 503.
type StreamConfig struct {
	APIKey    string
	APISecret string
}

// EmailConfig holds the Resend settings for offline-message notifications.
// Empty values disable email entirely.
type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string
	AppURL       string
}

// RedisConfig holds the optional pub/sub bridge settings. An empty Addr
// keeps fan-out in-process, which is the single-instance default.
type RedisConfig struct {
	Addr     string
	Password string
	Channel  string
}

// Load builds a Config from the environment. A .env file is loaded first
// when present; in production the real environment wins.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	accessExpiry, err := strconv.Atoi(getEnv("JWT_ACCESS_EXPIRY_MINUTES", "720"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRY_MINUTES: %w", err)
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: port,
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/sandwich.db"),
		},
		JWT: JWTConfig{
			Secret:            jwtSecret,
			AccessTokenExpiry: accessExpiry,
		},
		Stream: StreamConfig{
			APIKey:    getEnv("STREAM_API_KEY", ""),
			APISecret: getEnv("STREAM_API_SECRET", ""),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			FromEmail:    getEnv("RESEND_FROM", ""),
			AppURL:       getEnv("APP_URL", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			Channel:  getEnv("REDIS_FANOUT_CHANNEL", "sandwich:notify"),
		},
	}

	return cfg, nil
}

// Addr returns the listen address, e.g. "0.0.0.0:8080".
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
