package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/bitmerch/bitmerch/pkg/idempotency"
	"github.com/bitmerch/bitmerch/pkg/jwtx"
)

// ErrMissingSecret reports an unset required secret at startup.
var ErrMissingSecret = errors.New("required secret not configured")

type Config struct {
	AccessTokenSecret  string        // Required: HS256 secret for access tokens
	RefreshTokenSecret string        // Required: HS256 secret for refresh tokens
	TokenIssuer        string        // Optional: iss claim (default: bitmerch-api)
	TokenAudience      string        // Optional: aud claim (default: bitmerch-clients)
	AccessTokenTTL     time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTokenTTL    time.Duration // Optional: refresh token lifetime (default: 30m)

	PaystackBaseURL   string // Optional: payment gateway base URL
	PaystackSecretKey string // Required: payment gateway API key
	ArchiveAPIBaseURL string // Optional: conversion service base URL
	ArchiveAPISecret  string // Required: conversion service API key

	AdminRole  string // Optional: role tag granting upload rights (default: admin)
	ClientRole string // Optional: role assigned at registration (default: client)

	DatabaseFile   string        // Optional: path to SQLite database file (default: ./bitmerch.db)
	UploadDir      string        // Optional: directory for uploaded archives (default: ./public)
	IdempotencyTTL time.Duration // Optional: duplicate-download window (default: 20m)
	AllowedOrigin  string        // Optional: CORS allow-list entry

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 7000)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		AccessTokenSecret:  os.Getenv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: os.Getenv("REFRESH_TOKEN_SECRET"),
		TokenIssuer:        getEnvOrDefault("TOKEN_ISSUER", "bitmerch-api"),
		TokenAudience:      getEnvOrDefault("TOKEN_AUDIENCE", "bitmerch-clients"),
		AccessTokenTTL:     getEnvDurationOrDefault("ACCESS_TOKEN_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTokenTTL:    getEnvDurationOrDefault("REFRESH_TOKEN_TTL", jwtx.DefaultRefreshTokenTTL),

		PaystackBaseURL:   getEnvOrDefault("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		PaystackSecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
		ArchiveAPIBaseURL: getEnvOrDefault("ARCHIVE_API_BASE_URL", "https://v2.convertapi.com"),
		ArchiveAPISecret:  os.Getenv("ARCHIVE_API_SECRET"),

		AdminRole:  getEnvOrDefault("ADMIN_ROLE", "admin"),
		ClientRole: getEnvOrDefault("CLIENT_ROLE", "client"),

		DatabaseFile:   getEnvOrDefault("DATABASE_FILE", "bitmerch.db"),
		UploadDir:      getEnvOrDefault("UPLOAD_DIR", "public"),
		IdempotencyTTL: getEnvDurationOrDefault("IDEMPOTENCY_TTL", idempotency.DefaultTTL),
		AllowedOrigin:  os.Getenv("ALLOWED_ORIGIN"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 7000),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate rejects configurations the service must not start with. Token
// secrets have no workable default; running without them would mint
// unverifiable tokens.
func (c Config) Validate() error {
	if c.AccessTokenSecret == "" {
		return fmt.Errorf("%w: ACCESS_TOKEN_SECRET", ErrMissingSecret)
	}
	if c.RefreshTokenSecret == "" {
		return fmt.Errorf("%w: REFRESH_TOKEN_SECRET", ErrMissingSecret)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Duration syntax first (e.g. "1h", "30m", "90s").
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are taken as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
