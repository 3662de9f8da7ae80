// Package config loads server settings from the environment and an optional
// .env file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string
	LogLevel   string

	JWTSecret     string
	PatternAPIURL string

	// HistoryLimit bounds each editor's undo stack; 0 keeps it unbounded.
	HistoryLimit int

	// Draft storage
	StorageType      string
	LocalStoragePath string
	DataSourceName   string
	S3BucketName     string
	DatabaseURL      string
}

// ParseError reports an environment variable with an unusable value.
type ParseError struct {
	Key   string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %v", e.Value, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	historyLimit, err := getEnvInt("HISTORY_LIMIT", 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":3002"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		PatternAPIURL: getEnv("PATTERN_API_URL", "http://localhost:8080/api"),

		HistoryLimit: historyLimit,

		StorageType:      getEnv("STORAGE_TYPE", "memory"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./data"),
		DataSourceName:   getEnv("DATA_SOURCE_NAME", "pattern-studio.db"),
		S3BucketName:     getEnv("S3_BUCKET_NAME", ""),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
	}

	if cfg.HistoryLimit < 0 {
		return nil, &ParseError{Key: "HISTORY_LIMIT", Value: strconv.Itoa(cfg.HistoryLimit), Err: fmt.Errorf("must not be negative")}
	}
	return cfg, nil
}

// Validate checks the settings the HTTP server cannot run without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.StorageType {
	case "s3":
		if c.S3BucketName == "" {
			return fmt.Errorf("S3_BUCKET_NAME is required for s3 storage")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres storage")
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &ParseError{Key: key, Value: value, Err: err}
	}
	return n, nil
}
