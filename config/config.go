package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	API     APIConfig
	Auth    AuthConfig
	Log     LogConfig
	Journal JournalConfig
	Browse  BrowseConfig
}

type APIConfig struct {
	// BaseURLs lists the backend replicas; the endpoint manager picks the
	// healthiest one per request.
	BaseURLs []string
	Timeout  time.Duration
}

type AuthConfig struct {
	Email    string
	Password string
	// Token short-circuits the login flow when set.
	Token string
}

type LogConfig struct {
	Level    string
	Encoding string
}

type JournalConfig struct {
	// DatabaseURL enables the Postgres journal; empty falls back to FilePath.
	DatabaseURL string
	FilePath    string
}

type BrowseConfig struct {
	Workers      int
	RequestDelay time.Duration
}

func Load() (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := &Config{
		API: APIConfig{
			BaseURLs: getEnvAsSlice("CINEBOOK_API_URLS", []string{"http://localhost:8080"}),
			Timeout:  getEnvAsDuration("CINEBOOK_API_TIMEOUT", 30*time.Second),
		},
		Auth: AuthConfig{
			Email:    getEnv("CINEBOOK_EMAIL", ""),
			Password: getEnv("CINEBOOK_PASSWORD", ""),
			Token:    getEnv("CINEBOOK_TOKEN", ""),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "console"),
		},
		Journal: JournalConfig{
			DatabaseURL: getEnv("DATABASE_URL", ""),
			FilePath:    getEnv("CINEBOOK_JOURNAL_FILE", "booking_journal.log"),
		},
		Browse: BrowseConfig{
			Workers:      getEnvAsInt("CINEBOOK_BROWSE_WORKERS", 10),
			RequestDelay: getEnvAsDuration("CINEBOOK_BROWSE_DELAY", 100*time.Millisecond),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.API.BaseURLs) == 0 {
		return fmt.Errorf("at least one API base URL is required")
	}
	for _, u := range c.API.BaseURLs {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return fmt.Errorf("invalid API base URL: %q", u)
		}
	}
	if c.Browse.Workers <= 0 {
		return fmt.Errorf("browse workers must be positive, got %d", c.Browse.Workers)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
