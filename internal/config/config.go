package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the configuration for the application.
type Config struct {
	// LLM providers. The Gemini key is optional on purpose: when it is empty
	// the menu pipeline runs in fallback-only mode instead of failing.
	GeminiAPIKey string
	GroqAPIKey   string
	LLMProvider  string // "gemini" or "groq"

	DatabasePath        string
	SnapshotArchivePath string
	EmbeddingCachePath  string

	// Generation defaults
	DefaultDays        int
	DefaultMealsPerDay int
	GenerationTimeout  time.Duration

	// Telegram Config (optional for CLI, required for the bot)
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64

	// Logging
	LogLevel  string
	LogFormat string // "json" or "text"
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "data/nutri-planner.db")

	days, err := getEnvInt("DEFAULT_PLAN_DAYS", 7)
	if err != nil {
		return nil, err
	}
	meals, err := getEnvInt("DEFAULT_MEALS_PER_DAY", 3)
	if err != nil {
		return nil, err
	}
	timeoutSec, err := getEnvInt("GENERATION_TIMEOUT_SECONDS", 25)
	if err != nil {
		return nil, err
	}

	provider := getEnvOrDefault("LLM_PROVIDER", "gemini")
	if provider != "gemini" && provider != "groq" {
		return nil, fmt.Errorf("LLM_PROVIDER must be 'gemini' or 'groq', got %q", provider)
	}

	allowedIDs, err := parseInt64List(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS: %w", err)
	}

	var adminID int64
	if raw := os.Getenv("ADMIN_TELEGRAM_ID"); raw != "" {
		adminID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	return &Config{
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		GroqAPIKey:             os.Getenv("GROQ_API_KEY"),
		LLMProvider:            provider,
		DatabasePath:           dbPath,
		SnapshotArchivePath:    getEnvOrDefault("SNAPSHOT_ARCHIVE_PATH", "data/snapshots"),
		EmbeddingCachePath:     getEnvOrDefault("EMBEDDING_CACHE_PATH", "data/embedding_cache.json"),
		DefaultDays:            days,
		DefaultMealsPerDay:     meals,
		GenerationTimeout:      time.Duration(timeoutSec) * time.Second,
		TelegramBotToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:     os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramAllowedUserIDs: allowedIDs,
		AdminTelegramID:        adminID,
		LogLevel:               getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:              getEnvOrDefault("LOG_FORMAT", "text"),
	}, nil
}

// GenerationConfigured reports whether a text-generation credential is present
// for the selected provider.
func (c *Config) GenerationConfigured() bool {
	switch c.LLMProvider {
	case "groq":
		return c.GroqAPIKey != ""
	default:
		return c.GeminiAPIKey != ""
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, v)
	}
	return v, nil
}

func parseInt64List(raw string) ([]int64, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
