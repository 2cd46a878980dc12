package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the chat concierge service.
// Adapters receive their slice of it at construction; nothing reads
// process-wide mutable state after Load returns.
type Config struct {
	BindAddr                 string
	ShutdownTimeout          time.Duration
	SessionInactivityTimeout time.Duration
	MetricsNamespace         string

	AllowAnyOrigin bool

	HistoryRetention int

	CompletionMode        string
	AzureOpenAIEndpoint   string
	AzureOpenAIAPIKey     string
	AzureOpenAIDeployment string
	AzureOpenAIAPIVersion string
	CompletionTimeout     time.Duration
	CompletionMaxAttempts int

	CatalogAPIURL       string
	CatalogTokenURL     string
	CatalogClientID     string
	CatalogClientSecret string
	CatalogScope        string
	CatalogAuthToken    string
	CatalogBigID        string
	CatalogSKUID        string
	CatalogMarket       string
	CatalogLanguage     string
	CatalogTimeout      time.Duration

	AccountAPIURL    string
	AccountAuthToken string
	AccountTimeout   time.Duration

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "chatagent"),
		AllowAnyOrigin:   false,
		HistoryRetention: 9,

		CompletionMode:        envOrDefault("COMPLETION_MODE", "auto"),
		AzureOpenAIEndpoint:   stringsTrimSpace("AZURE_OPENAI_ENDPOINT"),
		AzureOpenAIAPIKey:     stringsTrimSpace("AZURE_OPENAI_API_KEY"),
		AzureOpenAIDeployment: envOrDefault("AZURE_OPENAI_DEPLOYMENT", "gpt-4o-mini"),
		AzureOpenAIAPIVersion: envOrDefault("AZURE_OPENAI_API_VERSION", "2024-06-01"),
		CompletionTimeout:     30 * time.Second,
		CompletionMaxAttempts: 2,

		CatalogAPIURL:       stringsTrimSpace("CATALOG_API_URL"),
		CatalogTokenURL:     stringsTrimSpace("CATALOG_TOKEN_URL"),
		CatalogClientID:     stringsTrimSpace("CATALOG_CLIENT_ID"),
		CatalogClientSecret: stringsTrimSpace("CATALOG_CLIENT_SECRET"),
		CatalogScope:        stringsTrimSpace("CATALOG_SCOPE"),
		CatalogAuthToken:    stringsTrimSpace("CATALOG_AUTH_TOKEN"),
		CatalogBigID:        envOrDefault("CATALOG_BIG_ID", "8MZBMMCK15WZ"),
		CatalogSKUID:        envOrDefault("CATALOG_SKU_ID", "0001"),
		CatalogMarket:       envOrDefault("CATALOG_MARKET", "US"),
		CatalogLanguage:     envOrDefault("CATALOG_LANGUAGE", "en-US"),
		CatalogTimeout:      15 * time.Second,

		AccountAPIURL:    stringsTrimSpace("ACCOUNT_API_URL"),
		AccountAuthToken: stringsTrimSpace("ACCOUNT_AUTH_TOKEN"),
		AccountTimeout:   20 * time.Second,

		DatabaseURL: stringsTrimSpace("DATABASE_URL"),

		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 5 * time.Minute,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CompletionTimeout, err = durationFromEnv("COMPLETION_TIMEOUT", cfg.CompletionTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CatalogTimeout, err = durationFromEnv("CATALOG_TIMEOUT", cfg.CatalogTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AccountTimeout, err = durationFromEnv("ACCOUNT_TIMEOUT", cfg.AccountTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryRetention, err = intFromEnv("APP_HISTORY_RETENTION", cfg.HistoryRetention)
	if err != nil {
		return Config{}, err
	}
	cfg.CompletionMaxAttempts, err = intFromEnv("COMPLETION_MAX_ATTEMPTS", cfg.CompletionMaxAttempts)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.HistoryRetention <= 0 {
		return Config{}, fmt.Errorf("APP_HISTORY_RETENTION must be positive")
	}
	if cfg.CompletionTimeout <= 0 {
		return Config{}, fmt.Errorf("COMPLETION_TIMEOUT must be positive")
	}
	if cfg.CompletionMaxAttempts < 1 || cfg.CompletionMaxAttempts > 5 {
		return Config{}, fmt.Errorf("COMPLETION_MAX_ATTEMPTS must be between 1 and 5")
	}
	if cfg.CatalogTimeout <= 0 {
		return Config{}, fmt.Errorf("CATALOG_TIMEOUT must be positive")
	}
	if cfg.AccountTimeout <= 0 {
		return Config{}, fmt.Errorf("ACCOUNT_TIMEOUT must be positive")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.CompletionMode)) {
	case "auto", "azure", "mock":
	default:
		return Config{}, fmt.Errorf("COMPLETION_MODE must be auto, azure or mock")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
