package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string
	ServerPort  string
	BaseURL     string
	FrontendURL string

	// Primary (hosted) model provider
	OpenAIKey string
	AIModel   string
	AIBaseURL string

	// Secondary (local) fallback provider
	OllamaURL   string
	OllamaModel string

	// Gateway policy. Constants of the system, surfaced as configuration
	// rather than load-bearing business rules.
	PrimaryRetries  int
	RetryBaseDelay  time.Duration
	GenerateTimeout time.Duration
	ProbeTimeout    time.Duration

	// Command center tuning
	ConfirmationThreshold int
	UndoWindow            time.Duration
	HistorySize           int
	HistoryContext        int

	// Auth
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURI  string
	JWKSURL          string

	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int
	RateLimit        string

	EnableHSTS      bool
	ServerDebugMode bool
	WorkerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		OpenAIKey: getEnv("OPENAI_API_KEY", ""),
		AIModel:   getEnv("AI_MODEL", ""),
		AIBaseURL: getEnv("AI_BASE_URL", ""),

		OllamaURL:   getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel: getEnv("OLLAMA_MODEL", "llama3.1"),

		PrimaryRetries:  getEnvInt("AI_PRIMARY_RETRIES", 3),
		RetryBaseDelay:  getEnvDuration("AI_RETRY_BASE_DELAY", 500*time.Millisecond),
		GenerateTimeout: getEnvDuration("AI_GENERATE_TIMEOUT", 30*time.Second),
		ProbeTimeout:    getEnvDuration("AI_PROBE_TIMEOUT", 2*time.Second),

		ConfirmationThreshold: getEnvInt("COMMAND_CONFIRMATION_THRESHOLD", 2),
		UndoWindow:            getEnvDuration("COMMAND_UNDO_WINDOW", 8*time.Second),
		HistorySize:           getEnvInt("COMMAND_HISTORY_SIZE", 20),
		HistoryContext:        getEnvInt("COMMAND_HISTORY_CONTEXT", 3),

		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURI:  getEnv("OIDC_REDIRECT_URI", ""),
		JWKSURL:          getEnv("OIDC_JWKS_URL", ""),

		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
		RateLimit:        getEnv("RATE_LIMIT", "5-S"),

		EnableHSTS:      getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode: getEnvBool("SERVER_DEBUG_MODE", false),
		WorkerDebugMode: getEnvBool("WORKER_DEBUG_MODE", false),
		OTELEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required for store-sync retry jobs")
	}

	if cfg.JWKSURL == "" {
		return nil, fmt.Errorf("OIDC_JWKS_URL is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
