package config

import (
	"testing"
	"time"
)

func TestLoad_RequiredFields(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("RABBITMQ_URL", "amqp://localhost")
	t.Setenv("OIDC_JWKS_URL", "https://issuer/.well-known/jwks.json")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is missing")
	}

	t.Setenv("DATABASE_URL", "postgres://localhost/taskdeck")
	t.Setenv("RABBITMQ_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when RABBITMQ_URL is missing")
	}

	t.Setenv("RABBITMQ_URL", "amqp://localhost")
	t.Setenv("OIDC_JWKS_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when OIDC_JWKS_URL is missing")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/taskdeck")
	t.Setenv("RABBITMQ_URL", "amqp://localhost")
	t.Setenv("OIDC_JWKS_URL", "https://issuer/.well-known/jwks.json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Errorf("expected default server port 8080, got %s", cfg.ServerPort)
	}
	if cfg.PrimaryRetries != 3 {
		t.Errorf("expected 3 primary retries, got %d", cfg.PrimaryRetries)
	}
	if cfg.RetryBaseDelay != 500*time.Millisecond {
		t.Errorf("expected 500ms retry base delay, got %s", cfg.RetryBaseDelay)
	}
	if cfg.ConfirmationThreshold != 2 {
		t.Errorf("expected confirmation threshold 2, got %d", cfg.ConfirmationThreshold)
	}
	if cfg.UndoWindow != 8*time.Second {
		t.Errorf("expected 8s undo window, got %s", cfg.UndoWindow)
	}
	if cfg.OllamaURL != "http://localhost:11434" {
		t.Errorf("unexpected default ollama url: %s", cfg.OllamaURL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/taskdeck")
	t.Setenv("RABBITMQ_URL", "amqp://localhost")
	t.Setenv("OIDC_JWKS_URL", "https://issuer/.well-known/jwks.json")
	t.Setenv("AI_PRIMARY_RETRIES", "5")
	t.Setenv("COMMAND_UNDO_WINDOW", "12s")
	t.Setenv("SERVER_DEBUG_MODE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.PrimaryRetries != 5 {
		t.Errorf("expected 5 primary retries, got %d", cfg.PrimaryRetries)
	}
	if cfg.UndoWindow != 12*time.Second {
		t.Errorf("expected 12s undo window, got %s", cfg.UndoWindow)
	}
	if !cfg.ServerDebugMode {
		t.Error("expected server debug mode enabled")
	}
}
