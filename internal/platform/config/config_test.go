package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if !cfg.IsLocal() {
		t.Errorf("expected local environment, got %s", cfg.Environment)
	}
	if cfg.Session.Secure {
		t.Errorf("expected insecure cookies locally")
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Errorf("expected memory backend, got %s", cfg.Storage.Backend)
	}
	if cfg.Storage.KeyPrefix != "pdp" {
		t.Errorf("unexpected key prefix %s", cfg.Storage.KeyPrefix)
	}
	if cfg.Page.IdleTimeout != 30*time.Minute {
		t.Errorf("unexpected idle timeout %s", cfg.Page.IdleTimeout)
	}
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("unexpected log level %s", cfg.Observability.LogLevel)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"PDP_ENVIRONMENT":           "prod",
		"PDP_SERVER_PORT":           "9090",
		"PDP_SERVER_READ_TIMEOUT":   "20s",
		"PDP_SESSION_HASH_KEY":      "0123456789abcdef0123456789abcdef",
		"PDP_STORAGE_BACKEND":       "REDIS",
		"PDP_REDIS_ADDR":            "redis:6379",
		"PDP_REDIS_DB":              "3",
		"PDP_REDIS_CONNECT_RETRIES": "2",
		"PDP_REDIS_TTL":             "720h",
		"PDP_PAGE_IDLE_TIMEOUT":     "5m",
		"PDP_GCP_PROJECT_ID":        "hf-prod",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port override, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 20*time.Second {
		t.Errorf("unexpected read timeout %s", cfg.Server.ReadTimeout)
	}
	if !cfg.Session.Secure {
		t.Errorf("expected secure cookies outside local")
	}
	if cfg.Storage.Backend != BackendRedis {
		t.Errorf("expected redis backend, got %s", cfg.Storage.Backend)
	}
	if cfg.Storage.Redis.DB != 3 || cfg.Storage.Redis.ConnectRetries != 2 || cfg.Storage.Redis.TTL != 720*time.Hour {
		t.Errorf("unexpected redis config %+v", cfg.Storage.Redis)
	}
	if cfg.Page.IdleTimeout != 5*time.Minute {
		t.Errorf("unexpected idle timeout %s", cfg.Page.IdleTimeout)
	}
	if cfg.Storage.Firestore.ProjectID != "hf-prod" {
		t.Errorf("expected firestore project to default to gcp project, got %s", cfg.Storage.Firestore.ProjectID)
	}
}

func TestLoadValidation(t *testing.T) {
	env := map[string]string{
		"PDP_ENVIRONMENT":       "prod",
		"PDP_STORAGE_BACKEND":   "firestore",
		"PDP_SESSION_BLOCK_KEY": "short",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	want := map[string]bool{
		"Session.HashKey":             true,
		"Session.BlockKey":            true,
		"Storage.Firestore.ProjectID": true,
	}
	for _, field := range vErr.Fields() {
		delete(want, field)
	}
	if len(want) != 0 {
		t.Fatalf("missing expected validation fields %v in %v", want, vErr.Fields())
	}
}

func TestLoadRejectsNegativeRedisTTL(t *testing.T) {
	env := map[string]string{"PDP_STORAGE_BACKEND": "redis", "PDP_REDIS_TTL": "-1h"}
	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if fields := vErr.Fields(); len(fields) != 1 || fields[0] != "Storage.Redis.TTL" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	_, err := Load(context.Background(), WithEnvMap(map[string]string{"PDP_STORAGE_BACKEND": "sqlite"}), WithoutSystemEnv(), WithEnvFile(""))
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestLoadDotEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# local overrides\nexport PDP_SERVER_PORT=7070\nPDP_LOG_LEVEL=\"debug\"\nPDP_STORAGE_BACKEND=file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(context.Background(),
		WithEnvFile(path),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{"PDP_SERVER_PORT": "6060"}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "6060" {
		t.Errorf("expected env map to win over .env, got %s", cfg.Server.Port)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected quoted .env value to be unwrapped, got %s", cfg.Observability.LogLevel)
	}
	if cfg.Storage.Backend != BackendFile || cfg.Storage.FilePath != "data/preferences.json" {
		t.Errorf("unexpected storage config %+v", cfg.Storage)
	}
}

func TestLoadPlatformFallbacks(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvMap(map[string]string{
		"PORT":               "3000",
		"LOG_LEVEL":          "warn",
		"PDP_SESSION_SECURE": "true",
	}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "3000" {
		t.Errorf("expected PORT fallback, got %s", cfg.Server.Port)
	}
	if cfg.Observability.LogLevel != "warn" {
		t.Errorf("expected LOG_LEVEL fallback, got %s", cfg.Observability.LogLevel)
	}
	if !cfg.Session.Secure {
		t.Errorf("expected explicit secure flag to win locally")
	}

	cfg, err = Load(context.Background(), WithEnvMap(map[string]string{
		"PORT":            "3000",
		"PDP_SERVER_PORT": "4000",
	}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "4000" {
		t.Errorf("expected prefixed port to win, got %s", cfg.Server.Port)
	}
}

func TestLoadMalformedValue(t *testing.T) {
	_, err := Load(context.Background(), WithEnvMap(map[string]string{"PDP_PAGE_IDLE_TIMEOUT": "soon"}), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatalf("expected parse error")
	}
}
