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

	if cfg.Server.Address != ":8080" {
		t.Errorf("expected default address :8080, got %s", cfg.Server.Address)
	}
	if cfg.Server.Environment != "local" {
		t.Errorf("unexpected environment %s", cfg.Server.Environment)
	}
	if cfg.Server.RequestTimeout != 60*time.Second {
		t.Errorf("unexpected request timeout %s", cfg.Server.RequestTimeout)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("unexpected log level %s", cfg.Log.Level)
	}
	if cfg.Session.CookieName != "portal_session" || cfg.Session.IdleTimeout != 30*time.Minute || cfg.Session.Lifetime != 12*time.Hour {
		t.Errorf("unexpected session defaults %+v", cfg.Session)
	}
	if len(cfg.Session.HashKey) != 0 {
		t.Errorf("expected no hash key by default")
	}
	if cfg.CSRF.CookieName != "portal_csrf" || cfg.CSRF.HeaderName != "X-CSRF-Token" {
		t.Errorf("unexpected csrf defaults %+v", cfg.CSRF)
	}
	if cfg.Auth.Mode != AuthModeDirectory {
		t.Errorf("expected directory mode, got %s", cfg.Auth.Mode)
	}
	if cfg.Auth.Timeout != 0 {
		t.Errorf("expected no auth timeout, got %s", cfg.Auth.Timeout)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"PORTAL_HTTP_ADDR":             ":9090",
		"PORTAL_LOG_LEVEL":             "debug",
		"PORTAL_SESSION_COOKIE_SECURE": "true",
		"PORTAL_SESSION_HASH_KEY":      "3132333435363738393031323334353637383930313233343536373839303132",
		"PORTAL_SESSION_BLOCK_KEY":     "YWJjZGVmZ2hpamtsbW5vcHFyc3R1dnd4eXoxMjM0NTY=",
		"PORTAL_SESSION_IDLE_TIMEOUT":  "5m",
		"PORTAL_AUTH_MODE":             "HTTP",
		"PORTAL_AUTH_ENDPOINT":         "https://auth.example.com/sign-in/email",
		"PORTAL_AUTH_TIMEOUT":          "8s",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Address != ":9090" || cfg.Log.Level != "debug" {
		t.Errorf("unexpected server/log config %+v %+v", cfg.Server, cfg.Log)
	}
	if !cfg.Session.CookieSecure {
		t.Errorf("expected secure cookie")
	}
	if string(cfg.Session.HashKey) != "12345678901234567890123456789012" {
		t.Errorf("unexpected hash key %q", cfg.Session.HashKey)
	}
	if len(cfg.Session.BlockKey) != 32 {
		t.Errorf("expected 32 byte block key, got %d", len(cfg.Session.BlockKey))
	}
	if cfg.Session.IdleTimeout != 5*time.Minute {
		t.Errorf("unexpected idle timeout %s", cfg.Session.IdleTimeout)
	}
	if cfg.Auth.Mode != AuthModeHTTP || cfg.Auth.Endpoint != "https://auth.example.com/sign-in/email" || cfg.Auth.Timeout != 8*time.Second {
		t.Errorf("unexpected auth config %+v", cfg.Auth)
	}
}

func TestLoadReportsValidationErrors(t *testing.T) {
	env := map[string]string{
		"PORTAL_AUTH_MODE":            "firebase",
		"PORTAL_SESSION_IDLE_TIMEOUT": "soon",
		"PORTAL_SESSION_BLOCK_KEY":    "00ff",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	want := []string{
		"PORTAL_FIREBASE_API_KEY",
		"PORTAL_FIREBASE_PROJECT_ID",
		"PORTAL_SESSION_BLOCK_KEY",
		"PORTAL_SESSION_HASH_KEY",
		"PORTAL_SESSION_IDLE_TIMEOUT",
	}
	got := verr.Fields()
	if len(got) != len(want) {
		t.Fatalf("expected fields %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected fields %v, got %v", want, got)
		}
	}
}

func TestLoadRejectsUnknownMode(t *testing.T) {
	_, err := Load(context.Background(), WithEnvMap(map[string]string{"PORTAL_AUTH_MODE": "ldap"}), WithoutSystemEnv(), WithEnvFile(""))
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Problems["PORTAL_AUTH_MODE"] == "" {
		t.Fatalf("expected PORTAL_AUTH_MODE problem, got %v", err)
	}
}

func TestLoadReadsDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "PORTAL_HTTP_ADDR=:7070\nPORTAL_DIRECTORY_FILE=./users.yaml\n# comment\nPORTAL_LOG_LEVEL=warn\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(context.Background(),
		WithEnvFile(path),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{"PORTAL_LOG_LEVEL": "error"}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Address != ":7070" {
		t.Errorf("expected address from file, got %s", cfg.Server.Address)
	}
	if cfg.Auth.DirectoryFile != "./users.yaml" {
		t.Errorf("expected directory file from env file, got %s", cfg.Auth.DirectoryFile)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("expected explicit override to win, got %s", cfg.Log.Level)
	}
}

func TestLoadIgnoresMissingDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.env")
	if _, err := Load(context.Background(), WithEnvFile(path), WithoutSystemEnv()); err != nil {
		t.Fatalf("expected missing env file to be ignored, got %v", err)
	}
}
