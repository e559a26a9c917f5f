package config

import (
	"testing"
	"time"
)

// TestLoadDefaults tests that Load applies defaults when the environment is empty
func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		EnvTranslateAPIURL, EnvAddr, EnvStorageDir, EnvMaxUploadBytes,
		EnvRequestTimeout, EnvCleanupGrace, EnvTranslateConcurrency, EnvAppEnv,
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.TranslateAPIURL != DefaultTranslateAPIURL {
		t.Errorf("TranslateAPIURL = %q, want %q", cfg.TranslateAPIURL, DefaultTranslateAPIURL)
	}
	if cfg.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want %q", cfg.Addr, DefaultAddr)
	}
	if cfg.MaxUploadBytes != DefaultMaxUploadBytes {
		t.Errorf("MaxUploadBytes = %d, want %d", cfg.MaxUploadBytes, int64(DefaultMaxUploadBytes))
	}
	if cfg.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("RequestTimeout = %v, want %v", cfg.RequestTimeout, DefaultRequestTimeout)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", cfg.Concurrency, DefaultConcurrency)
	}
}

// TestLoadFromEnvironment tests that environment values override defaults
func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv(EnvTranslateAPIURL, "http://translate.internal:5000")
	t.Setenv(EnvAddr, ":9090")
	t.Setenv(EnvMaxUploadBytes, "1048576")
	t.Setenv(EnvRequestTimeout, "90s")
	t.Setenv(EnvTranslateConcurrency, "5")
	t.Setenv(EnvAppEnv, "production")

	cfg := Load()

	if cfg.TranslateAPIURL != "http://translate.internal:5000" {
		t.Errorf("TranslateAPIURL = %q", cfg.TranslateAPIURL)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.MaxUploadBytes != 1048576 {
		t.Errorf("MaxUploadBytes = %d, want 1048576", cfg.MaxUploadBytes)
	}
	if cfg.RequestTimeout != 90*time.Second {
		t.Errorf("RequestTimeout = %v, want 90s", cfg.RequestTimeout)
	}
	if cfg.Concurrency != 5 {
		t.Errorf("Concurrency = %d, want 5", cfg.Concurrency)
	}
	if cfg.AppEnv != "production" {
		t.Errorf("AppEnv = %q, want production", cfg.AppEnv)
	}
}

// TestLoadInvalidValues tests that malformed values fall back to defaults
func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric size", EnvMaxUploadBytes, "lots"},
		{"negative size", EnvMaxUploadBytes, "-1"},
		{"non-duration timeout", EnvRequestTimeout, "soon"},
		{"zero concurrency", EnvTranslateConcurrency, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg := Load()
			if cfg.MaxUploadBytes != DefaultMaxUploadBytes && tt.key == EnvMaxUploadBytes {
				t.Errorf("MaxUploadBytes = %d, want default", cfg.MaxUploadBytes)
			}
			if cfg.RequestTimeout != DefaultRequestTimeout && tt.key == EnvRequestTimeout {
				t.Errorf("RequestTimeout = %v, want default", cfg.RequestTimeout)
			}
			if cfg.Concurrency != DefaultConcurrency && tt.key == EnvTranslateConcurrency {
				t.Errorf("Concurrency = %d, want default", cfg.Concurrency)
			}
		})
	}
}

// TestLogLevel tests the environment-to-level mapping
func TestLogLevel(t *testing.T) {
	cfg := &Config{AppEnv: "production"}
	if got := cfg.LogLevel(); got.String() != "INFO" {
		t.Errorf("LogLevel() = %v, want INFO", got)
	}

	cfg = &Config{AppEnv: "development"}
	if got := cfg.LogLevel(); got.String() != "DEBUG" {
		t.Errorf("LogLevel() = %v, want DEBUG", got)
	}
}
