// Package config provides environment-driven configuration for the PDF
// translation service.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"pdf-translator/internal/logger"
)

const (
	// EnvTranslateAPIURL is the environment variable for the translation API base URL
	EnvTranslateAPIURL = "TRANSLATE_API_URL"
	// EnvAddr is the environment variable for the HTTP listen address
	EnvAddr = "ADDR"
	// EnvStorageDir is the environment variable for the temp-file root directory
	EnvStorageDir = "STORAGE_DIR"
	// EnvMaxUploadBytes is the environment variable for the upload size cap
	EnvMaxUploadBytes = "MAX_UPLOAD_BYTES"
	// EnvRequestTimeout is the environment variable for the per-request deadline
	EnvRequestTimeout = "REQUEST_TIMEOUT"
	// EnvCleanupGrace is the environment variable for the leftover-file sweep age
	EnvCleanupGrace = "CLEANUP_GRACE"
	// EnvTranslateConcurrency is the environment variable for parallel segment translation
	EnvTranslateConcurrency = "TRANSLATE_CONCURRENCY"
	// EnvAppEnv is the environment variable for the deployment environment name
	EnvAppEnv = "APP_ENV"

	// DefaultTranslateAPIURL is the default LibreTranslate endpoint
	DefaultTranslateAPIURL = "http://localhost:5000"
	// DefaultAddr is the default HTTP listen address
	DefaultAddr = ":8080"
	// DefaultStorageDir is the default temp-file root directory
	DefaultStorageDir = "storage"
	// DefaultMaxUploadBytes is the default upload size cap (16 MiB)
	DefaultMaxUploadBytes = 16 << 20
	// DefaultRequestTimeout is the default per-request deadline
	DefaultRequestTimeout = 5 * time.Minute
	// DefaultCleanupGrace is the default age after which leftover files are swept
	DefaultCleanupGrace = 30 * time.Minute
	// DefaultConcurrency is the default translation concurrency
	DefaultConcurrency = 3
)

// Config holds the runtime configuration for the service
type Config struct {
	// TranslateAPIURL is the base URL of the LibreTranslate-compatible API
	TranslateAPIURL string
	// Addr is the HTTP listen address
	Addr string
	// StorageDir is the root directory for uploaded and generated files
	StorageDir string
	// MaxUploadBytes is the maximum accepted upload size in bytes
	MaxUploadBytes int64
	// RequestTimeout bounds the whole upload-to-download pipeline
	RequestTimeout time.Duration
	// CleanupGrace is how old a leftover file must be before the sweep removes it
	CleanupGrace time.Duration
	// Concurrency is the number of segments translated in parallel
	Concurrency int
	// AppEnv names the deployment environment ("development", "production")
	AppEnv string
}

// Load reads configuration from the environment, applying defaults for every
// unset or invalid value. A .env file in the working directory is honored
// when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", logger.Err(err))
	}

	cfg := &Config{
		TranslateAPIURL: getString(EnvTranslateAPIURL, DefaultTranslateAPIURL),
		Addr:            getString(EnvAddr, DefaultAddr),
		StorageDir:      getString(EnvStorageDir, DefaultStorageDir),
		MaxUploadBytes:  getInt64(EnvMaxUploadBytes, DefaultMaxUploadBytes),
		RequestTimeout:  getDuration(EnvRequestTimeout, DefaultRequestTimeout),
		CleanupGrace:    getDuration(EnvCleanupGrace, DefaultCleanupGrace),
		Concurrency:     getInt(EnvTranslateConcurrency, DefaultConcurrency),
		AppEnv:          getString(EnvAppEnv, "development"),
	}

	logger.Info("configuration loaded",
		logger.String("translateAPIURL", cfg.TranslateAPIURL),
		logger.String("addr", cfg.Addr),
		logger.String("storageDir", cfg.StorageDir),
		logger.Int64("maxUploadBytes", cfg.MaxUploadBytes),
		logger.Int("concurrency", cfg.Concurrency),
		logger.String("appEnv", cfg.AppEnv))

	return cfg
}

// LogLevel maps the deployment environment to a logger level
func (c *Config) LogLevel() logger.Level {
	if c.AppEnv == "production" {
		return logger.LevelInfo
	}
	return logger.LevelDebug
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logger.Warn("invalid integer value, using default",
			logger.String("key", key), logger.String("value", v))
		return fallback
	}
	return n
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		logger.Warn("invalid size value, using default",
			logger.String("key", key), logger.String("value", v))
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logger.Warn("invalid duration value, using default",
			logger.String("key", key), logger.String("value", v))
		return fallback
	}
	return d
}
