package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the client and the dev server.
type Config struct {
	API     APIConfig
	Storage StorageConfig
	Log     LogConfig
	UI      UIConfig
	Dev     DevServerConfig
}

// APIConfig configures the HTTP transport. Every endpoint shares BaseURL.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// StorageConfig selects where the session is persisted.
type StorageConfig struct {
	// Backend is one of "file", "sqlite" or "redis".
	Backend string
	// Path is the session file or sqlite database path.
	Path string
	// RedisAddr, RedisPassword and RedisPrefix configure the redis backend.
	RedisAddr     string
	RedisPassword string
	RedisPrefix   string
}

// LogConfig configures slog output.
type LogConfig struct {
	File  string
	Level string
}

// UIConfig configures the terminal client.
type UIConfig struct {
	// RefreshInterval re-fetches the instrument list periodically; 0 disables it.
	RefreshInterval time.Duration
}

// DevServerConfig configures cmd/devserver.
type DevServerConfig struct {
	Addr      string
	JWTSecret string
	TokenTTL  time.Duration
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:10000",
			Timeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Backend:     BackendFile,
			Path:        defaultStoragePath(BackendFile),
			RedisAddr:   "localhost:6379",
			RedisPrefix: "stockdesk",
		},
		Log: LogConfig{
			File:  "stockdesk.log",
			Level: "info",
		},
		Dev: DevServerConfig{
			Addr:      ":10000",
			JWTSecret: "dev-secret-change-me",
			TokenTTL:  24 * time.Hour,
		},
	}
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	// a missing .env is fine; real environment variables still apply
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from environment variables over DefaultConfig.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	cfg.API.BaseURL = strings.TrimRight(getEnv("API_URL", cfg.API.BaseURL), "/")
	timeout, err := getDuration("API_TIMEOUT", cfg.API.Timeout)
	if err != nil {
		return Config{}, err
	}
	cfg.API.Timeout = timeout

	cfg.Storage.Backend = strings.ToLower(getEnv("STORAGE_BACKEND", cfg.Storage.Backend))
	switch cfg.Storage.Backend {
	case BackendFile, BackendSQLite, BackendRedis:
	default:
		return Config{}, fmt.Errorf("config: unknown STORAGE_BACKEND %q", cfg.Storage.Backend)
	}
	cfg.Storage.Path = getEnv("STORAGE_PATH", defaultStoragePath(cfg.Storage.Backend))
	cfg.Storage.RedisAddr = getEnv("REDIS_ADDR", cfg.Storage.RedisAddr)
	cfg.Storage.RedisPassword = getEnv("REDIS_PASSWORD", cfg.Storage.RedisPassword)
	cfg.Storage.RedisPrefix = getEnv("REDIS_PREFIX", cfg.Storage.RedisPrefix)

	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	refresh, err := getDuration("REFRESH_INTERVAL", cfg.UI.RefreshInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.UI.RefreshInterval = refresh

	cfg.Dev.Addr = getEnv("DEV_ADDR", cfg.Dev.Addr)
	cfg.Dev.JWTSecret = getEnv("JWT_SECRET", cfg.Dev.JWTSecret)
	ttl, err := getDuration("TOKEN_TTL", cfg.Dev.TokenTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.Dev.TokenTTL = ttl

	return cfg, nil
}

// URL joins the base URL and an endpoint path.
func (c APIConfig) URL(endpoint string) string {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.BaseURL + endpoint
}

func defaultStoragePath(backend string) string {
	name := "session.json"
	if backend == BackendSQLite {
		name = "session.db"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".stockdesk", name)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration accepts Go durations ("5s") or plain seconds ("5").
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}
