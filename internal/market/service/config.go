package service

import "log/slog"

// Config holds configuration for the market service.
type Config struct {
	// Logger receives fetch failures; views do not surface them.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{Logger: slog.Default()}
}
