package service

import "log/slog"

// Config holds configuration for the news service.
type Config struct {
	// TapeSize is the capacity of the news ring buffer.
	TapeSize int
	// ExternalEventBuffer is the size of the external events channel.
	ExternalEventBuffer int
	// DropExternalEvents determines whether external event channel drops on overflow.
	DropExternalEvents bool
	// Logger receives fetch and publish failures.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		TapeSize:            100,
		ExternalEventBuffer: 16,
		DropExternalEvents:  true,
	}
}
