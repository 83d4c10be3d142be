// Package storage persists the session credential between runs. The token and
// the user record are always written and cleared together.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/zappabad/stockdesk/internal/config"
)

// ErrNotFound is returned by Load when nothing is stored.
var ErrNotFound = errors.New("storage: no session stored")

// Record is what survives a restart. User is kept as raw JSON so the
// storage layer does not depend on the session types.
type Record struct {
	Token string
	User  []byte
}

// Complete reports whether both keys are present.
func (r Record) Complete() bool {
	return r.Token != "" && len(r.User) > 0
}

// Storage is a durable key/value home for one Record.
type Storage interface {
	Load(ctx context.Context) (Record, error)
	Save(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
	Close() error
}

const (
	keyToken = "token"
	keyUser  = "user"
)

// Open returns the backend selected by cfg.Backend.
func Open(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStorage(cfg.Path)
	case config.BackendSQLite:
		return OpenSQLite(cfg.Path)
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		return NewRedisStorage(client, cfg.RedisPrefix), nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}
