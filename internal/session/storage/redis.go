package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps the record as two keys under a prefix.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisStorage creates a RedisStorage on client.
func NewRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{client: client, prefix: prefix}
}

func (s *RedisStorage) key(name string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, name)
}

func (s *RedisStorage) Load(ctx context.Context) (Record, error) {
	vals, err := s.client.MGet(ctx, s.key(keyToken), s.key(keyUser)).Result()
	if err != nil {
		return Record{}, fmt.Errorf("storage: redis load: %w", err)
	}
	var rec Record
	if v, ok := vals[0].(string); ok {
		rec.Token = v
	}
	if v, ok := vals[1].(string); ok {
		rec.User = []byte(v)
	}
	if rec.Token == "" && len(rec.User) == 0 {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Save sets both keys in one MULTI/EXEC.
func (s *RedisStorage) Save(ctx context.Context, rec Record) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(keyToken), rec.Token, 0)
		pipe.Set(ctx, s.key(keyUser), string(rec.User), 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("storage: redis save: %w", err)
	}
	return nil
}

func (s *RedisStorage) Clear(ctx context.Context) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(keyToken), s.key(keyUser))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("storage: redis clear: %w", err)
	}
	return nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}
