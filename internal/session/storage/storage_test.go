package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappabad/stockdesk/internal/config"
)

var testRecord = Record{
	Token: "tok-123",
	User:  []byte(`{"id":"7","email":"a@x.io","role":"user"}`),
}

// exercise runs the shared Save/Load/Clear contract against s.
func exercise(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, testRecord))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, testRecord.Token, got.Token)
	assert.JSONEq(t, string(testRecord.User), string(got.User))
	assert.True(t, got.Complete())

	next := Record{Token: "tok-456", User: []byte(`{"id":"8","email":"b@x.io","role":"admin"}`)}
	require.NoError(t, s.Save(ctx, next))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-456", got.Token)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	// clearing twice is fine
	require.NoError(t, s.Clear(ctx))
}

func TestFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s, err := NewFileStorage(path)
	require.NoError(t, err)
	exercise(t, s)
}

func TestFileStoragePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s, err := NewFileStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), testRecord))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestFileStorageCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	s, err := NewFileStorage(path)
	require.NoError(t, err)

	_, err = s.Load(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestFileStoragePartialRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"token":"abc","user":null}`), 0o600))
	s, err := NewFileStorage(path)
	require.NoError(t, err)

	rec, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", rec.Token)
	assert.False(t, rec.Complete())
}

func TestSQLiteStorage(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	exercise(t, s)
}

func TestRedisStorageSave(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisStorage(client, "sd")

	mock.ExpectTxPipeline()
	mock.ExpectSet("sd:session:token", testRecord.Token, 0).SetVal("OK")
	mock.ExpectSet("sd:session:user", string(testRecord.User), 0).SetVal("OK")
	mock.ExpectTxPipelineExec()

	require.NoError(t, s.Save(context.Background(), testRecord))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStorageLoad(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisStorage(client, "sd")

	mock.ExpectMGet("sd:session:token", "sd:session:user").SetVal([]interface{}{testRecord.Token, string(testRecord.User)})
	rec, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testRecord.Token, rec.Token)
	assert.Equal(t, testRecord.User, rec.User)

	mock.ExpectMGet("sd:session:token", "sd:session:user").SetVal([]interface{}{nil, nil})
	_, err = s.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStorageClear(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisStorage(client, "sd")

	mock.ExpectTxPipeline()
	mock.ExpectDel("sd:session:token", "sd:session:user").SetVal(2)
	mock.ExpectTxPipelineExec()

	require.NoError(t, s.Clear(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStorageError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	s := NewRedisStorage(client, "sd")

	mock.ExpectMGet("sd:session:token", "sd:session:user").SetErr(errors.New("connection refused"))
	_, err := s.Load(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(config.StorageConfig{Backend: config.BackendFile, Path: filepath.Join(dir, "s.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStorage{}, s)

	s, err = Open(config.StorageConfig{Backend: config.BackendSQLite, Path: filepath.Join(dir, "s.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStorage{}, s)
	require.NoError(t, s.Close())

	s, err = Open(config.StorageConfig{Backend: config.BackendRedis, RedisAddr: "localhost:0", RedisPrefix: "x"})
	require.NoError(t, err)
	assert.IsType(t, &RedisStorage{}, s)
	require.NoError(t, s.Close())

	_, err = Open(config.StorageConfig{Backend: "etcd"})
	assert.Error(t, err)
}
