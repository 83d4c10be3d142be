package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// KVEntry is one stored key.
type KVEntry struct {
	Key   string `gorm:"primaryKey;size:32"`
	Value []byte
}

// TableName pins the table name.
func (KVEntry) TableName() string { return "kv_entries" }

// SQLiteStorage keeps the record as two rows of a key/value table.
type SQLiteStorage struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the database at path. ":memory:" is allowed.
func OpenSQLite(path string) (*SQLiteStorage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("storage: create dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite %s: %w", path, err)
	}
	return NewSQLiteStorage(db)
}

// NewSQLiteStorage migrates the key/value table on db.
func NewSQLiteStorage(db *gorm.DB) (*SQLiteStorage, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("storage: sqlite handle: %w", err)
	}
	// one connection keeps ":memory:" databases alive and serializes writers
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&KVEntry{}); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Load(ctx context.Context) (Record, error) {
	var rows []KVEntry
	err := s.db.WithContext(ctx).
		Where(`"key" IN ?`, []string{keyToken, keyUser}).
		Find(&rows).Error
	if err != nil {
		return Record{}, fmt.Errorf("storage: load: %w", err)
	}
	if len(rows) == 0 {
		return Record{}, ErrNotFound
	}
	var rec Record
	for _, row := range rows {
		switch row.Key {
		case keyToken:
			rec.Token = string(row.Value)
		case keyUser:
			rec.User = row.Value
		}
	}
	return rec, nil
}

// Save upserts both keys in one transaction.
func (s *SQLiteStorage) Save(ctx context.Context, rec Record) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows := []KVEntry{
			{Key: keyToken, Value: []byte(rec.Token)},
			{Key: keyUser, Value: rec.User},
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("storage: save: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStorage) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where(`"key" IN ?`, []string{keyToken, keyUser}).Delete(&KVEntry{}).Error
		if err != nil {
			return fmt.Errorf("storage: clear: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
