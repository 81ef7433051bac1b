// Package localstore persists whole-collection blobs under fixed keys,
// mirroring the key-value layout the mobile client kept in device storage.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Collection keys. Each value is the full collection serialized as one blob;
// saves are whole-snapshot overwrites with no per-item persistence.
const (
	KeyNotes      = "notes"
	KeyCategories = "categories"
	KeyTags       = "tags"
)

var errMissingPath = errors.New("localstore: database path is required")

type blobRecord struct {
	Key              string `gorm:"column:key;primaryKey;size:64;not null"`
	Value            string `gorm:"column:value;type:text;not null"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null"`
}

func (blobRecord) TableName() string {
	return "blobs"
}

// Store is the durable key-value side of the application state.
type Store struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// Open establishes the SQLite-backed store and performs schema migration.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, errMissingPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("localstore: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&blobRecord{}); err != nil {
		return nil, fmt.Errorf("localstore: migrate: %w", err)
	}

	logger.Info("local store opened", zap.String("path", path))

	return &Store{db: db, clock: time.Now, logger: logger}, nil
}

// Load returns the blob stored under key, reporting absence without error.
func (s *Store) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var record blobRecord
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("localstore: load %s: %w", key, err)
	}
	return []byte(record.Value), true, nil
}

// Save overwrites the blob stored under key with the full snapshot.
func (s *Store) Save(ctx context.Context, key string, value []byte) error {
	record := blobRecord{
		Key:              key,
		Value:            string(value),
		UpdatedAtSeconds: s.clock().UTC().Unix(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "key"}}, UpdateAll: true}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("localstore: save %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
