// Package docstore implements the per-user remote document. Writes use
// merge-style field upsert: incoming top-level fields replace same-named
// fields wholesale, fields absent from the write are preserved.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	errMissingUserID   = errors.New("user identifier is required")
)

// UserDocument holds one user's document as a JSON object of named fields.
type UserDocument struct {
	UserID           string `gorm:"column:user_id;primaryKey;size:190;not null"`
	FieldsJSON       string `gorm:"column:fields_json;type:text;not null"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null"`
}

// TableName provides the explicit table binding for GORM.
func (UserDocument) TableName() string {
	return "user_documents"
}

// ServiceConfig bundles the document service dependencies.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service reads and merge-writes user documents.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the document service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("docstore: %w", errMissingDatabase)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: cfg.Database, clock: clock, logger: logger}, nil
}

// Read returns the document's fields, reporting absence without error.
func (s *Service) Read(ctx context.Context, userID string) (map[string]json.RawMessage, bool, error) {
	if userID == "" {
		return nil, false, errMissingUserID
	}

	var record UserDocument
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("docstore: read: %w", err)
	}

	fields := map[string]json.RawMessage{}
	if record.FieldsJSON != "" {
		if err := json.Unmarshal([]byte(record.FieldsJSON), &fields); err != nil {
			return nil, false, fmt.Errorf("docstore: decode stored document: %w", err)
		}
	}
	return fields, true, nil
}

// Write merges the provided fields into the user's document inside a
// transaction. Each named field is replaced wholesale; unnamed fields keep
// their previous value.
func (s *Service) Write(ctx context.Context, userID string, fields map[string]json.RawMessage) error {
	if userID == "" {
		return errMissingUserID
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		merged := map[string]json.RawMessage{}

		var record UserDocument
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", userID).
			Take(&record).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("docstore: select for write: %w", err)
		}
		if err == nil && record.FieldsJSON != "" {
			if err := json.Unmarshal([]byte(record.FieldsJSON), &merged); err != nil {
				s.logger.Warn("discarding undecodable stored document",
					zap.String("user_id", userID), zap.Error(err))
				merged = map[string]json.RawMessage{}
			}
		}

		for name, value := range fields {
			merged[name] = value
		}

		encoded, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("docstore: encode document: %w", err)
		}

		row := UserDocument{
			UserID:           userID,
			FieldsJSON:       string(encoded),
			UpdatedAtSeconds: s.clock().UTC().Unix(),
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).Create(&row).Error
	})
}
