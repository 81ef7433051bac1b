package database

import (
	"path/filepath"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/snipvault/snipvault/internal/docstore"
	"github.com/snipvault/snipvault/internal/users"
)

func newBareDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "migrate.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&users.AnonymousIdentity{}, &docstore.UserDocument{}, &migrationRecord{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func TestNormalizeEmptyDocumentsMigration(t *testing.T) {
	db := newBareDatabase(t)

	rows := []docstore.UserDocument{
		{UserID: "anon-empty", FieldsJSON: "", UpdatedAtSeconds: 1},
		{UserID: "anon-filled", FieldsJSON: `{"notes":[]}`, UpdatedAtSeconds: 1},
	}
	for _, row := range rows {
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("failed to seed document: %v", err)
		}
	}

	if err := applyMigrations(db, zap.NewNop()); err != nil {
		t.Fatalf("unexpected migration error: %v", err)
	}

	var normalized docstore.UserDocument
	if err := db.Where("user_id = ?", "anon-empty").Take(&normalized).Error; err != nil {
		t.Fatalf("failed to load migrated document: %v", err)
	}
	if normalized.FieldsJSON != "{}" {
		t.Fatalf("empty document must become an empty object, got %q", normalized.FieldsJSON)
	}

	var untouched docstore.UserDocument
	if err := db.Where("user_id = ?", "anon-filled").Take(&untouched).Error; err != nil {
		t.Fatalf("failed to load unaffected document: %v", err)
	}
	if untouched.FieldsJSON != `{"notes":[]}` {
		t.Fatalf("populated document must be untouched, got %q", untouched.FieldsJSON)
	}
}

func TestMigrationsApplyOnce(t *testing.T) {
	db := newBareDatabase(t)

	if err := applyMigrations(db, zap.NewNop()); err != nil {
		t.Fatalf("unexpected first run error: %v", err)
	}
	if err := applyMigrations(db, zap.NewNop()); err != nil {
		t.Fatalf("unexpected second run error: %v", err)
	}

	var count int64
	if err := db.Model(&migrationRecord{}).Where("name = ?", migrationNormalizeEmptyDocuments).Count(&count).Error; err != nil {
		t.Fatalf("failed to count migration records: %v", err)
	}
	if count != 1 {
		t.Fatalf("migration must be recorded exactly once, got %d", count)
	}
}
