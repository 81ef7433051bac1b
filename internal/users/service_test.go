package users_test

import (
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/snipvault/snipvault/internal/database"
	"github.com/snipvault/snipvault/internal/users"
)

func newTestService(t *testing.T, clock func() time.Time) *users.Service {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "users.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	service, err := users.NewService(users.ServiceConfig{Database: db, Clock: clock})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

func TestCreateAnonymousMintsDistinctSubjects(t *testing.T) {
	service := newTestService(t, nil)

	first, err := service.CreateAnonymous()
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	second, err := service.CreateAnonymous()
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
	if first == "" || second == "" {
		t.Fatalf("subjects must be non-empty: %q %q", first, second)
	}
	if first == second {
		t.Fatalf("subjects must be unique, both were %q", first)
	}
}

func TestTouchUpdatesLastSeen(t *testing.T) {
	current := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	service := newTestService(t, func() time.Time { return current })

	subject, err := service.CreateAnonymous()
	if err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}

	current = current.Add(time.Hour)
	if err := service.Touch(subject); err != nil {
		t.Fatalf("unexpected touch error: %v", err)
	}
}

func TestTouchRecreatesUnknownSubject(t *testing.T) {
	service := newTestService(t, nil)

	if err := service.Touch("subject-after-reset"); err != nil {
		t.Fatalf("touch must recreate unknown subjects, got %v", err)
	}
	if err := service.Touch("subject-after-reset"); err != nil {
		t.Fatalf("repeated touch must succeed, got %v", err)
	}
}
