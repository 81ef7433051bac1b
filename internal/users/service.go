package users

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServiceConfig describes the dependencies required for identity management.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Service creates and touches anonymous identities.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService constructs the identity service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{db: cfg.Database, now: clock}, nil
}

// CreateAnonymous mints a fresh anonymous identity and returns its subject.
func (s *Service) CreateAnonymous() (string, error) {
	subject, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	identity := AnonymousIdentity{
		Subject:    subject.String(),
		LastSeenAt: s.now(),
	}
	if err := s.db.Create(&identity).Error; err != nil {
		return "", err
	}
	return identity.Subject, nil
}

// Touch records activity for a known subject. Unknown subjects are created,
// which keeps tokens usable after a database reset.
func (s *Service) Touch(subject string) error {
	var identity AnonymousIdentity
	err := s.db.Where("subject = ?", subject).First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Create(&AnonymousIdentity{Subject: subject, LastSeenAt: s.now()}).Error
	}
	if err != nil {
		return err
	}
	return s.db.Model(&AnonymousIdentity{}).
		Where("subject = ?", subject).
		Update("last_seen_at", s.now()).Error
}
