// Package backup moves serialized notes collections through the platform's
// file system, share sheet, and document picker. The collaborators are
// consumed through narrow interfaces so the core never links platform code.
package backup

import (
	"context"
	"errors"
	"fmt"
	"path"

	"go.uber.org/zap"
)

const (
	backupFileName = "notes_backup.json"
	shareMessage   = "Here is your notes backup file."
	jsonMIMEType   = "application/json"
)

var (
	errMissingFileSystem = errors.New("backup: file system is required")
	errMissingSharer     = errors.New("backup: sharer is required")
	errMissingPicker     = errors.New("backup: picker is required")
	// ErrCancelled reports that the user dismissed the document picker.
	ErrCancelled = errors.New("backup: picker cancelled")
)

// FileSystem writes and reads files in the app's document directory.
type FileSystem interface {
	WriteFile(ctx context.Context, path string, content []byte) error
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// Sharer hands a file to the platform's native share mechanism.
type Sharer interface {
	Share(ctx context.Context, path, message string) error
}

// Picker lets the user select a file matching the MIME filter. A dismissed
// picker returns ErrCancelled.
type Picker interface {
	Pick(ctx context.Context, mimeFilter string) (string, error)
}

// Config bundles the exporter/importer dependencies.
type Config struct {
	FileSystem FileSystem
	Sharer     Sharer
	Picker     Picker
	Directory  string
	Logger     *zap.Logger
}

// Service orchestrates backup export and import.
type Service struct {
	fs        FileSystem
	sharer    Sharer
	picker    Picker
	directory string
	logger    *zap.Logger
}

// NewService constructs the backup service.
func NewService(cfg Config) (*Service, error) {
	if cfg.FileSystem == nil {
		return nil, errMissingFileSystem
	}
	if cfg.Sharer == nil {
		return nil, errMissingSharer
	}
	if cfg.Picker == nil {
		return nil, errMissingPicker
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fs:        cfg.FileSystem,
		sharer:    cfg.Sharer,
		picker:    cfg.Picker,
		directory: cfg.Directory,
		logger:    logger,
	}, nil
}

// Export writes the serialized collection to the backup file and opens the
// share sheet for it.
func (s *Service) Export(ctx context.Context, blob []byte) error {
	target := path.Join(s.directory, backupFileName)
	if err := s.fs.WriteFile(ctx, target, blob); err != nil {
		return fmt.Errorf("backup: write export file: %w", err)
	}
	if err := s.sharer.Share(ctx, target, shareMessage); err != nil {
		return fmt.Errorf("backup: share export file: %w", err)
	}
	s.logger.Info("notes exported", zap.String("path", target))
	return nil
}

// Import asks the user for a JSON file and returns its raw contents. Decoding
// and collection replacement belong to the lifecycle manager, so a malformed
// file is detected there and never clobbers state from here.
func (s *Service) Import(ctx context.Context) ([]byte, error) {
	picked, err := s.picker.Pick(ctx, jsonMIMEType)
	if err != nil {
		if errors.Is(err, ErrCancelled) {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("backup: pick import file: %w", err)
	}
	blob, err := s.fs.ReadFile(ctx, picked)
	if err != nil {
		return nil, fmt.Errorf("backup: read import file: %w", err)
	}
	return blob, nil
}
