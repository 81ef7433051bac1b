// Package store owns the in-memory notes, categories, and tags collections
// and orchestrates their persistence. Every mutation runs to completion,
// including the synchronous local write, before control returns; only the
// remote mirror push is dispatched without awaiting its result.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/snipvault/snipvault/internal/auth"
	"github.com/snipvault/snipvault/internal/localstore"
	"github.com/snipvault/snipvault/internal/mirror"
	"github.com/snipvault/snipvault/internal/notes"
)

const (
	opNew         = "store.new"
	opHydrate     = "store.hydrate"
	opCreate      = "store.create"
	opUpdate      = "store.update"
	opDelete      = "store.delete"
	opBeginEdit   = "store.begin_edit"
	opAddCategory = "store.add_category"
	opAddTag      = "store.add_tag"
	opImport      = "store.import"
	opReconcile   = "store.reconcile"
	opMirrorPush  = "store.mirror_push"

	mirrorPushTimeout = 30 * time.Second
)

var (
	errMissingLocalStore = errors.New("local store is required")
	errMissingIDProvider = errors.New("id provider is required")
	// ErrNoEditTarget indicates an update without an active edit target.
	ErrNoEditTarget = errors.New("store: no note is being edited")
	// ErrNoteNotFound indicates that an edit target id is absent from the collection.
	ErrNoteNotFound = errors.New("store: note not found")

	noOpLogger = zap.NewNop()
)

// DefaultCategories seeds the category set on first run.
var DefaultCategories = []string{"General", "JavaScript", "Python", "React", "Data Structures", "Algorithms"}

const (
	defaultCategory = "General"
	defaultLanguage = "javascript"
)

// LocalStore is the durable key-value side consumed by the manager.
type LocalStore interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
}

// Mirror is the remote document side, active only while signed in.
type Mirror interface {
	Pull(ctx context.Context, identity auth.Identity) ([]notes.Note, bool, error)
	Push(ctx context.Context, identity auth.Identity, snapshot []notes.Note) error
}

// IDProvider issues note identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// Config bundles the lifecycle manager dependencies.
type Config struct {
	Local      LocalStore
	Remote     Mirror
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
	Reconcile  mirror.ReconcilePolicy
}

// Store is the single owner of the application collections. Consumers receive
// snapshots or subscribe to change events, never a live reference.
type Store struct {
	local      LocalStore
	remote     Mirror
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
	reconcile  mirror.ReconcilePolicy

	mu         sync.RWMutex
	notes      []notes.Note
	categories []string
	tags       []string
	draft      Draft
	identity   *auth.Identity

	dispatcher *dispatcher
}

// New constructs the lifecycle manager with seeded defaults.
func New(cfg Config) (*Store, error) {
	if cfg.Local == nil {
		return nil, fmt.Errorf("%s: %w", opNew, errMissingLocalStore)
	}
	if cfg.IDProvider == nil {
		return nil, fmt.Errorf("%s: %w", opNew, errMissingIDProvider)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	reconcile := cfg.Reconcile
	if reconcile == nil {
		reconcile = mirror.RemoteWins
	}
	return &Store{
		local:      cfg.Local,
		remote:     cfg.Remote,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
		reconcile:  reconcile,
		notes:      []notes.Note{},
		categories: notes.CloneStrings(DefaultCategories),
		tags:       []string{},
		draft:      newDraft(),
		dispatcher: newDispatcher(),
	}, nil
}

// Hydrate loads the persisted collections. Absent blobs leave the seeded
// defaults in place; read failures are logged and swallowed so the app always
// starts with a usable (possibly empty) state.
func (s *Store) Hydrate(ctx context.Context) {
	if blob, found := s.loadBlob(ctx, localstore.KeyNotes); found {
		if collection, err := notes.DecodeNotes(blob); err != nil {
			s.logError(opHydrate, "notes_decode_failed", err)
		} else {
			s.mu.Lock()
			s.notes = collection
			s.mu.Unlock()
		}
	}
	if blob, found := s.loadBlob(ctx, localstore.KeyCategories); found {
		if values, err := notes.DecodeStrings(blob); err != nil {
			s.logError(opHydrate, "categories_decode_failed", err)
		} else {
			s.mu.Lock()
			s.categories = values
			s.mu.Unlock()
		}
	}
	if blob, found := s.loadBlob(ctx, localstore.KeyTags); found {
		if values, err := notes.DecodeStrings(blob); err != nil {
			s.logError(opHydrate, "tags_decode_failed", err)
		} else {
			s.mu.Lock()
			s.tags = values
			s.mu.Unlock()
		}
	}
	s.dispatcher.publish(Event{Collection: CollectionNotes, Reason: ReasonHydrate})
}

func (s *Store) loadBlob(ctx context.Context, key string) ([]byte, bool) {
	blob, found, err := s.local.Load(ctx, key)
	if err != nil {
		s.logError(opHydrate, "load_failed", err, zap.String("key", key))
		return nil, false
	}
	return blob, found
}

// Notes returns a snapshot of the notes collection in insertion order.
func (s *Store) Notes() []notes.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return notes.CloneNotes(s.notes)
}

// Categories returns a snapshot of the category set.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return notes.CloneStrings(s.categories)
}

// Tags returns a snapshot of the global tag set.
func (s *Store) Tags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return notes.CloneStrings(s.tags)
}

// SetIdentity runs the pull-or-seed reconciliation for a newly available
// identity. When a remote snapshot exists, the resolved snapshot replaces the
// in-memory and persisted collection wholesale; otherwise the current local
// collection seeds the remote side.
func (s *Store) SetIdentity(ctx context.Context, identity auth.Identity) error {
	if s.remote == nil {
		return nil
	}

	s.mu.Lock()
	s.identity = &identity
	local := notes.CloneNotes(s.notes)
	s.mu.Unlock()

	remote, found, err := s.remote.Pull(ctx, identity)
	if err != nil {
		s.logError(opReconcile, "pull_failed", err, zap.String("user_id", identity.UserID))
		return err
	}

	if !found {
		if err := s.remote.Push(ctx, identity, local); err != nil {
			s.logError(opReconcile, "seed_push_failed", err, zap.String("user_id", identity.UserID))
			return err
		}
		return nil
	}

	resolved := s.reconcile(local, remote)
	s.mu.Lock()
	s.notes = resolved
	snapshot := notes.CloneNotes(resolved)
	s.mu.Unlock()

	s.persistNotes(ctx, opReconcile, snapshot)
	s.dispatcher.publish(Event{Collection: CollectionNotes, Reason: ReasonReconcile})
	return nil
}

// ClearIdentity stops mirroring. An in-flight push is abandoned, not awaited.
func (s *Store) ClearIdentity() {
	s.mu.Lock()
	s.identity = nil
	s.mu.Unlock()
}

// persistNotes writes the snapshot locally. Save failures are logged and
// swallowed; in-memory state is not rolled back, so the caller's view can
// diverge from durable state after a failure.
func (s *Store) persistNotes(ctx context.Context, operation string, snapshot []notes.Note) {
	blob, err := notes.EncodeNotes(snapshot)
	if err != nil {
		s.logError(operation, "notes_encode_failed", err)
		return
	}
	if err := s.local.Save(ctx, localstore.KeyNotes, blob); err != nil {
		s.logError(operation, "notes_save_failed", err)
	}
}

func (s *Store) persistStrings(ctx context.Context, operation, key string, values []string) {
	blob, err := notes.EncodeStrings(values)
	if err != nil {
		s.logError(operation, "encode_failed", err, zap.String("key", key))
		return
	}
	if err := s.local.Save(ctx, key, blob); err != nil {
		s.logError(operation, "save_failed", err, zap.String("key", key))
	}
}

// mirrorAsync dispatches a best-effort push of the snapshot when signed in.
// The caller does not wait for remote confirmation; failures are logged.
func (s *Store) mirrorAsync(snapshot []notes.Note) {
	s.mu.RLock()
	identity := s.identity
	s.mu.RUnlock()
	if identity == nil || s.remote == nil {
		return
	}

	target := *identity
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorPushTimeout)
		defer cancel()
		if err := s.remote.Push(ctx, target, snapshot); err != nil {
			s.logError(opMirrorPush, "push_failed", err, zap.String("user_id", target.UserID))
		}
	}()
}

func (s *Store) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("store operation failed", attrs...)
}
