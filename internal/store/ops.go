package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/snipvault/snipvault/internal/localstore"
	"github.com/snipvault/snipvault/internal/notes"
)

// Create appends a new note built from the draft. Whitespace-only content is
// rejected before anything is touched. The new note is persisted locally,
// mirrored remotely when signed in, and the draft is reset.
func (s *Store) Create(ctx context.Context) error {
	s.mu.Lock()
	if strings.TrimSpace(s.draft.Content) == "" {
		s.mu.Unlock()
		return notes.ErrEmptyContent
	}

	raw, err := s.idProvider.NewID()
	if err != nil {
		s.mu.Unlock()
		s.logError(opCreate, "id_generation_failed", err)
		return fmt.Errorf("%s: %w", opCreate, err)
	}
	id, err := notes.NewNoteID(raw)
	if err != nil {
		s.mu.Unlock()
		s.logError(opCreate, "id_invalid", err)
		return fmt.Errorf("%s: %w", opCreate, err)
	}

	note := notes.Note{
		ID:        id,
		Content:   s.draft.Content,
		Category:  s.draft.Category,
		Tags:      notes.CloneStrings(s.draft.Tags),
		IsCode:    s.draft.IsCode,
		Timestamp: notes.Stamp(s.clock()),
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}
	if s.draft.IsCode {
		note.Language = s.draft.Language
	}

	s.notes = append(s.notes, note)
	snapshot := notes.CloneNotes(s.notes)
	s.resetDraft()
	s.mu.Unlock()

	s.persistNotes(ctx, opCreate, snapshot)
	s.mirrorAsync(snapshot)
	s.dispatcher.publish(Event{Collection: CollectionNotes, Reason: ReasonCreate})
	return nil
}

// Update replaces the active edit target's fields in place from the draft,
// refreshing its timestamp. Without an edit target, or with whitespace-only
// content, nothing happens. The note keeps its position in the collection.
func (s *Store) Update(ctx context.Context) error {
	s.mu.Lock()
	if s.draft.EditingID == "" {
		s.mu.Unlock()
		return ErrNoEditTarget
	}
	if strings.TrimSpace(s.draft.Content) == "" {
		s.mu.Unlock()
		return notes.ErrEmptyContent
	}

	updated := false
	for i := range s.notes {
		if s.notes[i].ID != s.draft.EditingID {
			continue
		}
		s.notes[i].Content = s.draft.Content
		s.notes[i].Category = s.draft.Category
		s.notes[i].Tags = notes.CloneStrings(s.draft.Tags)
		if s.notes[i].Tags == nil {
			s.notes[i].Tags = []string{}
		}
		s.notes[i].IsCode = s.draft.IsCode
		s.notes[i].Language = ""
		if s.draft.IsCode {
			s.notes[i].Language = s.draft.Language
		}
		s.notes[i].Timestamp = notes.Stamp(s.clock())
		updated = true
		break
	}
	if !updated {
		s.mu.Unlock()
		return ErrNoteNotFound
	}

	snapshot := notes.CloneNotes(s.notes)
	s.resetDraft()
	s.mu.Unlock()

	s.persistNotes(ctx, opUpdate, snapshot)
	s.mirrorAsync(snapshot)
	s.dispatcher.publish(Event{Collection: CollectionNotes, Reason: ReasonUpdate})
	return nil
}

// Delete removes the note with the given id. An absent id is a no-op, which
// makes the operation idempotent.
func (s *Store) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	filtered := s.notes[:0]
	removed := false
	for _, note := range s.notes {
		if note.ID == id {
			removed = true
			continue
		}
		filtered = append(filtered, note)
	}
	s.notes = filtered
	snapshot := notes.CloneNotes(s.notes)
	s.mu.Unlock()

	if !removed {
		return
	}

	s.persistNotes(ctx, opDelete, snapshot)
	s.mirrorAsync(snapshot)
	s.dispatcher.publish(Event{Collection: CollectionNotes, Reason: ReasonDelete})
}

// AddCategory appends a new category label. Blank names and names already
// present (case-sensitive) are silent no-ops.
func (s *Store) AddCategory(ctx context.Context, name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	s.mu.Lock()
	for _, existing := range s.categories {
		if existing == name {
			s.mu.Unlock()
			return
		}
	}
	s.categories = append(s.categories, name)
	snapshot := notes.CloneStrings(s.categories)
	s.mu.Unlock()

	s.persistStrings(ctx, opAddCategory, localstore.KeyCategories, snapshot)
	s.dispatcher.publish(Event{Collection: CollectionCategories, Reason: ReasonCreate})
}

// AddTag appends a tag to the global tag set under the same uniqueness rule
// as AddCategory. Tags already carried by individual notes are not reconciled
// into this set.
func (s *Store) AddTag(ctx context.Context, name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	s.mu.Lock()
	for _, existing := range s.tags {
		if existing == name {
			s.mu.Unlock()
			return
		}
	}
	s.tags = append(s.tags, name)
	snapshot := notes.CloneStrings(s.tags)
	s.mu.Unlock()

	s.persistStrings(ctx, opAddTag, localstore.KeyTags, snapshot)
	s.dispatcher.publish(Event{Collection: CollectionTags, Reason: ReasonCreate})
}

// ExportAll serializes the current notes collection for backup.
func (s *Store) ExportAll() ([]byte, error) {
	s.mu.RLock()
	snapshot := notes.CloneNotes(s.notes)
	s.mu.RUnlock()
	return notes.EncodeNotes(snapshot)
}

// ImportAll replaces the entire notes collection with the decoded payload.
// There is no merge and no id-collision handling. A malformed payload leaves
// every collection untouched.
func (s *Store) ImportAll(ctx context.Context, blob []byte) error {
	imported, err := notes.DecodeNotes(blob)
	if err != nil {
		s.logError(opImport, "decode_failed", err)
		return err
	}
	if imported == nil {
		imported = []notes.Note{}
	}

	s.mu.Lock()
	s.notes = imported
	snapshot := notes.CloneNotes(s.notes)
	s.mu.Unlock()

	s.persistNotes(ctx, opImport, snapshot)
	s.mirrorAsync(snapshot)
	s.dispatcher.publish(Event{Collection: CollectionNotes, Reason: ReasonImport})
	return nil
}
