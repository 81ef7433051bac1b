package store

import (
	"github.com/snipvault/snipvault/internal/notes"
)

// Draft is the transient edit-form state. It lives only in memory and is
// reset after a successful create or update. EditingID holds the edit target;
// while it is empty, Update is a no-op.
type Draft struct {
	Content   string
	Category  string
	Tags      []string
	IsCode    bool
	Language  string
	EditingID string
}

func newDraft() Draft {
	return Draft{
		Category: defaultCategory,
		Tags:     []string{},
		Language: defaultLanguage,
	}
}

// Draft returns a copy of the transient edit-form state.
func (s *Store) Draft() Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	draft := s.draft
	draft.Tags = notes.CloneStrings(s.draft.Tags)
	return draft
}

// SetDraftContent replaces the draft body.
func (s *Store) SetDraftContent(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Content = content
}

// SetDraftCategory selects the draft category label.
func (s *Store) SetDraftCategory(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Category = category
}

// SetDraftCode toggles code-snippet treatment and its language.
func (s *Store) SetDraftCode(isCode bool, language string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.IsCode = isCode
	if language != "" {
		s.draft.Language = language
	}
}

// ToggleDraftTag adds the tag to the draft's selected set, or removes it when
// already selected. Global tag membership is not consulted: the global set is
// advisory, and a tag toggled here does not join it.
func (s *Store) ToggleDraftTag(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, selected := range s.draft.Tags {
		if selected == tag {
			s.draft.Tags = append(s.draft.Tags[:i], s.draft.Tags[i+1:]...)
			return
		}
	}
	s.draft.Tags = append(s.draft.Tags, tag)
}

// BeginEdit loads a note's fields into the draft and marks it as the active
// edit target.
func (s *Store) BeginEdit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, note := range s.notes {
		if note.ID != id {
			continue
		}
		language := note.Language
		if language == "" {
			language = defaultLanguage
		}
		s.draft = Draft{
			Content:   note.Content,
			Category:  note.Category,
			Tags:      notes.CloneStrings(note.Tags),
			IsCode:    note.IsCode,
			Language:  language,
			EditingID: note.ID,
		}
		return nil
	}
	return ErrNoteNotFound
}

// resetDraft clears the transient state after create/update. The category
// selection is intentionally kept; the language falls back to its default.
func (s *Store) resetDraft() {
	category := s.draft.Category
	s.draft = newDraft()
	s.draft.Category = category
}
