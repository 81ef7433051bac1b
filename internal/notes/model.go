package notes

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidNoteID indicates that a note identifier is empty or exceeds storage bounds.
	ErrInvalidNoteID = errors.New("notes: invalid note id")
	// ErrEmptyContent indicates that a note body is empty after trimming.
	ErrEmptyContent = errors.New("notes: empty content")
)

// Note is a single free-text or code-snippet entry. The JSON field names match
// the blob layout the mobile client persisted, so exported backup files from
// either side round-trip.
type Note struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	IsCode   bool     `json:"isCode"`
	Language string   `json:"language,omitempty"`
	// Timestamp is the RFC 3339 creation or last-modified instant; it is
	// overwritten on every update.
	Timestamp string `json:"timestamp"`
}

// NewNoteID validates raw input and returns a usable note identifier.
func NewNoteID(rawInput string) (string, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidNoteID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidNoteID, maxIdentifierLength)
	}
	return trimmed, nil
}

// Stamp formats an instant the way note timestamps are stored.
func Stamp(instant time.Time) string {
	return instant.UTC().Format(time.RFC3339Nano)
}

// CloneNotes deep-copies a notes collection. Collections handed across
// component boundaries are always clones, never live references.
func CloneNotes(collection []Note) []Note {
	if collection == nil {
		return nil
	}
	cloned := make([]Note, len(collection))
	for i, note := range collection {
		cloned[i] = note
		cloned[i].Tags = append([]string(nil), note.Tags...)
	}
	return cloned
}

// CloneStrings copies a category or tag collection.
func CloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string(nil), values...)
}
