package notes

import (
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrMalformedBackup indicates that a serialized notes payload could not be parsed.
var ErrMalformedBackup = errors.New("notes: malformed backup payload")

// EncodeNotes serializes the collection into the blob format shared by the
// local store, the remote mirror document, and backup files.
func EncodeNotes(collection []Note) ([]byte, error) {
	return json.Marshal(collection)
}

// DecodeNotes parses a serialized notes collection. Files arriving through a
// document picker are not guaranteed to be clean UTF-8, so a byte-order mark
// or UTF-16 encoding is tolerated before JSON decoding. A payload that still
// fails to parse yields ErrMalformedBackup and no partial result.
func DecodeNotes(blob []byte) ([]Note, error) {
	normalized, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBackup, err)
	}

	var collection []Note
	if err := json.Unmarshal(normalized, &collection); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBackup, err)
	}
	for i := range collection {
		if collection[i].Tags == nil {
			collection[i].Tags = []string{}
		}
	}
	return collection, nil
}

// EncodeStrings serializes a category or tag collection blob.
func EncodeStrings(values []string) ([]byte, error) {
	return json.Marshal(values)
}

// DecodeStrings parses a category or tag collection blob.
func DecodeStrings(blob []byte) ([]string, error) {
	var values []string
	if err := json.Unmarshal(blob, &values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBackup, err)
	}
	return values, nil
}
