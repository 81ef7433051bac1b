package notes

import (
	"regexp"
	"strings"
)

// Filter returns the subsequence of notes whose content, category, or any tag
// contains the query, case-insensitively. An empty query matches everything.
// Input order is preserved; there is no relevance ranking.
func Filter(collection []Note, query string) []Note {
	needle := strings.ToLower(query)
	matched := make([]Note, 0, len(collection))
	for _, note := range collection {
		if matchesQuery(note, needle) {
			matched = append(matched, note)
		}
	}
	return matched
}

func matchesQuery(note Note, needle string) bool {
	if strings.Contains(strings.ToLower(note.Content), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(note.Category), needle) {
		return true
	}
	for _, tag := range note.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// Segment is one run of display text; emphasized runs matched the query.
type Segment struct {
	Text       string
	Emphasized bool
}

// Highlight splits text into plain and emphasized segments around every
// non-overlapping, case-insensitive occurrence of the query. A whitespace-only
// query disables highlighting. The query is matched literally: metacharacters
// are quoted before the pattern is compiled, so searching for "a+b" emphasizes
// the text "a+b". Segments concatenate back to the input exactly.
func Highlight(text, query string) []Segment {
	if strings.TrimSpace(query) == "" {
		return []Segment{{Text: text}}
	}

	pattern, err := regexp.Compile("(?i)" + regexp.QuoteMeta(query))
	if err != nil {
		return []Segment{{Text: text}}
	}

	spans := pattern.FindAllStringIndex(text, -1)
	if len(spans) == 0 {
		return []Segment{{Text: text}}
	}

	segments := make([]Segment, 0, 2*len(spans)+1)
	cursor := 0
	for _, span := range spans {
		if span[0] > cursor {
			segments = append(segments, Segment{Text: text[cursor:span[0]]})
		}
		segments = append(segments, Segment{Text: text[span[0]:span[1]], Emphasized: true})
		cursor = span[1]
	}
	if cursor < len(text) {
		segments = append(segments, Segment{Text: text[cursor:]})
	}
	return segments
}
