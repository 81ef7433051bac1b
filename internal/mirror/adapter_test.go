package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/snipvault/snipvault/internal/auth"
	"github.com/snipvault/snipvault/internal/notes"
)

var testIdentity = auth.Identity{UserID: "anon-1", Token: "bearer-token"}

func newDocumentServer(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	adapter, err := NewAdapter(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return adapter
}

func TestPullReturnsRemoteSnapshot(t *testing.T) {
	adapter := newDocumentServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/users/me/document" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer bearer-token" {
			t.Fatalf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"notes":[{"id":"1","content":"cloud","category":"General","tags":[],"isCode":false,"timestamp":"2026-01-02T10:00:00Z"}],"profile":{"theme":"dark"}}`))
	})

	snapshot, found, err := adapter.Pull(context.Background(), testIdentity)
	if err != nil {
		t.Fatalf("unexpected pull error: %v", err)
	}
	if !found {
		t.Fatalf("expected snapshot to be found")
	}
	if len(snapshot) != 1 || snapshot[0].Content != "cloud" {
		t.Fatalf("unexpected snapshot %#v", snapshot)
	}
}

func TestPullReportsAbsenceOn404(t *testing.T) {
	adapter := newDocumentServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found"}`))
	})

	_, found, err := adapter.Pull(context.Background(), testIdentity)
	if err != nil {
		t.Fatalf("unexpected pull error: %v", err)
	}
	if found {
		t.Fatalf("missing document must report found=false")
	}
}

func TestPullReportsAbsenceWithoutNotesField(t *testing.T) {
	adapter := newDocumentServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"profile":{"theme":"dark"}}`))
	})

	_, found, err := adapter.Pull(context.Background(), testIdentity)
	if err != nil {
		t.Fatalf("unexpected pull error: %v", err)
	}
	if found {
		t.Fatalf("document without notes field must report found=false")
	}
}

func TestPullWrapsServerFailures(t *testing.T) {
	adapter := newDocumentServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, _, err := adapter.Pull(context.Background(), testIdentity); !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
}

func TestPushSendsWholeDocumentUpsert(t *testing.T) {
	var captured []byte
	adapter := newDocumentServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/users/me/document" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer bearer-token" {
			t.Fatalf("missing bearer token")
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("failed to read body: %v", err)
		}
		captured = body
		w.WriteHeader(http.StatusNoContent)
	})

	snapshot := []notes.Note{{ID: "1", Content: "local", Category: "General", Tags: []string{"t"}, Timestamp: "2026-01-02T10:00:00Z"}}
	if err := adapter.Push(context.Background(), testIdentity, snapshot); err != nil {
		t.Fatalf("unexpected push error: %v", err)
	}

	var payload struct {
		Notes json.RawMessage `json:"notes"`
	}
	if err := json.Unmarshal(captured, &payload); err != nil {
		t.Fatalf("failed to decode pushed body: %v", err)
	}
	decoded, err := notes.DecodeNotes(payload.Notes)
	if err != nil {
		t.Fatalf("failed to decode pushed notes: %v", err)
	}
	if !reflect.DeepEqual(decoded, snapshot) {
		t.Fatalf("pushed snapshot mismatch:\n got %#v\nwant %#v", decoded, snapshot)
	}
}

func TestPushRequiresIdentity(t *testing.T) {
	adapter := newDocumentServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no request expected")
	})

	if err := adapter.Push(context.Background(), auth.Identity{}, nil); err == nil {
		t.Fatalf("expected error for missing identity")
	}
}
