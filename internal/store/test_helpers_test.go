package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/snipvault/snipvault/internal/auth"
	"github.com/snipvault/snipvault/internal/notes"
)

type fakeLocal struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	failSave bool
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{blobs: map[string][]byte{}}
}

func (f *fakeLocal) Load(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	blob, found := f.blobs[key]
	return blob, found, nil
}

func (f *fakeLocal) Save(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return errors.New("disk full")
	}
	f.blobs[key] = append([]byte(nil), value...)
	return nil
}

type fakeMirror struct {
	mu        sync.Mutex
	remote    []notes.Note
	hasRemote bool
	pullErr   error
	pushes    chan []notes.Note
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{pushes: make(chan []notes.Note, 8)}
}

func (f *fakeMirror) Pull(context.Context, auth.Identity) ([]notes.Note, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pullErr != nil {
		return nil, false, f.pullErr
	}
	return notes.CloneNotes(f.remote), f.hasRemote, nil
}

func (f *fakeMirror) Push(_ context.Context, _ auth.Identity, snapshot []notes.Note) error {
	f.mu.Lock()
	f.remote = notes.CloneNotes(snapshot)
	f.hasRemote = true
	f.mu.Unlock()
	f.pushes <- notes.CloneNotes(snapshot)
	return nil
}

func awaitPush(t *testing.T, mirror *fakeMirror) []notes.Note {
	t.Helper()
	select {
	case snapshot := <-mirror.pushes:
		return snapshot
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for mirror push")
		return nil
	}
}

type sequenceIDProvider struct {
	mu   sync.Mutex
	next int
}

func (g *sequenceIDProvider) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("note-%d", g.next), nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Unix(1700000000, 0).UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type storeFixture struct {
	store  *Store
	local  *fakeLocal
	mirror *fakeMirror
	clock  *testClock
}

func newFixture(t *testing.T) *storeFixture {
	t.Helper()
	local := newFakeLocal()
	remote := newFakeMirror()
	clock := newTestClock()
	s, err := New(Config{
		Local:      local,
		Remote:     remote,
		Clock:      clock.Now,
		IDProvider: &sequenceIDProvider{},
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	return &storeFixture{store: s, local: local, mirror: remote, clock: clock}
}

func createNote(t *testing.T, fixture *storeFixture, content, category string, tags []string) {
	t.Helper()
	fixture.store.SetDraftContent(content)
	fixture.store.SetDraftCategory(category)
	for _, tag := range tags {
		fixture.store.ToggleDraftTag(tag)
	}
	if err := fixture.store.Create(context.Background()); err != nil {
		t.Fatalf("unexpected create error: %v", err)
	}
}
