package store

import (
	"context"
	"sync"
)

// Collections named in change events.
const (
	CollectionNotes      = "notes"
	CollectionCategories = "categories"
	CollectionTags       = "tags"
)

// Reasons carried by change events.
const (
	ReasonHydrate   = "hydrate"
	ReasonCreate    = "create"
	ReasonUpdate    = "update"
	ReasonDelete    = "delete"
	ReasonImport    = "import"
	ReasonReconcile = "reconcile"
)

// Event announces that a collection changed. Consumers re-read the snapshot
// they care about; events carry no payload.
type Event struct {
	Collection string
	Reason     string
}

type dispatcher struct {
	mu          sync.Mutex
	subscribers map[int64]chan Event
	nextID      int64
	bufferSize  int
}

func newDispatcher() *dispatcher {
	return &dispatcher{
		subscribers: make(map[int64]chan Event),
		bufferSize:  16,
	}
}

// Subscribe registers a change-event stream that is torn down when ctx ends.
func (s *Store) Subscribe(ctx context.Context) (<-chan Event, func()) {
	return s.dispatcher.subscribe(ctx)
}

func (d *dispatcher) subscribe(ctx context.Context) (<-chan Event, func()) {
	d.mu.Lock()
	d.nextID++
	id := d.nextID
	stream := make(chan Event, d.bufferSize)
	d.subscribers[id] = stream
	d.mu.Unlock()

	cleanup := func() {
		d.mu.Lock()
		delete(d.subscribers, id)
		d.mu.Unlock()
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return stream, cleanup
}

// publish delivers the event to every subscriber without blocking; a
// subscriber that has fallen behind misses the event.
func (d *dispatcher) publish(event Event) {
	d.mu.Lock()
	streams := make([]chan Event, 0, len(d.subscribers))
	for _, stream := range d.subscribers {
		streams = append(streams, stream)
	}
	d.mu.Unlock()

	for _, stream := range streams {
		select {
		case stream <- event:
		default:
		}
	}
}
