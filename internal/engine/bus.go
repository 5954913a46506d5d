package engine

import (
	"fmt"
	"sync"

	"github.com/wonny/fxsignal/pkg/logger"
)

// EventKind identifies the engine event streams.
type EventKind string

const (
	EventAnalysis EventKind = "analysis"
	EventSignal   EventKind = "signal"
	EventError    EventKind = "error"
	EventUpdate   EventKind = "update"
)

// Event is one notification published by the engine.
type Event struct {
	Kind    EventKind
	Payload interface{}
}

// Listener receives published events. Listeners run synchronously on the
// publishing goroutine; long-running work belongs on the listener's side.
type Listener func(Event)

// Bus is a minimal in-process event bus. A panicking listener is logged and
// skipped; it never takes down the publisher or its sibling listeners.
type Bus struct {
	mu        sync.RWMutex
	listeners map[EventKind]map[int]Listener
	nextID    int
	logger    *logger.Logger
}

// NewBus creates an event bus.
func NewBus(log *logger.Logger) *Bus {
	return &Bus{
		listeners: make(map[EventKind]map[int]Listener),
		logger:    log,
	}
}

// Subscribe registers a listener for one event kind and returns an id for
// Unsubscribe.
func (b *Bus) Subscribe(kind EventKind, fn Listener) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.listeners[kind] == nil {
		b.listeners[kind] = make(map[int]Listener)
	}

	b.nextID++
	b.listeners[kind][b.nextID] = fn
	return b.nextID
}

// Unsubscribe removes a listener. Unknown ids are ignored.
func (b *Bus) Unsubscribe(kind EventKind, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.listeners[kind], id)
}

// Publish delivers the event to every listener of its kind.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	fns := make([]Listener, 0, len(b.listeners[evt.Kind]))
	for _, fn := range b.listeners[evt.Kind] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		b.deliver(evt, fn)
	}
}

func (b *Bus) deliver(evt Event, fn Listener) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.WithFields(map[string]interface{}{
				"event": evt.Kind,
				"panic": fmt.Sprintf("%v", r),
			}).Error("Event listener panicked")
		}
	}()

	fn(evt)
}
