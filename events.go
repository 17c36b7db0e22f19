package speaker

import (
	"sync"
)

// EventType identifies a lifecycle notification.
type EventType int

const (
	// EventOpen is raised once the backend device has been opened.
	EventOpen EventType = iota
	// EventFlush is raised when the upstream producer finished and buffered audio was flushed.
	EventFlush
	// EventClose is raised exactly once, when the speaker is closed.
	EventClose
	// EventError carries an error detected outside of a Write call.
	EventError
)

// EventTypeNames provides human-readable names for event types.
var EventTypeNames = map[EventType]string{
	EventOpen:  "open",
	EventFlush: "flush",
	EventClose: "close",
	EventError: "error",
}

// String returns the name of the event type.
func (t EventType) String() string {
	return EventTypeNames[t]
}

// Event is a lifecycle notification of a Speaker.
type Event struct {
	Type EventType
	// Err is set for EventError.
	Err error
}

// Listener receives events. It is called synchronously from the goroutine
// that caused the event and must not call back into the Speaker's Close or Stop.
type Listener func(Event)

// emitter dispatches events to registered listeners in registration order.
type emitter struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]Listener
	order     []int
}

// subscribe registers fn and returns a function that removes it.
func (e *emitter) subscribe(fn Listener) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners == nil {
		e.listeners = make(map[int]Listener)
	}

	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	e.order = append(e.order, id)

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		delete(e.listeners, id)
		for i, v := range e.order {
			if v == id {
				e.order = append(e.order[:i], e.order[i+1:]...)

				break
			}
		}
	}
}

func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	fns := make([]Listener, 0, len(e.order))
	for _, id := range e.order {
		fns = append(fns, e.listeners[id])
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
