package voice

import (
	"slices"
	"sync"

	"github.com/voxprep/interview-core/core/events"
)

// Emitter is the subscription half of a voice client: a registry of
// per-kind handlers plus dispatch. Transport implementations embed it and
// call Emit from their read loops; tests use it directly to replay event
// sequences deterministically.
//
// A handler panic is contained and logged so one malformed event cannot
// take down the whole session.
type Emitter struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[events.Kind]map[int]Handler
}

// On registers handler for the given event kind and returns the function
// that removes the registration.
func (e *Emitter) On(kind events.Kind, handler Handler) (off func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handlers == nil {
		e.handlers = map[events.Kind]map[int]Handler{}
	}
	if e.handlers[kind] == nil {
		e.handlers[kind] = map[int]Handler{}
	}

	id := e.nextID
	e.nextID++
	e.handlers[kind][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.handlers[kind], id)
		})
	}
}

// Emit delivers event to every handler registered for its kind, in
// registration order, on the calling goroutine. Ordering between successive
// Emit calls is therefore the caller's arrival order.
func (e *Emitter) Emit(event events.Event) {
	e.mu.RLock()
	registered := e.handlers[event.Kind()]
	ids := make([]int, 0, len(registered))
	for id := range registered {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	handlers := make([]Handler, 0, len(registered))
	for _, id := range ids {
		handlers = append(handlers, registered[id])
	}
	e.mu.RUnlock()

	for _, handler := range handlers {
		e.invoke(handler, event)
	}
}

func (e *Emitter) invoke(handler Handler, event events.Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("event handler panicked", "kind", event.Kind(), "panic", r)
		}
	}()
	handler(event)
}
