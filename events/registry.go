package events

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

// ErrNoChangesMade is returned by a removal that found no matching
// handler. It usually means the handler was already removed and can be
// ignored by callers doing best-effort cleanup.
var ErrNoChangesMade = errors.New("no changes made to the registry")

// EventData is the decoded payload carried alongside a dispatched event.
type EventData map[string]any

// Context wraps the event data for a single handler invocation. Every
// handler receives its own copy.
type Context struct {
	Event EventData
}

// clone deep-copies the event data so handlers never share a mutable
// instance, not even through nested maps or slices.
func (c Context) clone() Context {
	if c.Event == nil {
		return Context{}
	}
	dup := make(EventData, len(c.Event))
	for k, v := range c.Event {
		dup[k] = deepCopy(v)
	}
	return Context{Event: dup}
}

// deepCopy duplicates the nested map/slice structure JSON decoding
// produces. Scalar values are immutable and shared as-is.
func deepCopy(v any) any {
	switch v := v.(type) {
	case map[string]any:
		dup := make(map[string]any, len(v))
		for k, e := range v {
			dup[k] = deepCopy(e)
		}
		return dup
	case EventData:
		dup := make(EventData, len(v))
		for k, e := range v {
			dup[k] = deepCopy(e)
		}
		return dup
	case []any:
		dup := make([]any, len(v))
		for i, e := range v {
			dup[i] = deepCopy(e)
		}
		return dup
	default:
		return v
	}
}

// Handler is an event callback.
type Handler func(Context)

// handlerEntry boxes a handler in its own allocation so removal can
// match on identity rather than on function value, which Go cannot
// compare.
type handlerEntry struct {
	fn Handler
}

// Registry maps events to their registered handlers and fans incoming
// events out to them. A single RWMutex guards the table; handler bodies
// always run outside its critical section.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Event][]*handlerEntry
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Event][]*handlerEntry)}
}

// Register appends handler to the list for event and returns a handle
// controlling the registration's lifetime. If the handle becomes
// unreachable without Persist having been called, the handler is
// removed from the registry.
func (r *Registry) Register(event Event, handler Handler) *CallbackHandle {
	entry := &handlerEntry{fn: handler}

	r.mu.Lock()
	r.handlers[event] = append(r.handlers[event], entry)
	r.mu.Unlock()

	return newCallbackHandle(event, r, entry)
}

// Handle dispatches data to every handler registered for event at the
// time of the call. Each handler runs on its own goroutine with its own
// copy of the context; Handle returns once all handlers have been
// launched, never waiting for them to finish. Registrations or removals
// that race with the call do not affect the snapshot.
func (r *Registry) Handle(event Event, data EventData) {
	r.mu.RLock()
	entries := r.handlers[event]
	snapshot := make([]*handlerEntry, len(entries))
	copy(snapshot, entries)
	r.mu.RUnlock()

	if len(snapshot) == 0 {
		return
	}

	ctx := Context{Event: data}
	for _, entry := range snapshot {
		go invoke(event, entry.fn, ctx.clone())
	}
}

// invoke isolates one handler invocation. A panicking handler must not
// take down sibling handlers, the registry, or the process.
func invoke(event Event, fn Handler, ctx Context) {
	defer func() {
		if v := recover(); v != nil {
			log.Printf("[error] %s handler panicked: %v", event, v)
		}
	}()
	fn(ctx)
}

// remove deletes the entry whose allocation is identical to target from
// event's list. ErrNoChangesMade means nothing matched, which generally
// means the handler was already removed.
func (r *Registry) remove(event Event, target *handlerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.handlers[event]
	for i, entry := range list {
		if entry == target {
			r.handlers[event] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%s handler: %w", event, ErrNoChangesMade)
}
