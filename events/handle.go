package events

import (
	"log"
	"runtime"
	"sync"
	"weak"
)

// CallbackHandle is a caller-held capability for one active event
// registration. It holds only weak references: a live handle keeps
// neither the registry nor its handler alive.
//
// When a handle becomes unreachable without Persist having been called,
// its registration is removed from the registry. Keep the handle (or
// call Persist) for listeners that should outlive the registering scope.
type CallbackHandle struct {
	mu      sync.Mutex
	done    bool
	state   handleState
	cleanup runtime.Cleanup
}

// handleState is the part of a handle the cleanup needs. It must not
// reference the handle itself or the handle would never be collected.
type handleState struct {
	event    Event
	registry weak.Pointer[Registry]
	entry    weak.Pointer[handlerEntry]
}

func newCallbackHandle(event Event, r *Registry, entry *handlerEntry) *CallbackHandle {
	h := &CallbackHandle{
		state: handleState{
			event:    event,
			registry: weak.Make(r),
			entry:    weak.Make(entry),
		},
	}
	h.cleanup = runtime.AddCleanup(h, func(s handleState) { s.release() }, h.state)
	return h
}

// Remove immediately deregisters the handler. Calling it on a handle
// whose registration is already gone is a no-op.
func (h *CallbackHandle) Remove() {
	if h.finish() {
		h.state.release()
	}
}

// Persist keeps the handler registered for the remaining lifetime of
// the registry by disabling the handle's automatic cleanup.
func (h *CallbackHandle) Persist() {
	h.finish()
}

// finish disarms the cleanup exactly once.
func (h *CallbackHandle) finish() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return false
	}
	h.done = true
	h.cleanup.Stop()
	return true
}

// release removes the registration if both the registry and the handler
// are still alive. Either one missing means there is nothing left to
// remove; a removal that raced with a manual one is equally harmless.
// This runs from the cleanup goroutine and must never panic.
func (s handleState) release() {
	r := s.registry.Value()
	entry := s.entry.Value()
	if r == nil || entry == nil {
		return
	}
	if err := r.remove(s.event, entry); err != nil {
		// Usually a cleanup racing with a manual removal; safe to ignore.
		log.Printf("[debug] failed to remove event handler: %v", err)
	}
}
