package events

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (r *Registry) handlerCount(e Event) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[e])
}

func (r *Registry) eventCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

func TestCanRegisterEventHandlers(t *testing.T) {
	registry := NewRegistry()
	ready1 := registry.Register(Ready, func(Context) { panic("unreachable") })
	ready2 := registry.Register(Ready, func(Context) { panic("unreachable") })
	errH := registry.Register(Error, func(Context) { panic("unreachable") })

	assert.Equal(t, 2, registry.eventCount())
	assert.Equal(t, 2, registry.handlerCount(Ready))
	assert.Equal(t, 1, registry.handlerCount(Error))

	runtime.KeepAlive(ready1)
	runtime.KeepAlive(ready2)
	runtime.KeepAlive(errH)
}

// Handlers are removed once their handle becomes unreachable, so a
// forgotten registration cannot leak.
func TestAutoRemoveEventHandlers(t *testing.T) {
	registry := NewRegistry()
	ready1 := registry.Register(Ready, func(Context) {})
	errH := registry.Register(Error, func(Context) {})

	func() {
		ready2 := registry.Register(Ready, func(Context) {})
		_ = ready2
	}()
	require.Equal(t, 2, registry.handlerCount(Ready))

	// ready2's handle is unreachable now; its cleanup fires after GC.
	require.Eventually(t, func() bool {
		runtime.GC()
		return registry.handlerCount(Ready) == 1
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, 2, registry.eventCount())
	assert.Equal(t, 1, registry.handlerCount(Error))

	runtime.KeepAlive(ready1)
	runtime.KeepAlive(errH)
}

// Persist keeps an event callback registered for the entire lifetime of
// the registry, disabling the automatic removal tested above.
func TestPersistCallbackHandles(t *testing.T) {
	registry := NewRegistry()

	func() {
		registry.Register(Ready, func(Context) {}).Persist()
	}()

	for i := 0; i < 3; i++ {
		runtime.GC()
	}
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 1, registry.eventCount())
	assert.Equal(t, 1, registry.handlerCount(Ready))
}

func TestExplicitRemoveLeavesSiblings(t *testing.T) {
	registry := NewRegistry()
	a1 := registry.Register(Ready, func(Context) {})
	a2 := registry.Register(Ready, func(Context) {})
	b := registry.Register(Error, func(Context) {})

	registry.mu.RLock()
	first := registry.handlers[Ready][0]
	registry.mu.RUnlock()

	a2.Remove()

	require.Equal(t, 1, registry.handlerCount(Ready))
	require.Equal(t, 1, registry.handlerCount(Error))

	registry.mu.RLock()
	remaining := registry.handlers[Ready][0]
	registry.mu.RUnlock()
	assert.Same(t, first, remaining, "removal must target a2's own entry")

	runtime.KeepAlive(a1)
	runtime.KeepAlive(b)
}

func TestRemoveIsIdempotent(t *testing.T) {
	registry := NewRegistry()
	h := registry.Register(Ready, func(Context) {})

	registry.mu.RLock()
	entry := registry.handlers[Ready][0]
	registry.mu.RUnlock()

	require.NoError(t, registry.remove(Ready, entry))
	err := registry.remove(Ready, entry)
	require.ErrorIs(t, err, ErrNoChangesMade)
	assert.Equal(t, 0, registry.handlerCount(Ready))

	// The handle's own Remove after a manual removal is a silent no-op.
	assert.NotPanics(t, h.Remove)
}

func TestDispatchWithoutHandlers(t *testing.T) {
	registry := NewRegistry()
	assert.NotPanics(t, func() {
		registry.Handle(ActivityJoin, EventData{"secret": "s"})
	})
}

func TestDispatchInvokesEveryHandler(t *testing.T) {
	registry := NewRegistry()
	got := make(chan string, 2)

	h1 := registry.Register(ActivityJoin, func(ctx Context) {
		secret, _ := ctx.Event["secret"].(string)
		got <- secret
	})
	h2 := registry.Register(ActivityJoin, func(ctx Context) {
		secret, _ := ctx.Event["secret"].(string)
		got <- secret
	})

	registry.Handle(ActivityJoin, EventData{"secret": "join-me"})

	for i := 0; i < 2; i++ {
		select {
		case secret := <-got:
			assert.Equal(t, "join-me", secret)
		case <-time.After(2 * time.Second):
			t.Fatal("handler was not invoked")
		}
	}

	runtime.KeepAlive(h1)
	runtime.KeepAlive(h2)
}

// Each invocation gets its own copy of the event data; a handler that
// mutates its context, including structure nested below the top level,
// cannot affect a sibling's view.
func TestDispatchClonesContextPerHandler(t *testing.T) {
	registry := NewRegistry()
	seen := make(chan string, 2)
	release := make(chan struct{})

	mutator := registry.Register(Ready, func(ctx Context) {
		ctx.Event["session"] = "tampered"
		ctx.Event["user"].(map[string]any)["name"] = "tampered"
		close(release)
	})
	reader := registry.Register(Ready, func(ctx Context) {
		<-release
		session, _ := ctx.Event["session"].(string)
		seen <- session
		name, _ := ctx.Event["user"].(map[string]any)["name"].(string)
		seen <- name
	})

	registry.Handle(Ready, EventData{
		"session": "original",
		"user":    map[string]any{"name": "original"},
	})

	for i := 0; i < 2; i++ {
		select {
		case v := <-seen:
			assert.Equal(t, "original", v)
		case <-time.After(2 * time.Second):
			t.Fatal("handler was not invoked")
		}
	}

	runtime.KeepAlive(mutator)
	runtime.KeepAlive(reader)
}

func TestHandlerPanicIsIsolated(t *testing.T) {
	registry := NewRegistry()
	survived := make(chan struct{})

	bad := registry.Register(Error, func(Context) { panic("boom") })
	good := registry.Register(Error, func(Context) { close(survived) })

	registry.Handle(Error, nil)

	select {
	case <-survived:
	case <-time.After(2 * time.Second):
		t.Fatal("sibling handler did not run")
	}

	// Table must still be intact and usable.
	assert.Equal(t, 2, registry.handlerCount(Error))
	assert.NotPanics(t, func() { registry.Handle(Error, nil) })

	runtime.KeepAlive(bad)
	runtime.KeepAlive(good)
}

func TestConcurrentRegisterRemoveDispatch(t *testing.T) {
	registry := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h := registry.Register(SpeakingStart, func(Context) {})
				registry.Handle(SpeakingStart, EventData{"user_id": j})
				h.Remove()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, registry.handlerCount(SpeakingStart))
}
