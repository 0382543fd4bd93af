package glotta

import (
	"fmt"
	"sync"
)

// flight is one in-flight computation shared by every caller that asked
// for the same key while it was pending.
type flight[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// flightGroup deduplicates concurrent identical computations: at most one
// function runs per key at any time, and all concurrent callers for that
// key observe the same result or the same error.
//
// This registry is the only shared mutable state in the engine. Lookup
// and registration happen inside a single critical section, so two
// concurrent callers can never both decide to start a fresh computation.
// Entries are self-removing: a flight deregisters before its waiters
// resume, so a call arriving after settlement always starts fresh and
// failures are never cached.
type flightGroup[T any] struct {
	mu      sync.Mutex
	flights map[string]*flight[T]
}

func newFlightGroup[T any]() *flightGroup[T] {
	return &flightGroup[T]{flights: make(map[string]*flight[T])}
}

// Do returns the result of fn for key, joining an existing in-flight call
// when one is pending. The second return value reports whether this
// caller joined an existing flight rather than starting one.
func (g *flightGroup[T]) Do(key string, fn func() (T, error)) (T, bool, error) {
	g.mu.Lock()
	if f, ok := g.flights[key]; ok {
		g.mu.Unlock()
		<-f.done
		return f.val, true, f.err
	}

	f := &flight[T]{done: make(chan struct{})}
	g.flights[key] = f
	g.mu.Unlock()

	// Deregister before releasing waiters: anything that runs after
	// settlement must see an empty slot for this key. The deferred
	// cleanup also settles the flight when fn panics, so waiters never
	// block forever and the key is never poisoned.
	func() {
		defer func() {
			if r := recover(); r != nil {
				f.err = &TranslationError{Message: fmt.Sprintf("in-flight call panicked: %v", r)}
			}
			g.mu.Lock()
			delete(g.flights, key)
			g.mu.Unlock()
			close(f.done)
		}()
		f.val, f.err = fn()
	}()

	return f.val, false, f.err
}

// Pending returns the number of in-flight keys.
func (g *flightGroup[T]) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.flights)
}
