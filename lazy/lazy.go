// Package lazy provides explicitly stated lazy values: a Value holds
// NotLoaded, Loading or Loaded and fetches on first access through an
// injected Loader.
package lazy

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State is the load state of a Value.
type State uint8

// Load states.
const (
	NotLoaded State = iota
	Loading
	Loaded
)

func (s State) String() string {
	switch s {
	case NotLoaded:
		return "NotLoaded"
	case Loading:
		return "Loading"
	case Loaded:
		return "Loaded"
	}
	return fmt.Sprintf("State(%d)", s)
}

// ErrNoLoader is returned by Get on a value that is neither loaded nor has a
// loader.
var ErrNoLoader = errors.New("lazy: value has no loader")

// Loader fetches the value of a lazy reference.
type Loader[T any] func(ctx context.Context) (T, error)

// Hydrator populates an entity instance from the database. It is invoked
// once per lazy reference, on first access.
type Hydrator interface {
	Hydrate(ctx context.Context, instance any, entity string) error
}

// HydratorFunc adapts a function to the Hydrator interface.
type HydratorFunc func(ctx context.Context, instance any, entity string) error

// Hydrate calls f.
func (f HydratorFunc) Hydrate(ctx context.Context, instance any, entity string) error {
	return f(ctx, instance, entity)
}

// Hydrate returns a Loader filling instance through h.
func Hydrate[T any](h Hydrator, instance T, entity string) Loader[T] {
	return func(ctx context.Context) (T, error) {
		if err := h.Hydrate(ctx, instance, entity); err != nil {
			var zero T
			return zero, err
		}
		return instance, nil
	}
}

// Value is a lazily loaded value. Concurrent callers of Get share a single
// load; a failed load returns the value to NotLoaded so it can be retried.
type Value[T any] struct {
	mu    sync.Mutex
	state State
	value T
	load  Loader[T]
	done  chan struct{}
	err   error
}

// New returns a value fetched by load on first access.
func New[T any](load Loader[T]) *Value[T] {
	return &Value[T]{load: load}
}

// Of returns a value that is already loaded.
func Of[T any](v T) *Value[T] {
	return &Value[T]{state: Loaded, value: v}
}

// State returns the current load state.
func (v *Value[T]) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Get returns the value, loading it first if needed.
func (v *Value[T]) Get(ctx context.Context) (T, error) {
	v.mu.Lock()
	switch v.state {
	case Loaded:
		defer v.mu.Unlock()
		return v.value, nil
	case Loading:
		done := v.done
		v.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.state == Loaded {
			return v.value, nil
		}
		return v.value, v.err
	}
	if v.load == nil {
		v.mu.Unlock()
		var zero T
		return zero, ErrNoLoader
	}
	v.state = Loading
	v.done = make(chan struct{})
	load := v.load
	v.mu.Unlock()

	val, err := load(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.state = NotLoaded
		v.err = err
	} else {
		v.state = Loaded
		v.value = val
		v.err = nil
	}
	close(v.done)
	return val, err
}

// Set stores a value and marks it loaded.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = val
	v.state = Loaded
}

// Peek returns the value without loading it.
func (v *Value[T]) Peek() (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value, v.state == Loaded
}

// Reset drops a loaded value so the next Get loads again.
func (v *Value[T]) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state == Loaded {
		var zero T
		v.value = zero
		v.state = NotLoaded
	}
}
