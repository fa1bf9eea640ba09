// Package permissions implements the permission status cache and change
// notification core: every logical capability check is interned into a
// single live Status object, and state transitions reported by the
// authority are broadcast to the listeners attached to that object,
// exactly once per actual transition.
package permissions

import (
	"log/slog"
	"sync"

	"github.com/veilbox-dev/veilbox/internal/domain/permissions"
)

// ChangeEvent describes one observed state transition for a capability key.
// The event is not cancelable: suppressing the default only skips the
// designated on-change handler, never the transition itself.
type ChangeEvent struct {
	Key string
	Old permissions.State
	New permissions.State

	suppressed bool
}

// SuppressDefault marks the event so the designated on-change handler is
// skipped. Generic listeners are unaffected.
func (e *ChangeEvent) SuppressDefault() {
	e.suppressed = true
}

// DefaultSuppressed reports whether a listener suppressed the default
// handler.
func (e *ChangeEvent) DefaultSuppressed() bool {
	return e.suppressed
}

// ListenerFunc receives change events. Listeners run synchronously with the
// call that triggered the transition.
type ListenerFunc func(*ChangeEvent)

// ListenerID identifies a registered listener for later removal.
type ListenerID int

type statusListener struct {
	id ListenerID
	fn ListenerFunc
}

// Status is the observable handle for one capability key. Exactly one
// Status exists per key for the lifetime of the process; callers may rely
// on pointer identity to recognize the same capability across repeated
// queries.
//
// A Status is only ever created by the status cache. State is mutated
// solely by cache updates driven by authority responses, never by
// consumers.
type Status struct {
	mu        sync.Mutex
	key       string
	state     permissions.State
	listeners []statusListener
	nextID    ListenerID
	onChange  ListenerFunc
}

// newStatus is the only construction path. Keeping it package private
// enforces that every Status is cache interned.
func newStatus(key string, state permissions.State) *Status {
	return &Status{key: key, state: state}
}

// Key returns the cache key this status is interned under.
func (s *Status) Key() string {
	return s.key
}

// State returns the current authorization state at the time of access.
func (s *Status) State() permissions.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AddChangeListener registers a listener for change events. Listeners fire
// in registration order. The returned ID removes the listener again.
func (s *Status) AddChangeListener(fn ListenerFunc) ListenerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, statusListener{id: id, fn: fn})
	return id
}

// RemoveChangeListener unregisters a previously added listener. Removing an
// unknown ID is a no-op.
func (s *Status) RemoveChangeListener(id ListenerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.listeners {
		if l.id == id {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// SetOnChange installs the single designated on-change handler. It runs
// after the generic listeners, only if no listener suppressed the default.
// Passing nil clears the slot.
func (s *Status) SetOnChange(fn ListenerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// setState mirrors the cache record's state into the status. Called by the
// cache with its own lock held, so it must not dispatch.
func (s *Status) setState(state permissions.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// dispatchChange delivers one transition to all listeners and then the
// on-change slot. It runs without the cache lock, on a snapshot of the
// pre/post states, so listeners can re-enter the service freely.
func (s *Status) dispatchChange(old, updated permissions.State) {
	s.mu.Lock()
	snapshot := make([]statusListener, len(s.listeners))
	copy(snapshot, s.listeners)
	onChange := s.onChange
	s.mu.Unlock()

	event := &ChangeEvent{Key: s.key, Old: old, New: updated}

	for _, l := range snapshot {
		runListener(s.key, l.fn, event)
	}

	if onChange != nil && !event.suppressed {
		runListener(s.key, onChange, event)
	}
}

// runListener invokes one listener, containing panics so a failing listener
// cannot starve the rest of the dispatch or corrupt the cache.
func runListener(key string, fn ListenerFunc, event *ChangeEvent) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("permission change listener panicked", "key", key, "panic", r)
		}
	}()
	fn(event)
}
