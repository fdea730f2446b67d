package statekit

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// subscription pairs a listener with the plugin teardowns collected at
// registration time.
type subscription struct {
	id        uint64
	fn        func(any)
	teardowns []func()

	// torn guards the teardowns so unsubscribe and Destroy cannot both
	// run them.
	torn sync.Once
}

func (sub *subscription) teardown() {
	sub.torn.Do(func() {
		for _, td := range sub.teardowns {
			td()
		}
	})
}

// Store is the minimal state container. It owns one state value, a set of
// listeners, and zero or more plugins. See the package documentation for
// the state value shape.
type Store struct {
	mu        sync.RWMutex
	state     any
	subs      []*subscription
	plugins   []Plugin
	destroyed bool

	nextSubID atomic.Uint64

	logger *slog.Logger
}

// New creates a minimal store holding initial. The initial value must be
// non-nil; use an empty container to represent "no data yet".
func New(initial any) (*Store, error) {
	if initial == nil {
		return nil, ErrNilState
	}
	return &Store{
		state:  initial,
		logger: slog.Default(),
	}, nil
}

// WithLogger returns the store configured to log through l. Listener
// panics and use-after-destroy warnings go through this logger.
func (s *Store) WithLogger(l *slog.Logger) *Store {
	if l != nil {
		s.logger = l
	}
	return s
}

// Logger returns the store's logger.
func (s *Store) Logger() *slog.Logger {
	return s.logger
}

// GetState returns the current state value. It has no side effects.
func (s *Store) GetState() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetState computes a new state with update and commits it if it differs
// from the current state under DeepEqual.
//
// A nil result from update yields an *InvalidStateError and no commit. A
// panic inside update propagates to the caller: mutation failure is the
// caller's responsibility. On commit every listener is invoked with the
// new state (a panicking listener is logged and does not block the rest),
// then every AfterUpdater plugin observes (new, old).
//
// After Destroy, SetState is a no-op that logs a warning and returns
// ErrDestroyed.
func (s *Store) SetState(update func(any) any) error {
	_, err := s.Dispatch(update)
	return err
}

// Dispatch is SetState with an observable Outcome. It is the native apply
// function that middleware chains compose around.
func (s *Store) Dispatch(update func(any) any) (Outcome, error) {
	return s.commit("SetState", update)
}

func (s *Store) commit(op string, update func(any) any) (Outcome, error) {
	next, old, subs, plugins, err := s.stage(op, update)
	if err != nil || subs == nil {
		return Outcome{}, err
	}

	s.notify(subs, next)
	for _, p := range plugins {
		if au, ok := p.(AfterUpdater); ok {
			au.AfterUpdate(next, old)
		}
	}
	return Outcome{Committed: true}, nil
}

// stage runs the locked half of a commit: compute, validate, run
// before-update hooks, dedup, and swap the state. A nil subs return with
// a nil error means the update deduplicated. The deferred unlock keeps
// the store usable when the update function panics.
func (s *Store) stage(op string, update func(any) any) (next, old any, subs []*subscription, plugins []Plugin, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		s.logger.Warn("statekit: mutation on destroyed store ignored", "op", op)
		return nil, nil, nil, nil, ErrDestroyed
	}

	old = s.state
	next = update(old)
	if next == nil {
		return nil, nil, nil, nil, &InvalidStateError{Op: op}
	}

	plugins = make([]Plugin, len(s.plugins))
	copy(plugins, s.plugins)

	for _, p := range plugins {
		bu, ok := p.(BeforeUpdater)
		if !ok {
			continue
		}
		v, err := bu.BeforeUpdate(next, old)
		if err != nil {
			return nil, nil, nil, nil, &HookError{Plugin: p.Name(), Err: err}
		}
		if v != nil {
			next = v
		}
	}

	if DeepEqual(next, old) {
		return nil, nil, nil, nil, nil
	}

	s.state = next
	subs = make([]*subscription, 0, len(s.subs))
	subs = append(subs, s.subs...)
	return next, old, subs, plugins, nil
}

// Broadcast runs the notification half of the commit path: every listener
// receives next, then every AfterUpdater plugin observes (next, old).
//
// It exists for engines that mutate the stored containers in place
// (package reactive) and therefore commit without going through Dispatch.
// Most callers never need it.
func (s *Store) Broadcast(next, old any) {
	s.mu.RLock()
	subs := make([]*subscription, len(s.subs))
	copy(subs, s.subs)
	plugins := make([]Plugin, len(s.plugins))
	copy(plugins, s.plugins)
	s.mu.RUnlock()

	s.notify(subs, next)
	for _, p := range plugins {
		if au, ok := p.(AfterUpdater); ok {
			au.AfterUpdate(next, old)
		}
	}
}

// ReplaceState swaps the stored value without running hooks or notifying
// listeners. It exists for engines that own their commit discipline and
// call Broadcast separately (package reactive uses it when a root sequence
// changes length). Most callers want SetState. Nil values and destroyed
// stores are ignored.
func (s *Store) ReplaceState(v any) {
	if v == nil {
		return
	}
	s.mu.Lock()
	if !s.destroyed {
		s.state = v
	}
	s.mu.Unlock()
}

// notify invokes listeners with copy-before-notify isolation: each
// listener's panic is logged and the remaining listeners still run.
func (s *Store) notify(subs []*subscription, state any) {
	for _, sub := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("statekit: listener panic", "error", r)
				}
			}()
			sub.fn(state)
		}()
	}
}

// Subscribe registers a listener and returns its unsubscribe function.
// Each call is an independent registration with its own identity, so the
// same function value can be registered once per call and removed exactly
// by its paired unsubscribe.
//
// Every SubscribeObserver plugin sees the listener; returned teardowns run
// when the listener unsubscribes (or when the store is destroyed).
// Unsubscribe is idempotent.
func (s *Store) Subscribe(fn func(any)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	sub := &subscription{
		id: s.nextSubID.Add(1),
		fn: fn,
	}

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		s.logger.Warn("statekit: Subscribe on destroyed store ignored")
		return func() {}
	}
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	for _, p := range s.snapshotPlugins() {
		if so, ok := p.(SubscribeObserver); ok {
			if td := so.OnSubscribe(fn); td != nil {
				sub.teardowns = append(sub.teardowns, td)
			}
		}
	}

	return func() {
		s.removeSub(sub.id)
		sub.teardown()
	}
}

func (s *Store) removeSub(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			return
		}
	}
}

// Destroyed reports whether Destroy has been called.
func (s *Store) Destroyed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destroyed
}

// Destroy clears all listeners (running their collected teardowns) and
// fires every Destroyer plugin exactly once. Destroy is idempotent;
// mutations after Destroy are logged no-ops.
func (s *Store) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	subs := s.subs
	s.subs = nil
	plugins := make([]Plugin, len(s.plugins))
	copy(plugins, s.plugins)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.teardown()
	}
	for _, p := range plugins {
		if d, ok := p.(Destroyer); ok {
			d.OnDestroy()
		}
	}
}
