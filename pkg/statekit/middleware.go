package statekit

import "sync"

// Outcome is the result of dispatching one logical SetState call through
// the store (and its middleware chain, if any).
type Outcome struct {
	// Committed is true when the state was replaced and listeners fired.
	// A deep-equal update leaves Committed false with no error.
	Committed bool

	// Suppressed is true when a middleware cancelled the update without
	// reaching the store. Suppression is silent: no error, no listeners.
	Suppressed bool

	// Reason optionally explains a suppression.
	Reason string
}

// Apply performs one logical SetState call. The store's native apply is
// Store.Dispatch; middlewares wrap it.
type Apply func(update func(any) any) (Outcome, error)

// Middleware wraps a single logical SetState call. It receives the store
// and the next stage, and returns its own Apply. A middleware suppresses
// an update by returning Suppress instead of calling next; an error
// returned (or panic raised) inside a middleware propagates to the
// original SetState caller.
type Middleware func(s *Store, next Apply) Apply

// Suppress builds the outcome a middleware returns to cancel an update
// explicitly. The update function is never invoked and the state is
// untouched.
func Suppress(reason string) (Outcome, error) {
	return Outcome{Suppressed: true, Reason: reason}, nil
}

// ExtensibleStore is a Store whose commit path can be wrapped by
// middleware. Stages compose onion-style: the first Use'd middleware is
// outermost, so middlewares execute in registration order on the way in
// and reverse order on the way out.
type ExtensibleStore struct {
	*Store

	chainMu sync.RWMutex
	chain   []Middleware
}

// NewExtensible creates a middleware-extensible store holding initial.
func NewExtensible(initial any) (*ExtensibleStore, error) {
	s, err := New(initial)
	if err != nil {
		return nil, err
	}
	return &ExtensibleStore{Store: s}, nil
}

// Use appends a middleware stage. Stages added after a SetState call only
// affect subsequent calls.
func (e *ExtensibleStore) Use(mw Middleware) {
	if mw == nil {
		return
	}
	e.chainMu.Lock()
	e.chain = append(e.chain, mw)
	e.chainMu.Unlock()
}

// SetState dispatches update through the middleware chain into the base
// store. See Store.SetState for commit semantics.
func (e *ExtensibleStore) SetState(update func(any) any) error {
	_, err := e.Dispatch(update)
	return err
}

// Dispatch runs update through the middleware chain and returns the
// outcome, making suppression observable to callers that care.
func (e *ExtensibleStore) Dispatch(update func(any) any) (Outcome, error) {
	e.chainMu.RLock()
	chain := make([]Middleware, len(e.chain))
	copy(chain, e.chain)
	e.chainMu.RUnlock()

	apply := e.Store.Dispatch
	for i := len(chain) - 1; i >= 0; i-- {
		apply = chain[i](e.Store, apply)
	}
	return apply(update)
}
