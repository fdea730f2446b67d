package reactive

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/statekit-dev/statekit/pkg/statekit"
)

// Store is the auto-tracking store. It embeds the statekit pipeline
// (plugins, subscribers, equality-gated commits) and adds a live mutable
// view of the state rooted at Root.
type Store struct {
	*statekit.Store

	// mu serializes all mutations of the state graph and the wrap cache.
	// It is never held while subscribers are notified, so listeners may
	// re-enter any store operation.
	mu    sync.Mutex
	root  *Node
	cache *wrapCache

	// indexAlwaysNotifies preserves the conservative policy that numeric
	// index assignment on a sequence is always observable, even when the
	// value is unchanged.
	indexAlwaysNotifies bool
}

// Option configures a reactive store at construction.
type Option func(*Store)

// WithIndexAlwaysNotifies controls whether SetIndex notifies when the new
// element is deep-equal to the old one. The default is true: index
// assignment on a sequence is treated as always observable, a deliberate
// exception to the general dedup rule. Pass false to apply the same
// deep-equal dedup as keyed writes.
func WithIndexAlwaysNotifies(v bool) Option {
	return func(s *Store) { s.indexAlwaysNotifies = v }
}

// WithLogger configures the store's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.Store.WithLogger(l) }
}

// New creates a reactive store. The initial value must be a plain
// structural container (map[string]any or []any); there is no wrapping
// fallback for the root.
func New(initial any, opts ...Option) (*Store, error) {
	if initial == nil {
		return nil, statekit.ErrNilState
	}

	base, err := statekit.New(initial)
	if err != nil {
		return nil, err
	}

	s := &Store{
		Store:               base,
		cache:               newWrapCache(),
		indexAlwaysNotifies: true,
	}

	switch c := initial.(type) {
	case map[string]any:
		s.root = &Node{store: s, m: c}
		s.cache.store(c, s.root)
	case []any:
		s.root = &Node{store: s, list: c, isList: true}
	default:
		return nil, fmt.Errorf("%w, got %T", ErrUnsupportedRoot, initial)
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the live view of the state. Mutations through the returned
// node (and any node reached from it) notify subscribers exactly like
// SetState commits do.
func (s *Store) Root() *Node {
	return s.root
}

// GetState returns the current state container. It is the same live value
// the root node wraps; treat it as read-only.
func (s *Store) GetState() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root.value()
}

// GetProperty reads a top-level key through the interception pipeline.
// Nil for sequence-rooted stores.
func (s *Store) GetProperty(key string) any {
	return s.root.Get(key)
}

// SetProperty writes a top-level key through the interception pipeline.
func (s *Store) SetProperty(key string, v any) error {
	return s.root.Set(key, v)
}

// SetState applies update with per-key replacement: every key in the
// returned record is written into the live state only if it fails the
// deep-equal check against the current value, and a single notification
// fires if any key changed. Keys absent from the returned record are left
// in place; use Replace to restore an exact shape. BeforeUpdate plugins
// see the returned value before the merge and may substitute or abort, as
// in the base store.
//
// For sequence-rooted stores the returned sequence replaces the root
// wholesale, gated on deep equality.
func (s *Store) SetState(update func(any) any) error {
	return s.commit("SetState", update, false)
}

// Replace swaps the whole state for next: root keys absent from the
// replacement are deleted, so the result is exactly next rather than a
// merge. A single notification fires if anything was added, changed, or
// removed. The devtools layer replays recorded snapshots through Replace;
// time travel must restore shapes from before a key existed.
func (s *Store) Replace(next any) error {
	return s.commit("Replace", func(any) any { return next }, true)
}

func (s *Store) commit(op string, update func(any) any, wholesale bool) error {
	if s.Store.Destroyed() {
		s.Logger().Warn("reactive: mutation on destroyed store ignored", "op", op)
		return statekit.ErrDestroyed
	}

	s.mu.Lock()
	cur := s.root.value()
	next := update(cur)
	if next == nil {
		s.mu.Unlock()
		return &statekit.InvalidStateError{Op: op}
	}

	for _, p := range s.Plugins() {
		bu, ok := p.(statekit.BeforeUpdater)
		if !ok {
			continue
		}
		v, err := bu.BeforeUpdate(next, cur)
		if err != nil {
			s.mu.Unlock()
			return &statekit.HookError{Plugin: p.Name(), Err: err}
		}
		if v != nil {
			next = v
		}
	}

	changed := false
	if s.root.isList {
		nl, ok := next.([]any)
		if !ok {
			s.mu.Unlock()
			return fmt.Errorf("%w, got %T", ErrRootShape, next)
		}
		if !statekit.DeepEqual(s.root.list, nl) {
			s.root.list = nl
			s.root.elemKids = nil
			s.root.writeBack()
			changed = true
		}
	} else {
		nm, ok := next.(map[string]any)
		if !ok {
			s.mu.Unlock()
			return fmt.Errorf("%w, got %T", ErrRootShape, next)
		}
		if wholesale {
			for k := range s.root.m {
				if _, ok := nm[k]; !ok {
					delete(s.root.m, k)
					delete(s.root.listKids, k)
					changed = true
				}
			}
		}
		for k, v := range nm {
			v = unwrapNode(v)
			if !statekit.DeepEqual(s.root.m[k], v) {
				s.root.m[k] = v
				delete(s.root.listKids, k)
				changed = true
			}
		}
	}
	s.mu.Unlock()

	if changed {
		s.publish()
	}
	return nil
}

// Snapshot returns a deep copy of the current state in plain structural
// form, detached from the live view. It is what the devtools layer
// records and what exports serialize.
func (s *Store) Snapshot() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Clone(s.root.value())
}

// Destroy invalidates the wrap cache and tears down the underlying store.
// Nodes obtained before Destroy must not be used afterwards; their
// mutations are rejected with ErrDestroyed.
func (s *Store) Destroy() {
	s.mu.Lock()
	s.cache.invalidate()
	s.root.listKids = nil
	s.root.elemKids = nil
	s.mu.Unlock()
	s.Store.Destroy()
}

// publish fires the single shared notification for one committed
// mutation: all listeners, then all AfterUpdate plugins. The live graph
// was mutated in place, so the old state observed by plugins is the same
// container as the new one.
func (s *Store) publish() {
	state := s.GetState()
	s.Store.Broadcast(state, state)
}

// wrapChild wraps a nested container read through parent, caching the
// node so wrapping is idempotent. Caller holds s.mu.
//
// Values that are neither plain containers nor primitive leaves cannot be
// wrapped; they are returned unchanged with a degradation warning, so
// mutations inside them go unobserved rather than crashing the store.
func (s *Store) wrapChild(v any, parent *Node, key string, idx int) any {
	switch c := v.(type) {
	case map[string]any:
		if n, ok := s.cache.lookup(c); ok {
			return n
		}
		n := &Node{store: s, m: c, parent: parent, pkey: key, pidx: idx}
		s.cache.store(c, n)
		return n

	case []any:
		if idx >= 0 {
			if n, ok := parent.elemKids[idx]; ok {
				return n
			}
			n := &Node{store: s, list: c, isList: true, parent: parent, pidx: idx}
			if parent.elemKids == nil {
				parent.elemKids = make(map[int]*Node)
			}
			parent.elemKids[idx] = n
			return n
		}
		if n, ok := parent.listKids[key]; ok {
			return n
		}
		n := &Node{store: s, list: c, isList: true, parent: parent, pkey: key}
		if parent.listKids == nil {
			parent.listKids = make(map[string]*Node)
		}
		parent.listKids[key] = n
		return n

	default:
		if !isPlainLeaf(v) {
			s.Logger().Warn("reactive: value cannot be wrapped, mutations inside it will not be observed",
				"type", fmt.Sprintf("%T", v))
		}
		return v
	}
}

// isPlainLeaf reports whether v is a primitive leaf of the plain
// structural data model.
func isPlainLeaf(v any) bool {
	switch v.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}
