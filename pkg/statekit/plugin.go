package statekit

// Plugin is an external observer/interceptor attached to a store's
// lifecycle. A plugin implements Name plus any subset of the optional
// capability interfaces below; the store discovers capabilities by type
// assertion, so a logging plugin can implement only AfterUpdater while a
// validator implements only BeforeUpdater.
//
// Plugins are independent of each other and are invoked in registration
// order for every capability.
type Plugin interface {
	// Name identifies the plugin in logs and errors.
	Name() string
}

// Initializer is invoked once when the plugin is attached to a store.
type Initializer interface {
	Init(s *Store)
}

// BeforeUpdater intercepts a mutation before it is committed.
//
// next is the candidate new state (after substitutions by earlier plugins)
// and old is the current state. A non-nil returned value replaces the
// candidate for subsequent plugins and the final write. A non-nil error
// aborts the mutation: the state is not committed and the error is
// surfaced to the SetState caller wrapped in a HookError.
type BeforeUpdater interface {
	BeforeUpdate(next, old any) (any, error)
}

// AfterUpdater observes a committed mutation. It runs after all listeners
// have been notified.
type AfterUpdater interface {
	AfterUpdate(next, old any)
}

// SubscribeObserver observes listener registration. The returned teardown,
// if non-nil, runs when that listener unsubscribes.
type SubscribeObserver interface {
	OnSubscribe(listener func(any)) (teardown func())
}

// Destroyer is invoked exactly once when the store is destroyed.
type Destroyer interface {
	OnDestroy()
}

// Attach registers a plugin on the store and runs its Init capability, if
// any. Attaching the same plugin value twice registers it twice; callers
// own deduplication.
func (s *Store) Attach(p Plugin) {
	if p == nil {
		return
	}

	s.mu.Lock()
	destroyed := s.destroyed
	if !destroyed {
		s.plugins = append(s.plugins, p)
	}
	s.mu.Unlock()

	if destroyed {
		s.logger.Warn("statekit: Attach on destroyed store ignored", "plugin", p.Name())
		return
	}

	if init, ok := p.(Initializer); ok {
		init.Init(s)
	}
}

// Plugins returns a copy of the attached plugins in registration order.
func (s *Store) Plugins() []Plugin {
	return s.snapshotPlugins()
}

// snapshotPlugins copies the plugin list so hooks can be invoked without
// holding the store lock.
func (s *Store) snapshotPlugins() []Plugin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Plugin, len(s.plugins))
	copy(out, s.plugins)
	return out
}
