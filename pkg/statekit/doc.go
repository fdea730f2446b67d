// Package statekit provides the core state containers for the statekit
// library.
//
// A Store owns a single state value, notifies subscribers when it changes,
// and hosts plugins that observe or intercept its lifecycle. State values
// are plain structural data: map[string]any for keyed records, []any for
// ordered sequences, and primitives for leaves.
//
// # Core Types
//
// Store is the minimal state container:
//
//	s, _ := statekit.New(map[string]any{"count": 0})
//	unsub := s.Subscribe(func(state any) { ... })
//	s.SetState(func(cur any) any {
//	    m := cur.(map[string]any)
//	    return map[string]any{"count": m["count"].(int) + 1}
//	})
//	unsub()
//
// Updates that produce a value deep-equal to the current state are absorbed
// silently: subscribers only hear about observable changes.
//
// ExtensibleStore adds a middleware chain around the commit path:
//
//	e, _ := statekit.NewExtensible(map[string]any{"count": 0})
//	e.Use(func(s *statekit.Store, next statekit.Apply) statekit.Apply {
//	    return func(update func(any) any) (statekit.Outcome, error) {
//	        // before
//	        out, err := next(update)
//	        // after
//	        return out, err
//	    }
//	})
//
// Plugins attach to any store via Attach and may implement any subset of the
// lifecycle capabilities (Initializer, BeforeUpdater, AfterUpdater,
// SubscribeObserver, Destroyer).
//
// # Thread Safety
//
// Stores are safe for concurrent use. Listeners are invoked synchronously,
// outside the store's internal lock, so a listener may re-enter SetState;
// reentrant mutation runs the full pipeline recursively.
package statekit
