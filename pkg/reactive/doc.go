// Package reactive provides the auto-tracking store: a live, mutable view
// of the state where direct field and element mutation triggers the same
// notification pipeline as an explicit SetState call.
//
// Go has no transparent property interception, so the live view is an
// explicit wrapper type: a *Node exposes Get/Set/Delete for keyed records
// and Index/SetIndex/Append/RemoveAt/Swap for ordered sequences. Every
// mutating operation commits as a unit and notifies subscribers exactly
// once.
//
//	s, _ := reactive.New(map[string]any{
//	    "user": map[string]any{"name": "John"},
//	})
//	s.Subscribe(func(state any) { ... })
//
//	user := s.Root().Get("user").(*reactive.Node)
//	user.Set("name", "Jane") // one notification
//
// Nested containers are wrapped lazily on first read. Wrapping is
// idempotent: two reads of the same nested container return the same
// *Node. Redundant writes are absorbed: setting a field to a value
// deep-equal to its current value does not notify. The one deliberate
// exception is SetIndex on a sequence, which by default always notifies
// even when the value is unchanged (see WithIndexAlwaysNotifies).
//
// Values that are not plain structural data (typed structs, typed maps or
// slices, channels, ...) cannot be wrapped. Reads return them unwrapped
// and log a degradation warning: mutations inside such a subtree are not
// observed, but the store keeps working.
package reactive
