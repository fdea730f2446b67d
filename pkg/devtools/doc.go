// Package devtools provides the developer-tooling subsystem: a time-travel
// history of committed states, a Recorder plugin that feeds it, and a
// snapshot codec for exporting and importing state.
//
// The Recorder attaches to any store variant and records a serialized
// snapshot of every commit into a bounded History ring. JumpTo replays a
// recorded snapshot back into the store as a wholesale replacement
// (through the store's Replace capability where it has one), so listeners
// and plugins observe time travel as an ordinary mutation and the restored
// shape is exactly the recorded one.
//
//	s, _ := reactive.New(map[string]any{"count": 0})
//	rec := devtools.NewRecorder(s, 100)
//	s.Attach(rec)
//
//	... mutate ...
//	rec.JumpTo(1) // back to the first recorded state
//
// The WebSocket bridge to an external inspector UI lives in the bridge
// subpackage.
package devtools
