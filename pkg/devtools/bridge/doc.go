// Package bridge relays recorded store commits to an external inspector
// UI over WebSocket and accepts inspector commands back.
//
// The bridge is thin plumbing: it subscribes to a devtools.Recorder and
// forwards every recorded {seq, action, state} entry as a JSON frame to
// each connected inspector. Inbound commands support time travel
// ("jump"), state import ("import"), and a full history dump ("export").
//
//	rec := devtools.NewRecorder(s, 100)
//	s.Attach(rec)
//	srv := bridge.New(rec, bridge.DefaultConfig())
//	http.ListenAndServe(":7331", srv.Handler())
package bridge
