package devtools

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/statekit-dev/statekit/pkg/statekit"
)

// ErrUnknownSeq is returned by JumpTo when the requested sequence was
// never recorded or has been evicted from the history window.
var ErrUnknownSeq = errors.New("devtools: sequence not in history window")

// Store is the store surface the devtools layer needs. Every statekit
// variant satisfies it; the Recorder holds the outermost handle so that
// replays go through the variant's own commit pipeline.
type Store interface {
	GetState() any
	SetState(update func(any) any) error
}

// Replacer is implemented by store variants whose SetState merges rather
// than replaces (the reactive store). Replays restore exact recorded
// shapes, including the absence of keys added later, so they must go
// through Replace wherever the store offers one.
type Replacer interface {
	Replace(state any) error
}

// Recorder is a statekit plugin that snapshots every committed state into
// a History ring and can replay any recorded state back into the store.
//
// Attach it like any plugin:
//
//	rec := devtools.NewRecorder(s, 100)
//	s.Attach(rec)
//
// Replay commits are not re-recorded, so jumping through history does not
// grow the history.
type Recorder struct {
	store   Store
	history *History
	logger  *slog.Logger

	mu         sync.Mutex
	replaying  bool
	nextAction string
	observers  map[uint64]func(Entry)
	nextObsID  uint64
}

// NewRecorder creates a recorder over s with a history window of capacity
// entries (DefaultCapacity if <= 0).
func NewRecorder(s Store, capacity int) *Recorder {
	return &Recorder{
		store:     s,
		history:   NewHistory(capacity),
		logger:    slog.Default(),
		observers: make(map[uint64]func(Entry)),
	}
}

// Name implements statekit.Plugin.
func (r *Recorder) Name() string { return "devtools-recorder" }

// Init records the store's initial state under the "@init" action.
func (r *Recorder) Init(base *statekit.Store) {
	r.logger = base.Logger()
	r.record("@init", r.store.GetState())
}

// AfterUpdate records the committed state. Implements statekit.AfterUpdater.
func (r *Recorder) AfterUpdate(next, _ any) {
	r.mu.Lock()
	if r.replaying {
		r.mu.Unlock()
		return
	}
	action := r.nextAction
	r.nextAction = ""
	r.mu.Unlock()

	if action == "" {
		action = "update"
	}
	r.record(action, next)
}

// OnDestroy drops all inspector observers. Implements statekit.Destroyer.
func (r *Recorder) OnDestroy() {
	r.mu.Lock()
	r.observers = make(map[uint64]func(Entry))
	r.mu.Unlock()
}

// Annotate labels the next recorded commit. Call it immediately before the
// mutation; without an annotation commits are recorded as "update".
func (r *Recorder) Annotate(action string) {
	r.mu.Lock()
	r.nextAction = action
	r.mu.Unlock()
}

// History returns the underlying history ring.
func (r *Recorder) History() *History {
	return r.history
}

// OnRecord registers an observer invoked with every recorded entry (the
// bridge uses this to relay commits to inspectors). The returned function
// unregisters it.
func (r *Recorder) OnRecord(fn func(Entry)) (remove func()) {
	r.mu.Lock()
	r.nextObsID++
	id := r.nextObsID
	r.observers[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.observers, id)
		r.mu.Unlock()
	}
}

// JumpTo replays the recorded state with the given sequence into the
// store as a wholesale replacement. The replay itself is not recorded.
func (r *Recorder) JumpTo(seq uint64) error {
	entry, ok := r.history.Get(seq)
	if !ok {
		return ErrUnknownSeq
	}
	state, err := Import(entry.State)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.replaying = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.replaying = false
		r.mu.Unlock()
	}()

	return r.restore(state)
}

// ImportState parses a serialized state and commits it into the store
// under the "@import" action. Malformed input yields an *ImportError and
// leaves the state unchanged.
func (r *Recorder) ImportState(data []byte) error {
	state, err := Import(data)
	if err != nil {
		return err
	}
	r.Annotate("@import")
	return r.restore(state)
}

// restore commits a snapshot wholesale. Merging stores expose Replace for
// this; the base store's SetState already replaces.
func (r *Recorder) restore(state any) error {
	if rp, ok := r.store.(Replacer); ok {
		return rp.Replace(state)
	}
	return r.store.SetState(func(any) any { return state })
}

func (r *Recorder) record(action string, state any) {
	data, err := Export(state)
	if err != nil {
		r.logger.Error("devtools: snapshot export failed", "action", action, "error", err)
		return
	}
	seq := r.history.Add(action, data)

	entry, ok := r.history.Get(seq)
	if !ok {
		return
	}

	r.mu.Lock()
	obs := make([]func(Entry), 0, len(r.observers))
	for _, fn := range r.observers {
		obs = append(obs, fn)
	}
	r.mu.Unlock()

	for _, fn := range obs {
		fn(*entry)
	}
}
