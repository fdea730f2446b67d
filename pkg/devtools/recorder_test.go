package devtools

import (
	"errors"
	"testing"

	"github.com/statekit-dev/statekit/pkg/reactive"
	"github.com/statekit-dev/statekit/pkg/statekit"
)

func newRecordedStore(t *testing.T, initial any, capacity int) (*statekit.Store, *Recorder) {
	t.Helper()
	s, err := statekit.New(initial)
	if err != nil {
		t.Fatal(err)
	}
	rec := NewRecorder(s, capacity)
	s.Attach(rec)
	return s, rec
}

func TestRecorderRecordsInit(t *testing.T) {
	_, rec := newRecordedStore(t, map[string]any{"n": 0}, 10)
	e, ok := rec.History().Latest()
	if !ok {
		t.Fatal("no init entry recorded")
	}
	if e.Action != "@init" || string(e.State) != `{"n":0}` {
		t.Fatalf("init entry = %+v", e)
	}
}

func TestRecorderRecordsCommits(t *testing.T) {
	s, rec := newRecordedStore(t, map[string]any{"n": 0}, 10)
	if err := s.SetState(func(any) any {
		return map[string]any{"n": 1}
	}); err != nil {
		t.Fatal(err)
	}
	rec.Annotate("increment")
	if err := s.SetState(func(any) any {
		return map[string]any{"n": 2}
	}); err != nil {
		t.Fatal(err)
	}

	es := rec.History().Entries()
	if len(es) != 3 {
		t.Fatalf("history len = %d, want 3", len(es))
	}
	if es[1].Action != "update" {
		t.Errorf("action = %q, want update", es[1].Action)
	}
	if es[2].Action != "increment" {
		t.Errorf("action = %q, want increment", es[2].Action)
	}
}

func TestRecorderSkipsDedupedCommits(t *testing.T) {
	s, rec := newRecordedStore(t, map[string]any{"n": 0}, 10)
	if err := s.SetState(func(any) any {
		return map[string]any{"n": 0}
	}); err != nil {
		t.Fatal(err)
	}
	if got := rec.History().Len(); got != 1 {
		t.Fatalf("history len = %d after no-op commit, want 1 (init only)", got)
	}
}

func TestJumpToReplaysWithoutRecording(t *testing.T) {
	s, rec := newRecordedStore(t, map[string]any{"n": 0}, 10)
	for i := 1; i <= 3; i++ {
		n := i
		if err := s.SetState(func(any) any {
			return map[string]any{"n": n}
		}); err != nil {
			t.Fatal(err)
		}
	}
	before := rec.History().Len()

	if err := rec.JumpTo(2); err != nil { // state after first update
		t.Fatal(err)
	}
	got := s.GetState().(map[string]any)
	if got["n"] != float64(1) {
		t.Fatalf("n = %v (%T), want 1", got["n"], got["n"])
	}
	if rec.History().Len() != before {
		t.Errorf("history grew during replay: %d -> %d", before, rec.History().Len())
	}
}

func TestJumpToRestoresShapeOnMergingStore(t *testing.T) {
	s, err := reactive.New(map[string]any{"a": 1})
	if err != nil {
		t.Fatal(err)
	}
	rec := NewRecorder(s, 10)
	s.Attach(rec)

	calls := 0
	s.Subscribe(func(any) { calls++ })

	// Add a key after the initial snapshot; jumping back must remove it
	// again, even though the reactive SetState path merges key-wise.
	if err := s.Root().Set("b", 2); err != nil {
		t.Fatal(err)
	}
	before := rec.History().Len()
	calls = 0

	if err := rec.JumpTo(1); err != nil {
		t.Fatal(err)
	}
	got := s.GetState().(map[string]any)
	if _, ok := got["b"]; ok {
		t.Fatalf("key added after the snapshot survived the jump: %v", got)
	}
	if len(got) != 1 || got["a"] != 1 {
		t.Fatalf("state = %v, want the recorded {a:1}", got)
	}
	if calls != 1 {
		t.Errorf("jump fired %d notifications, want 1", calls)
	}
	if rec.History().Len() != before {
		t.Errorf("history grew during replay: %d -> %d", before, rec.History().Len())
	}
}

func TestImportStateReplacesShapeOnMergingStore(t *testing.T) {
	s, err := reactive.New(map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatal(err)
	}
	rec := NewRecorder(s, 10)
	s.Attach(rec)

	if err := rec.ImportState([]byte(`{"a":5}`)); err != nil {
		t.Fatal(err)
	}
	got := s.GetState().(map[string]any)
	if _, ok := got["b"]; ok {
		t.Fatalf("import kept a key absent from the payload: %v", got)
	}
	if got["a"] != float64(5) {
		t.Fatalf("a = %v, want 5", got["a"])
	}
	e, _ := rec.History().Latest()
	if e.Action != "@import" {
		t.Errorf("action = %q, want @import", e.Action)
	}
}

func TestJumpToUnknownSeq(t *testing.T) {
	_, rec := newRecordedStore(t, map[string]any{"n": 0}, 10)
	if err := rec.JumpTo(99); !errors.Is(err, ErrUnknownSeq) {
		t.Fatalf("err = %v, want ErrUnknownSeq", err)
	}
}

func TestImportState(t *testing.T) {
	s, rec := newRecordedStore(t, map[string]any{"n": 0}, 10)
	if err := rec.ImportState([]byte(`{"n":42}`)); err != nil {
		t.Fatal(err)
	}
	if got := s.GetState().(map[string]any)["n"]; got != float64(42) {
		t.Fatalf("n = %v, want 42", got)
	}
	e, _ := rec.History().Latest()
	if e.Action != "@import" {
		t.Errorf("action = %q, want @import", e.Action)
	}
}

func TestImportStateMalformed(t *testing.T) {
	s, rec := newRecordedStore(t, map[string]any{"n": 0}, 10)
	err := rec.ImportState([]byte(`{broken`))
	var ie *ImportError
	if !errors.As(err, &ie) {
		t.Fatalf("err = %v, want *ImportError", err)
	}
	if got := s.GetState().(map[string]any)["n"]; got != 0 {
		t.Errorf("n = %v, want unchanged 0", got)
	}
}

func TestOnRecordObserver(t *testing.T) {
	s, rec := newRecordedStore(t, map[string]any{"n": 0}, 10)
	var seen []Entry
	remove := rec.OnRecord(func(e Entry) { seen = append(seen, e) })

	if err := s.SetState(func(any) any {
		return map[string]any{"n": 1}
	}); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 || seen[0].Action != "update" {
		t.Fatalf("observed = %v", seen)
	}

	remove()
	if err := s.SetState(func(any) any {
		return map[string]any{"n": 2}
	}); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 {
		t.Fatalf("observer fired after removal: %d entries", len(seen))
	}
}
