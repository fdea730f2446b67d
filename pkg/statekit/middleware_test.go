package statekit

import (
	"errors"
	"testing"
)

func TestMiddlewareOnionOrder(t *testing.T) {
	s, err := NewExtensible(map[string]any{"n": 0})
	if err != nil {
		t.Fatal(err)
	}
	var log []string
	tag := func(name string) Middleware {
		return func(_ *Store, next Apply) Apply {
			return func(update func(any) any) (Outcome, error) {
				log = append(log, name+":enter")
				out, err := next(update)
				log = append(log, name+":exit")
				return out, err
			}
		}
	}
	s.Use(tag("outer"))
	s.Use(tag("inner"))

	if err := s.SetState(func(any) any {
		return map[string]any{"n": 1}
	}); err != nil {
		t.Fatal(err)
	}

	want := []string{"outer:enter", "inner:enter", "inner:exit", "outer:exit"}
	if len(log) != len(want) {
		t.Fatalf("log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("log = %v, want %v", log, want)
		}
	}
}

func TestMiddlewareSuppression(t *testing.T) {
	s, err := NewExtensible(map[string]any{"n": 0})
	if err != nil {
		t.Fatal(err)
	}
	s.Use(func(_ *Store, next Apply) Apply {
		return func(update func(any) any) (Outcome, error) {
			return Suppress("gated")
		}
	})

	calls := 0
	s.Subscribe(func(any) { calls++ })

	out, err := s.Dispatch(func(any) any {
		return map[string]any{"n": 1}
	})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Suppressed || out.Committed {
		t.Fatalf("outcome = %+v, want suppressed and not committed", out)
	}
	if out.Reason != "gated" {
		t.Errorf("reason = %q, want gated", out.Reason)
	}
	if calls != 0 {
		t.Errorf("listener calls = %d, want 0", calls)
	}
	if got := s.GetState().(map[string]any)["n"]; got != 0 {
		t.Errorf("n = %v, want unchanged 0", got)
	}
}

func TestMiddlewareCanRewriteUpdate(t *testing.T) {
	s, err := NewExtensible(map[string]any{"n": 0})
	if err != nil {
		t.Fatal(err)
	}
	s.Use(func(_ *Store, next Apply) Apply {
		return func(update func(any) any) (Outcome, error) {
			return next(func(cur any) any {
				m := update(cur).(map[string]any)
				m["stamped"] = true
				return m
			})
		}
	})

	if err := s.SetState(func(any) any {
		return map[string]any{"n": 1}
	}); err != nil {
		t.Fatal(err)
	}
	got := s.GetState().(map[string]any)
	if got["stamped"] != true {
		t.Errorf("state = %v, want stamped by middleware", got)
	}
}

func TestMiddlewareErrorPropagates(t *testing.T) {
	s, err := NewExtensible(map[string]any{"n": 0})
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("middleware failed")
	s.Use(func(_ *Store, next Apply) Apply {
		return func(update func(any) any) (Outcome, error) {
			return Outcome{}, boom
		}
	})

	if err := s.SetState(func(any) any {
		return map[string]any{"n": 1}
	}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if got := s.GetState().(map[string]any)["n"]; got != 0 {
		t.Errorf("n = %v, want unchanged 0", got)
	}
}

func TestMiddlewareSeesDedupOutcome(t *testing.T) {
	s, err := NewExtensible(map[string]any{"n": 0})
	if err != nil {
		t.Fatal(err)
	}
	var seen Outcome
	s.Use(func(_ *Store, next Apply) Apply {
		return func(update func(any) any) (Outcome, error) {
			out, err := next(update)
			seen = out
			return out, err
		}
	})

	if err := s.SetState(func(any) any {
		return map[string]any{"n": 0}
	}); err != nil {
		t.Fatal(err)
	}
	if seen.Committed || seen.Suppressed {
		t.Fatalf("outcome = %+v, want neither committed nor suppressed for a no-op", seen)
	}
}
