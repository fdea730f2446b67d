package middleware

import (
	"errors"
	"testing"
	"time"
)

func TestRateLimitSuppressesOverBudget(t *testing.T) {
	s := newStore(t, RateLimit(RateLimitConfig{
		MaxUpdates: 2,
		Window:     time.Minute,
	}))

	for i := 1; i <= 2; i++ {
		n := i
		out, err := s.Dispatch(func(any) any {
			return map[string]any{"n": n}
		})
		if err != nil {
			t.Fatal(err)
		}
		if !out.Committed {
			t.Fatalf("update %d not committed: %+v", i, out)
		}
	}

	out, err := s.Dispatch(func(any) any {
		return map[string]any{"n": 3}
	})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Suppressed || out.Reason != "rate limited" {
		t.Fatalf("outcome = %+v, want rate-limited suppression", out)
	}
	if got := s.GetState().(map[string]any)["n"]; got != 2 {
		t.Errorf("n = %v, want 2", got)
	}
}

func TestRateLimitErrorMode(t *testing.T) {
	s := newStore(t, RateLimit(RateLimitConfig{
		MaxUpdates: 1,
		Window:     time.Minute,
		Mode:       RateLimitError,
	}))

	if err := s.SetState(func(any) any {
		return map[string]any{"n": 1}
	}); err != nil {
		t.Fatal(err)
	}
	err := s.SetState(func(any) any {
		return map[string]any{"n": 2}
	})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestRateLimitZeroIsUnlimited(t *testing.T) {
	s := newStore(t, RateLimit(RateLimitConfig{}))
	for i := 1; i <= 10; i++ {
		n := i
		if err := s.SetState(func(any) any {
			return map[string]any{"n": n}
		}); err != nil {
			t.Fatal(err)
		}
	}
	if got := s.GetState().(map[string]any)["n"]; got != 10 {
		t.Errorf("n = %v, want 10", got)
	}
}

func TestRateLimitWindowSlides(t *testing.T) {
	s := newStore(t, RateLimit(RateLimitConfig{
		MaxUpdates: 1,
		Window:     20 * time.Millisecond,
	}))

	if err := s.SetState(func(any) any {
		return map[string]any{"n": 1}
	}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)

	out, err := s.Dispatch(func(any) any {
		return map[string]any{"n": 2}
	})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Committed {
		t.Fatalf("outcome = %+v, want committed after window elapsed", out)
	}
}
