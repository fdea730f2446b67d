package middleware

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/statekit-dev/statekit/pkg/statekit"
)

func newStore(t *testing.T, mws ...statekit.Middleware) *statekit.ExtensibleStore {
	t.Helper()
	s, err := statekit.NewExtensible(map[string]any{"n": 0})
	if err != nil {
		t.Fatal(err)
	}
	for _, mw := range mws {
		s.Use(mw)
	}
	return s
}

func TestLoggingPassesThrough(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := newStore(t, Logging(l))

	if err := s.SetState(func(any) any {
		return map[string]any{"n": 1}
	}); err != nil {
		t.Fatal(err)
	}
	if got := s.GetState().(map[string]any)["n"]; got != 1 {
		t.Fatalf("n = %v, want 1", got)
	}
	if !strings.Contains(buf.String(), "update committed") {
		t.Errorf("log output missing commit line: %s", buf.String())
	}

	buf.Reset()
	if err := s.SetState(func(any) any {
		return map[string]any{"n": 1}
	}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "update deduplicated") {
		t.Errorf("log output missing dedup line: %s", buf.String())
	}
}

func TestLoggingNilLoggerDefaults(t *testing.T) {
	s := newStore(t, Logging(nil))
	if err := s.SetState(func(any) any {
		return map[string]any{"n": 1}
	}); err != nil {
		t.Fatal(err)
	}
}

// All Prometheus() exercising lives in one test: the collectors register
// once per process, so a second configuration would be ignored.
func TestPrometheusCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	mw := Prometheus(WithRegistry(reg), WithSubsystem("test"))
	s := newStore(t, mw)

	if err := s.SetState(func(any) any {
		return map[string]any{"n": 1}
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetState(func(any) any {
		return map[string]any{"n": 1}
	}); err != nil {
		t.Fatal(err)
	}

	s.Attach(NewListenerGauge())
	unsub := s.Subscribe(func(any) {})

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				key += "{" + lp.GetName() + "=" + lp.GetValue() + "}"
			}
			switch {
			case m.GetCounter() != nil:
				got[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				got[key] = m.GetGauge().GetValue()
			}
		}
	}

	if got[`statekit_test_updates_total{outcome=committed}`] != 1 {
		t.Errorf("committed counter = %v, want 1 (metrics: %v)",
			got[`statekit_test_updates_total{outcome=committed}`], got)
	}
	if got[`statekit_test_updates_total{outcome=deduplicated}`] != 1 {
		t.Errorf("deduplicated counter = %v, want 1", got[`statekit_test_updates_total{outcome=deduplicated}`])
	}
	if got[`statekit_test_subscribed_listeners`] != 1 {
		t.Errorf("listener gauge = %v, want 1", got[`statekit_test_subscribed_listeners`])
	}

	unsub()
	mfs, err = reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "statekit_test_subscribed_listeners" {
			continue
		}
		if v := mf.GetMetric()[0].GetGauge().GetValue(); v != 0 {
			t.Errorf("listener gauge = %v after unsubscribe, want 0", v)
		}
	}
}

func TestOpenTelemetryPassesThrough(t *testing.T) {
	s := newStore(t, OpenTelemetry(WithStoreName("test-store")))

	out, err := s.Dispatch(func(any) any {
		return map[string]any{"n": 1}
	})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Committed {
		t.Fatalf("outcome = %+v, want committed", out)
	}

	out, err = s.Dispatch(func(any) any {
		return map[string]any{"n": 1}
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Committed || out.Suppressed {
		t.Fatalf("outcome = %+v, want dedup", out)
	}
}
