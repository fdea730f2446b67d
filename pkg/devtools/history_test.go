package devtools

import (
	"fmt"
	"testing"
)

func TestHistoryAddAndGet(t *testing.T) {
	h := NewHistory(10)
	s1 := h.Add("@init", []byte(`{"n":0}`))
	s2 := h.Add("update", []byte(`{"n":1}`))
	if s1 != 1 || s2 != 2 {
		t.Fatalf("seqs = %d, %d, want 1, 2", s1, s2)
	}

	e, ok := h.Get(1)
	if !ok {
		t.Fatal("Get(1) missing")
	}
	if e.Action != "@init" || string(e.State) != `{"n":0}` {
		t.Fatalf("entry = %+v", e)
	}
	if _, ok := h.Get(3); ok {
		t.Error("Get(3) should be absent")
	}
	if _, ok := h.Get(0); ok {
		t.Error("Get(0) should be absent")
	}
}

func TestHistoryCopiesState(t *testing.T) {
	h := NewHistory(4)
	buf := []byte(`{"n":0}`)
	h.Add("update", buf)
	buf[5] = '9'
	e, _ := h.Get(1)
	if string(e.State) != `{"n":0}` {
		t.Fatalf("entry shares caller buffer: %s", e.State)
	}
}

func TestHistoryEviction(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Add("update", []byte(fmt.Sprintf(`{"n":%d}`, i)))
	}
	if h.Len() != 3 {
		t.Fatalf("len = %d, want 3", h.Len())
	}
	// Entries 1 and 2 were evicted; 3..5 remain with their original seqs.
	for seq := uint64(1); seq <= 2; seq++ {
		if _, ok := h.Get(seq); ok {
			t.Errorf("Get(%d) should be evicted", seq)
		}
	}
	for seq := uint64(3); seq <= 5; seq++ {
		e, ok := h.Get(seq)
		if !ok {
			t.Fatalf("Get(%d) missing", seq)
		}
		if e.Seq != seq {
			t.Errorf("entry seq = %d, want %d", e.Seq, seq)
		}
	}
}

func TestHistoryEntriesOldestFirst(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Add("update", []byte(`{}`))
	}
	es := h.Entries()
	if len(es) != 3 {
		t.Fatalf("len = %d, want 3", len(es))
	}
	want := []uint64{3, 4, 5}
	for i, e := range es {
		if e.Seq != want[i] {
			t.Fatalf("entries seqs = %v..., want %v", e.Seq, want)
		}
	}
}

func TestHistoryRange(t *testing.T) {
	h := NewHistory(10)
	for i := 1; i <= 5; i++ {
		h.Add("update", []byte(`{}`))
	}
	es := h.Range(2, 4)
	if len(es) != 2 || es[0].Seq != 3 || es[1].Seq != 4 {
		t.Fatalf("Range(2,4) = %v", es)
	}
	if es := h.Range(4, 4); es != nil {
		t.Errorf("empty range = %v, want nil", es)
	}
}

func TestHistoryRangeRejectsGaps(t *testing.T) {
	h := NewHistory(3)
	for i := 1; i <= 5; i++ {
		h.Add("update", []byte(`{}`))
	}
	// minSeq is 3; a range starting before it crosses evicted entries.
	if es := h.Range(1, 4); es != nil {
		t.Errorf("gap range = %v, want nil", es)
	}
	if es := h.Range(2, 5); len(es) != 3 {
		t.Errorf("Range(2,5) len = %d, want 3", len(es))
	}
}

func TestHistoryLatest(t *testing.T) {
	h := NewHistory(4)
	if _, ok := h.Latest(); ok {
		t.Fatal("Latest on empty history should report absence")
	}
	h.Add("a", []byte(`1`))
	h.Add("b", []byte(`2`))
	e, ok := h.Latest()
	if !ok || e.Seq != 2 || e.Action != "b" {
		t.Fatalf("Latest = %+v, %v", e, ok)
	}
}
