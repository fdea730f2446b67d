package devtools

import (
	"sync"
	"time"
)

// Entry is one recorded commit: the action label and the serialized state
// after the commit.
type Entry struct {
	Seq    uint64    // Commit sequence number, monotonic from 1
	Action string    // Label for the mutation that produced this state
	State  []byte    // JSON-encoded snapshot
	At     time.Time // When the commit was recorded
}

// History is a thread-safe ring buffer of recorded commits. It supports:
//   - Fast insertion at head
//   - Lookup by sequence and by sequence range
//   - A sliding window: when full, the oldest entry is overwritten
//
// Sequence numbers keep growing after eviction, so a jump to an evicted
// sequence is detectable (Get reports absence) rather than silently
// serving the wrong state.
type History struct {
	mu       sync.RWMutex
	entries  []*Entry
	head     int // Next write position (circular)
	count    int
	capacity int
	nextSeq  uint64
	minSeq   uint64 // Lowest sequence still in the buffer
	maxSeq   uint64 // Highest sequence recorded
}

// DefaultCapacity is the history window used when none is configured.
const DefaultCapacity = 100

// NewHistory creates a history ring with the given capacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{
		entries:  make([]*Entry, capacity),
		capacity: capacity,
		nextSeq:  1,
	}
}

// Add records one commit and returns its assigned sequence number.
// The state bytes are copied so callers may reuse their buffer.
func (h *History) Add(action string, state []byte) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	stateCopy := make([]byte, len(state))
	copy(stateCopy, state)

	seq := h.nextSeq
	h.nextSeq++

	h.entries[h.head] = &Entry{
		Seq:    seq,
		Action: action,
		State:  stateCopy,
		At:     time.Now(),
	}
	h.head = (h.head + 1) % h.capacity

	if h.count < h.capacity {
		h.count++
	}

	h.maxSeq = seq
	if h.count == 1 {
		h.minSeq = seq
	} else if h.count == h.capacity {
		// Buffer full: the oldest entry is the one head now points at.
		if e := h.entries[h.head]; e != nil {
			h.minSeq = e.Seq
		}
	}
	return seq
}

// Get returns the entry with the given sequence, or false if it was never
// recorded or has been evicted from the window.
func (h *History) Get(seq uint64) (*Entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 || seq < h.minSeq || seq > h.maxSeq {
		return nil, false
	}
	for i := 0; i < h.count; i++ {
		idx := (h.head - 1 - i + h.capacity) % h.capacity
		if e := h.entries[idx]; e != nil && e.Seq == seq {
			return e, true
		}
	}
	return nil, false
}

// Range returns the entries with sequences in (afterSeq, toSeq], in
// sequence order. Nil if any sequence in the requested range has been
// evicted, so callers never replay across a gap.
func (h *History) Range(afterSeq, toSeq uint64) []*Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 || toSeq <= afterSeq {
		return nil
	}
	if afterSeq+1 < h.minSeq || toSeq > h.maxSeq {
		return nil
	}

	out := make([]*Entry, 0, toSeq-afterSeq)
	for i := h.count - 1; i >= 0; i-- {
		idx := (h.head - 1 - i + h.capacity) % h.capacity
		e := h.entries[idx]
		if e == nil {
			continue
		}
		if e.Seq > afterSeq && e.Seq <= toSeq {
			out = append(out, e)
		}
	}
	return out
}

// Entries returns every entry currently in the window, oldest first.
func (h *History) Entries() []*Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]*Entry, 0, h.count)
	for i := h.count - 1; i >= 0; i-- {
		idx := (h.head - 1 - i + h.capacity) % h.capacity
		if e := h.entries[idx]; e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Latest returns the most recently recorded entry.
func (h *History) Latest() (*Entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.count == 0 {
		return nil, false
	}
	idx := (h.head - 1 + h.capacity) % h.capacity
	return h.entries[idx], true
}

// Len returns the number of entries currently in the window.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
