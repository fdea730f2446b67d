package reactive

import (
	"fmt"
	"sort"

	"github.com/statekit-dev/statekit/pkg/statekit"
)

// Node is the live view over one container in the state graph. Keyed
// record nodes expose Get/Set/Delete/Keys; sequence nodes expose
// Index/SetIndex/Append/RemoveAt/Swap. Every mutating operation commits as
// a unit and notifies the store's subscribers exactly once.
//
// Nodes are obtained from Store.Root or by reading a nested container
// through another node; they are never constructed directly.
type Node struct {
	store *Store

	// Exactly one of m / list is in use.
	m      map[string]any
	list   []any
	isList bool

	// Location in the parent container, for writing back sequence values
	// whose header changed. nil parent means root.
	parent *Node
	pkey   string
	pidx   int

	// Canonical sequence children, keyed by their location. Maintained so
	// repeated reads of the same nested sequence return the same node.
	listKids map[string]*Node
	elemKids map[int]*Node
}

// IsList reports whether the node wraps an ordered sequence.
func (n *Node) IsList() bool {
	return n.isList
}

// Value returns the underlying plain container. The returned value is the
// live state; callers must treat it as read-only and mutate through the
// node instead.
func (n *Node) Value() any {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()
	return n.value()
}

func (n *Node) value() any {
	if n.isList {
		return n.list
	}
	return n.m
}

// Len returns the number of elements (sequence node) or keys (record node).
func (n *Node) Len() int {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()
	if n.isList {
		return len(n.list)
	}
	return len(n.m)
}

// Keys returns the record node's keys in sorted order. Nil for sequences.
func (n *Node) Keys() []string {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()
	if n.isList {
		return nil
	}
	keys := make([]string, 0, len(n.m))
	for k := range n.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value under key. Nested containers are wrapped on
// demand and returned as *Node; wrapping is idempotent, so two reads of
// the same nested container yield the same node. Primitives pass through
// unchanged. Absent keys yield nil. Get on a sequence node yields nil.
func (n *Node) Get(key string) any {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()
	if n.isList {
		return nil
	}
	return n.store.wrapChild(n.m[key], n, key, -1)
}

// Set assigns key to v and notifies subscribers once, unless v is
// deep-equal to the current value, in which case the write is silently
// absorbed. A *Node value is stored as its underlying container.
func (n *Node) Set(key string, v any) error {
	s := n.store
	if s.Store.Destroyed() {
		s.Logger().Warn("reactive: mutation on destroyed store ignored", "op", "Set")
		return statekit.ErrDestroyed
	}
	v = unwrapNode(v)

	s.mu.Lock()
	if n.isList {
		s.mu.Unlock()
		return ErrNotRecord
	}
	if statekit.DeepEqual(n.m[key], v) {
		s.mu.Unlock()
		return nil
	}
	n.m[key] = v
	delete(n.listKids, key)
	s.mu.Unlock()

	s.publish()
	return nil
}

// Delete removes key. Removing a present key notifies subscribers once;
// removing an absent key is a no-op with no notification.
func (n *Node) Delete(key string) error {
	s := n.store
	if s.Store.Destroyed() {
		s.Logger().Warn("reactive: mutation on destroyed store ignored", "op", "Delete")
		return statekit.ErrDestroyed
	}

	s.mu.Lock()
	if n.isList {
		s.mu.Unlock()
		return ErrNotRecord
	}
	if _, ok := n.m[key]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(n.m, key)
	delete(n.listKids, key)
	s.mu.Unlock()

	s.publish()
	return nil
}

// Index returns the element at i, wrapping nested containers on demand
// like Get. Out-of-range indices yield nil.
func (n *Node) Index(i int) any {
	n.store.mu.Lock()
	defer n.store.mu.Unlock()
	if !n.isList || i < 0 || i >= len(n.list) {
		return nil
	}
	return n.store.wrapChild(n.list[i], n, "", i)
}

// SetIndex assigns element i. By default index assignment on a sequence
// always notifies, even when the new value is deep-equal to the old one;
// see WithIndexAlwaysNotifies for the dedup variant.
func (n *Node) SetIndex(i int, v any) error {
	s := n.store
	if s.Store.Destroyed() {
		s.Logger().Warn("reactive: mutation on destroyed store ignored", "op", "SetIndex")
		return statekit.ErrDestroyed
	}
	v = unwrapNode(v)

	s.mu.Lock()
	if !n.isList {
		s.mu.Unlock()
		return ErrNotList
	}
	if i < 0 || i >= len(n.list) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(n.list))
	}
	changed := s.indexAlwaysNotifies || !statekit.DeepEqual(n.list[i], v)
	n.list[i] = v
	delete(n.elemKids, i)
	s.mu.Unlock()

	if changed {
		s.publish()
	}
	return nil
}

// Append adds values to the end of the sequence and notifies once.
// Appending nothing is a no-op.
func (n *Node) Append(vs ...any) error {
	s := n.store
	if s.Store.Destroyed() {
		s.Logger().Warn("reactive: mutation on destroyed store ignored", "op", "Append")
		return statekit.ErrDestroyed
	}
	if len(vs) == 0 {
		return nil
	}

	s.mu.Lock()
	if !n.isList {
		s.mu.Unlock()
		return ErrNotList
	}
	for _, v := range vs {
		n.list = append(n.list, unwrapNode(v))
	}
	n.writeBack()
	s.mu.Unlock()

	s.publish()
	return nil
}

// RemoveAt removes the element at i and notifies once.
func (n *Node) RemoveAt(i int) error {
	s := n.store
	if s.Store.Destroyed() {
		s.Logger().Warn("reactive: mutation on destroyed store ignored", "op", "RemoveAt")
		return statekit.ErrDestroyed
	}

	s.mu.Lock()
	if !n.isList {
		s.mu.Unlock()
		return ErrNotList
	}
	if i < 0 || i >= len(n.list) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(n.list))
	}
	n.list = append(n.list[:i], n.list[i+1:]...)
	n.shiftElemKids(i)
	n.writeBack()
	s.mu.Unlock()

	s.publish()
	return nil
}

// Swap exchanges elements i and j and notifies once. Swapping an index
// with itself is a no-op.
func (n *Node) Swap(i, j int) error {
	s := n.store
	if s.Store.Destroyed() {
		s.Logger().Warn("reactive: mutation on destroyed store ignored", "op", "Swap")
		return statekit.ErrDestroyed
	}

	s.mu.Lock()
	if !n.isList {
		s.mu.Unlock()
		return ErrNotList
	}
	if i < 0 || i >= len(n.list) || j < 0 || j >= len(n.list) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %d,%d (len %d)", ErrIndexOutOfRange, i, j, len(n.list))
	}
	if i == j {
		s.mu.Unlock()
		return nil
	}
	n.list[i], n.list[j] = n.list[j], n.list[i]
	n.swapElemKids(i, j)
	s.mu.Unlock()

	s.publish()
	return nil
}

// writeBack propagates a changed sequence header into the parent
// container. Element writes share the backing array with the stored slice
// and need no propagation; only length changes do.
func (n *Node) writeBack() {
	if !n.isList {
		return
	}
	if n.parent == nil {
		n.store.Store.ReplaceState(n.list)
		return
	}
	if n.parent.isList {
		n.parent.list[n.pidx] = n.list
	} else {
		n.parent.m[n.pkey] = n.list
	}
}

// shiftElemKids drops the child node at removed and renumbers children
// above it so their recorded locations stay accurate.
func (n *Node) shiftElemKids(removed int) {
	if n.elemKids == nil {
		return
	}
	delete(n.elemKids, removed)
	idxs := make([]int, 0, len(n.elemKids))
	for i := range n.elemKids {
		if i > removed {
			idxs = append(idxs, i)
		}
	}
	sort.Ints(idxs)
	for _, i := range idxs {
		kid := n.elemKids[i]
		delete(n.elemKids, i)
		kid.pidx = i - 1
		n.elemKids[i-1] = kid
	}
}

func (n *Node) swapElemKids(i, j int) {
	if n.elemKids == nil {
		return
	}
	ki, oki := n.elemKids[i]
	kj, okj := n.elemKids[j]
	delete(n.elemKids, i)
	delete(n.elemKids, j)
	if oki {
		ki.pidx = j
		n.elemKids[j] = ki
	}
	if okj {
		kj.pidx = i
		n.elemKids[i] = kj
	}
}

// unwrapNode replaces a *Node value with its underlying container so the
// state graph never stores wrapper types.
func unwrapNode(v any) any {
	if nd, ok := v.(*Node); ok {
		return nd.value()
	}
	return v
}
