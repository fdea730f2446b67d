package reactive

import "reflect"

// wrapCache is the identity-keyed record mapping an original keyed
// container to its canonical *Node. At most one live node exists per
// original map for the lifetime of the store: re-wrapping an already
// wrapped map returns the cached node.
//
// Go has no weak maps, so entries for maps that have been replaced in the
// state stay in the cache until the store is destroyed. The association is
// lookup-only; a stale entry is unreachable through the live view and is
// dropped wholesale when Destroy invalidates the cache.
//
// Sequence nodes are not cached here: a []any is a value, not a reference,
// so its identity is its location in the tree. The owning parent node
// caches sequence children by key or index (see Node.listKids, elemKids).
type wrapCache struct {
	nodes map[uintptr]*Node
}

func newWrapCache() *wrapCache {
	return &wrapCache{nodes: make(map[uintptr]*Node)}
}

// mapID returns the identity of a map value. Maps are reference types, so
// the data pointer is stable for the map's lifetime.
func mapID(m map[string]any) uintptr {
	return reflect.ValueOf(m).Pointer()
}

func (c *wrapCache) lookup(m map[string]any) (*Node, bool) {
	n, ok := c.nodes[mapID(m)]
	return n, ok
}

func (c *wrapCache) store(m map[string]any, n *Node) {
	c.nodes[mapID(m)] = n
}

// invalidate drops every association. Called on store teardown.
func (c *wrapCache) invalidate() {
	c.nodes = make(map[uintptr]*Node)
}
