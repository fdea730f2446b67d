package reactive

import "errors"

// ErrUnsupportedRoot is returned by New when the initial value is not a
// plain structural container. The root must be wrappable; there is no
// degraded fallback for it.
var ErrUnsupportedRoot = errors.New("reactive: root state must be map[string]any or []any")

// ErrRootShape is returned by SetState when the update function changes
// the root container kind (keyed record vs ordered sequence).
var ErrRootShape = errors.New("reactive: update must preserve the root container kind")

// ErrNotRecord is returned by keyed mutations (Set/Delete) invoked on a
// sequence node.
var ErrNotRecord = errors.New("reactive: operation requires a keyed record node")

// ErrNotList is returned by sequence operations invoked on a keyed record
// node.
var ErrNotList = errors.New("reactive: operation requires a sequence node")

// ErrIndexOutOfRange is returned by sequence operations with an index
// outside [0, Len).
var ErrIndexOutOfRange = errors.New("reactive: index out of range")
