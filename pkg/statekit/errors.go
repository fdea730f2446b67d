package statekit

import (
	"errors"
	"fmt"
)

// ErrNilState is returned when a store is constructed with a nil initial
// value. Stores always hold a concrete value; use an empty container to
// represent "no data".
var ErrNilState = errors.New("statekit: state must not be nil")

// ErrDestroyed is returned when SetState is called on a destroyed store.
// The call is a no-op: the state is not modified and no listeners fire.
var ErrDestroyed = errors.New("statekit: store destroyed")

// InvalidStateError reports that an update function produced a nil state.
// The mutation is not committed and the error is surfaced to the SetState
// caller, never retried.
type InvalidStateError struct {
	// Op names the operation that produced the nil value ("SetState",
	// "SetProperty", ...).
	Op string
}

// Error implements the error interface.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("statekit: %s produced nil state", e.Op)
}

// Is reports ErrNilState identity so callers can match with errors.Is
// without knowing the concrete type.
func (e *InvalidStateError) Is(target error) bool {
	return target == ErrNilState
}

// HookError reports that a plugin's BeforeUpdate rejected a mutation.
// The mutation is aborted: the state is not committed and no listeners fire.
type HookError struct {
	// Plugin is the name of the plugin whose hook failed.
	Plugin string

	// Err is the error returned by the hook.
	Err error
}

// Error implements the error interface.
func (e *HookError) Error() string {
	return fmt.Sprintf("statekit: plugin %q rejected update: %v", e.Plugin, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *HookError) Unwrap() error {
	return e.Err
}
