package devtools

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ImportError reports a malformed serialized state. The store is left
// unchanged; the error is surfaced to the import caller.
type ImportError struct {
	Err error
}

// Error implements the error interface.
func (e *ImportError) Error() string {
	return fmt.Sprintf("devtools: malformed state import: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ImportError) Unwrap() error {
	return e.Err
}

// Export serializes a state value to canonical JSON.
func Export(state any) ([]byte, error) {
	b, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("devtools: state export: %w", err)
	}
	return b, nil
}

// Import parses a serialized state back into plain structural form
// (map[string]any / []any / float64 / string / bool). Malformed or null
// input yields an *ImportError and no state.
func Import(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &ImportError{Err: err}
	}
	if v == nil {
		return nil, &ImportError{Err: errors.New("state is null")}
	}
	return v, nil
}
