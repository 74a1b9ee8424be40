package dom

import "github.com/pkg/errors"

var (
	// ErrDispatching is returned when an event that is still being
	// dispatched is handed to DispatchEvent again.
	ErrDispatching = errors.New("event is already being dispatched")

	ErrNotFound        = errors.New("element not found")
	ErrInvalidSelector = errors.New("invalid selector")
	ErrHierarchy       = errors.New("node cannot be inserted at this point in the hierarchy")
	ErrWrongDocument   = errors.New("node belongs to a different document")
)
