package marker

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotFound is returned when a List has no record with the requested ID.
var ErrNotFound = errors.New("marker not found")

// ErrInvalidRecord is returned by NewRecord for malformed input.
var ErrInvalidRecord = errors.New("invalid marker record")

// DetectionError wraps a failure of the underlying detector.
type DetectionError struct {
	Backend string
	Err     error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("detect markers (%s): %v", e.Backend, e.Err)
}

func (e *DetectionError) Unwrap() error { return e.Err }
