package medical

import (
	"errors"
	"fmt"
)

var (
	// ErrDetectionFailed is returned when the entity detection call fails.
	ErrDetectionFailed = errors.New("medical entity detection failed")

	// ErrTextTooLong is returned when the input exceeds the service limit.
	ErrTextTooLong = errors.New("text exceeds the maximum size for entity detection")
)

// EntityError wraps an entity detection failure with the operation involved.
type EntityError struct {
	Op      string
	Err     error
	Details string
}

func (e *EntityError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("medical: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("medical: %s failed: %v", e.Op, e.Err)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}
