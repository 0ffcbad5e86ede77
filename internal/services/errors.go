package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrInvalidArgument marks a bad rule definition or request value.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound marks a checklist, work item or rule that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTransitionFailed marks a write-time failure while applying a status change.
	ErrTransitionFailed = errors.New("transition failed")
	// ErrStorageUnavailable marks a read failure in the calculator or matcher.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrStaleTransition means the work item left the expected source status
	// before the write; the transition is dropped without an audit row.
	ErrStaleTransition = errors.New("stale transition")
)

func invalidArgf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// storageErr classifies a read error: missing rows become ErrNotFound,
// everything else ErrStorageUnavailable.
func storageErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}
