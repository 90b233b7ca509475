package notification

import "errors"

var (
	// ErrNotificationNotFound is returned when no record has the requested id.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrStaleUpdate is returned when a guarded status update does not apply:
	// the record exists but is not in one of the expected statuses, or it
	// already carries a higher retry count.
	ErrStaleUpdate = errors.New("stale notification update")
)

// missError explains a guarded update that matched no record.
func missError(exists bool) error {
	if !exists {
		return ErrNotificationNotFound
	}

	return ErrStaleUpdate
}
