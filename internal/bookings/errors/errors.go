package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusChanged means a conditional status write matched the id
	// but not the expected current status.
	ErrStatusChanged = errors.New("booking status changed concurrently")

	// ErrLockHeld means another request holds the vehicle's advisory lock.
	ErrLockHeld = errors.New("vehicle lock already held")
)
