package attendance

import (
	"errors"
	"fmt"
)

// Attendance domain errors
var (
	// ErrStateConflict is wrapped by every error caused by calling an
	// operation in a session state that does not allow it.
	ErrStateConflict = errors.New("attendance state conflict")

	ErrAlreadyCheckedIn    = fmt.Errorf("%w: you are already checked in", ErrStateConflict)
	ErrCheckInWhileOnBreak = fmt.Errorf("%w: you are on a break, check out to resume work", ErrStateConflict)
	ErrNoOpenSession       = fmt.Errorf("%w: you have not checked in today", ErrStateConflict)
	ErrAlreadyOnBreak      = fmt.Errorf("%w: you are already on a break", ErrStateConflict)
	ErrAlreadyCheckedOut   = fmt.Errorf("%w: you have already checked out", ErrStateConflict)

	ErrCheckoutIntentRequired = errors.New("checkout_type is required outside the lunch window")
	ErrInconsistentRecord     = errors.New("attendance record timestamps are inconsistent")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrPersistence        = errors.New("attendance persistence failure")
)
