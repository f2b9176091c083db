package leave

import (
	"errors"
	"fmt"
)

var (
	ErrStateConflict = errors.New("leave request state conflict")

	ErrRequestNotPending = fmt.Errorf("%w: leave request has already been decided", ErrStateConflict)
	ErrInvalidTransition = fmt.Errorf("%w: status change is not allowed from the current stage", ErrStateConflict)
	ErrStatusChanged     = fmt.Errorf("%w: leave request was updated by someone else", ErrStateConflict)

	ErrInsufficientBalance = errors.New("insufficient leave balance")

	ErrLeaveRequestNotFound = errors.New("leave request not found")
	ErrNotApprover          = errors.New("you are not the approver for this stage")
	ErrSelfApproval         = errors.New("you cannot decide your own leave request")
	ErrUnauthorized         = errors.New("unauthorized to access this leave request")
	ErrNoWorkingDays        = errors.New("requested range contains no working days")
	ErrPersistence          = errors.New("leave persistence failure")
)

// InsufficientBalanceError carries the shortfall of a CL or SL request.
type InsufficientBalanceError struct {
	Type      LeaveType
	Available int
	Requested int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance (available: %d, requested: %d)", e.Type, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// Shortfall is the number of days the request exceeds the balance by.
func (e *InsufficientBalanceError) Shortfall() int {
	return e.Requested - e.Available
}
