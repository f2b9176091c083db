package response

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/report"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
)

// conflicts maps state-machine errors to stable client codes. The message
// sent is the error text without the wrapping sentinel.
var conflicts = []struct {
	err     error
	code    string
	message string
}{
	{attendance.ErrAlreadyCheckedIn, "ALREADY_CHECKED_IN", "You are already checked in"},
	{attendance.ErrCheckInWhileOnBreak, "ON_BREAK", "You are on a break, check out to resume work"},
	{attendance.ErrNoOpenSession, "NOT_CHECKED_IN", "You have not checked in today"},
	{attendance.ErrAlreadyOnBreak, "ALREADY_ON_BREAK", "You are already on a break"},
	{attendance.ErrAlreadyCheckedOut, "ALREADY_CHECKED_OUT", "You have already checked out"},
	{leave.ErrRequestNotPending, "LEAVE_ALREADY_DECIDED", "Leave request has already been decided"},
	{leave.ErrInvalidTransition, "INVALID_TRANSITION", "Status change is not allowed from the current stage"},
	{leave.ErrStatusChanged, "STATUS_CHANGED", "Leave request was updated by someone else, reload and retry"},
}

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var balanceErr *leave.InsufficientBalanceError
	if errors.As(err, &balanceErr) {
		Fail(w, http.StatusBadRequest, "INSUFFICIENT_BALANCE", balanceErr.Error(), map[string]string{
			"type":      string(balanceErr.Type),
			"available": strconv.Itoa(balanceErr.Available),
			"requested": strconv.Itoa(balanceErr.Requested),
			"shortfall": strconv.Itoa(balanceErr.Shortfall()),
		})
		return
	}

	for _, c := range conflicts {
		if errors.Is(err, c.err) {
			Conflict(w, c.code, c.message)
			return
		}
	}

	switch {
	// Attendance domain errors
	case errors.Is(err, attendance.ErrCheckoutIntentRequired):
		ValidationError(w, map[string]string{"checkout_type": err.Error()})
	case errors.Is(err, attendance.ErrStateConflict):
		Conflict(w, "ATTENDANCE_CONFLICT", err.Error())
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")

	// Leave domain errors
	case errors.Is(err, leave.ErrNoWorkingDays):
		BadRequest(w, "Requested range contains no working days", nil)
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrSelfApproval):
		Forbidden(w, "You cannot decide your own leave request")
	case errors.Is(err, leave.ErrNotApprover):
		Forbidden(w, "You are not the approver for this stage")
	case errors.Is(err, leave.ErrUnauthorized):
		Forbidden(w, "You are not allowed to view this leave request")
	case errors.Is(err, leave.ErrStateConflict):
		Conflict(w, "LEAVE_CONFLICT", err.Error())

	// Directory and access errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, notification.ErrNotificationNotFound):
		NotFound(w, "Notification not found")
	case errors.Is(err, user.ErrAdminPrivilegeRequired),
		errors.Is(err, user.ErrManagerAccessRequired),
		errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())
	case errors.Is(err, user.ErrInvalidRole):
		Unauthorized(w, "Token carries an unknown role")

	case errors.Is(err, report.ErrExportFailed):
		slog.Error("Export failed", "error", err)
		InternalServerError(w, "Failed to build export")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
