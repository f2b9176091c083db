package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type CheckOutRequest struct {
	CheckoutType      *CheckoutType `json:"checkout_type,omitempty"`
	BreakType         *BreakType    `json:"break_type,omitempty"`
	PermissionMinutes *int          `json:"permission_minutes,omitempty"`
}

func (r *CheckOutRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.CheckoutType != nil && *r.CheckoutType != CheckoutTypeBreak && *r.CheckoutType != CheckoutTypeFinal {
		errs.Add("checkout_type", "checkout_type must be one of: BREAK, FINAL")
	}

	if r.BreakType != nil {
		if !r.BreakType.IsValid() {
			errs.Add("break_type", "break_type must be one of: LUNCH, SHORT_BREAK, PERMISSION")
		} else if r.CheckoutType == nil || *r.CheckoutType != CheckoutTypeBreak {
			errs.Add("break_type", "break_type is only allowed with checkout_type BREAK")
		}
	}

	if r.PermissionMinutes != nil {
		if r.BreakType == nil || *r.BreakType != BreakTypePermission {
			errs.Add("permission_minutes", "permission_minutes is only allowed with break_type PERMISSION")
		} else if !validator.IsInRange(*r.PermissionMinutes, MinPermissionMinutes, MaxPermissionMinutes) {
			errs.Add("permission_minutes", "permission_minutes must be between 1 and 480")
		}
	}

	return errs.Err()
}

type AttendanceResponse struct {
	ID              string       `json:"id"`
	UserID          string       `json:"user_id"`
	Date            string       `json:"date"`
	State           SessionState `json:"state"`
	Status          Status       `json:"status"`
	CheckIn         *string      `json:"check_in,omitempty"`
	CheckOut        *string      `json:"check_out,omitempty"`
	BreakStart      *string      `json:"break_start,omitempty"`
	BreakEnd        *string      `json:"break_end,omitempty"`
	BreakType       *BreakType   `json:"break_type,omitempty"`
	IsLate          bool         `json:"is_late"`
	LateMinutes     int          `json:"late_minutes"`
	GracePeriodUsed bool         `json:"grace_period_used"`
	CheckInCount    int          `json:"check_in_count"`
	BreakMinutes    int          `json:"break_minutes"`
	TotalWorkHours  float64      `json:"total_work_hours"`
	OvertimeHours   float64      `json:"overtime_hours"`
	WorkDuration    string       `json:"work_duration"`
	BreakDuration   string       `json:"break_duration"`
	CreatedAt       string       `json:"created_at"`
	UpdatedAt       string       `json:"updated_at"`
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.Format(time.RFC3339)
	return &format
}

// NewAttendanceResponse converts a record into its API shape.
func NewAttendanceResponse(a Attendance) AttendanceResponse {
	state, err := a.State()
	if err != nil {
		state = StateNotCheckedIn
	}
	return AttendanceResponse{
		ID:              a.ID,
		UserID:          a.UserID,
		Date:            a.Date.Format(timeutil.DateLayout),
		State:           state,
		Status:          a.Status(),
		CheckIn:         timePtrToString(a.CheckIn),
		CheckOut:        timePtrToString(a.CheckOut),
		BreakStart:      timePtrToString(a.BreakStart),
		BreakEnd:        timePtrToString(a.BreakEnd),
		BreakType:       a.BreakType,
		IsLate:          a.IsLate,
		LateMinutes:     a.LateMinutes,
		GracePeriodUsed: a.GracePeriodUsed,
		CheckInCount:    a.CheckInCount,
		BreakMinutes:    a.BreakMinutes,
		TotalWorkHours:  a.TotalWorkHours,
		OvertimeHours:   a.OvertimeHours,
		WorkDuration:    timeutil.FormatHours(a.TotalWorkHours),
		BreakDuration:   timeutil.FormatDuration(a.BreakMinutes),
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       a.UpdatedAt.Format(time.RFC3339),
	}
}

// TodayResponse describes the caller's current day and which actions are open.
type TodayResponse struct {
	Date                  string              `json:"date"`
	State                 SessionState        `json:"state"`
	CanCheckIn            bool                `json:"can_check_in"`
	CanCheckOut           bool                `json:"can_check_out"`
	CanStartBreak         bool                `json:"can_start_break"`
	BreakRemainingMinutes *int                `json:"break_remaining_minutes,omitempty"`
	Attendance            *AttendanceResponse `json:"attendance,omitempty"`
}

type MyAttendanceFilter struct {
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
}

// Range returns the parsed bounds, defaulting to the 30 days ending at today.
func (f *MyAttendanceFilter) Range(today time.Time) (time.Time, time.Time, error) {
	var errs validator.ValidationErrors
	from := today.AddDate(0, 0, -30)
	to := today

	if f.StartDate != nil && *f.StartDate != "" {
		d, ok := validator.IsValidDate(*f.StartDate)
		if !ok {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		} else {
			from = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, today.Location())
		}
	}
	if f.EndDate != nil && *f.EndDate != "" {
		d, ok := validator.IsValidDate(*f.EndDate)
		if !ok {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		} else {
			to = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, today.Location())
		}
	}
	if len(errs) == 0 && from.After(to) {
		errs.Add("start_date", "start_date must not be after end_date")
	}
	if err := errs.Err(); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
