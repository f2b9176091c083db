package attendance

import (
	"time"
)

type BreakType string

const (
	BreakTypeLunch      BreakType = "LUNCH"
	BreakTypeShortBreak BreakType = "SHORT_BREAK"
	BreakTypePermission BreakType = "PERMISSION"
)

func (b BreakType) IsValid() bool {
	switch b {
	case BreakTypeLunch, BreakTypeShortBreak, BreakTypePermission:
		return true
	}
	return false
}

type CheckoutType string

const (
	CheckoutTypeBreak CheckoutType = "BREAK"
	CheckoutTypeFinal CheckoutType = "FINAL"
)

// SessionState is the position of a day record in the check-in/break/checkout cycle.
type SessionState string

const (
	StateNotCheckedIn SessionState = "NOT_CHECKED_IN"
	StateWorking      SessionState = "WORKING"
	StateOnBreak      SessionState = "ON_BREAK"
	StateCompleted    SessionState = "COMPLETED"
)

// Status is the coarse presence label shown to users.
type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusOnBreak Status = "ON_BREAK"
	StatusAbsent  Status = "ABSENT"
)

// Attendance is one user's record for one calendar day. A day can hold
// several sessions: CheckIn/CheckOut describe the open or most recently
// closed one, and the minute counters accumulate across all of them.
type Attendance struct {
	ID     string
	UserID string
	Date   time.Time

	CheckIn    *time.Time
	CheckOut   *time.Time
	BreakStart *time.Time
	BreakEnd   *time.Time
	BreakType  *BreakType

	// BreakAllowanceMinutes is the planned length of the most recent break.
	BreakAllowanceMinutes int

	IsLate          bool
	LateMinutes     int
	GracePeriodUsed bool
	CheckInCount    int

	BreakMinutes     int
	GrossWorkMinutes int
	TotalWorkHours   float64
	OvertimeHours    float64

	LateNotificationSent bool
	BreakReminderSent    bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasOpenBreak reports a started break that has not been closed.
func (a *Attendance) HasOpenBreak() bool {
	return a.BreakStart != nil && a.BreakEnd == nil
}

// State derives the session state from the timestamps, rejecting
// combinations that cannot occur.
func (a *Attendance) State() (SessionState, error) {
	if a == nil {
		return StateNotCheckedIn, nil
	}
	if a.CheckIn == nil {
		if a.CheckOut != nil || a.BreakStart != nil || a.BreakEnd != nil {
			return "", ErrInconsistentRecord
		}
		return StateNotCheckedIn, nil
	}
	if a.BreakEnd != nil && a.BreakStart == nil {
		return "", ErrInconsistentRecord
	}
	if a.HasOpenBreak() {
		if a.CheckOut != nil {
			return "", ErrInconsistentRecord
		}
		return StateOnBreak, nil
	}
	if a.CheckOut != nil {
		return StateCompleted, nil
	}
	return StateWorking, nil
}

// Status maps the session state to a presence label. Inconsistent
// records report ABSENT.
func (a *Attendance) Status() Status {
	state, err := a.State()
	if err != nil {
		return StatusAbsent
	}
	switch state {
	case StateOnBreak:
		return StatusOnBreak
	case StateWorking, StateCompleted:
		return StatusPresent
	default:
		return StatusAbsent
	}
}

type ReminderStatus string

const (
	ReminderPending ReminderStatus = "pending"
	ReminderSent    ReminderStatus = "sent"
	ReminderSkipped ReminderStatus = "skipped"
)

// BreakReminder is a durable one-shot timer for an open break. It fires only
// if the break it was scheduled for is still open.
type BreakReminder struct {
	ID           string
	AttendanceID string
	UserID       string
	Date         time.Time
	BreakStart   time.Time
	BreakType    BreakType
	FireAt       time.Time
	Status       ReminderStatus
	CreatedAt    time.Time
	ProcessedAt  *time.Time
}
