package attendance

import (
	"context"
	"time"
)

// AttendanceService drives the per-day session state machine.
type AttendanceService interface {
	// CheckIn opens a work session for today, creating the day record on first use.
	CheckIn(ctx context.Context, userID string) (AttendanceResponse, error)

	// CheckOut resumes from an open break, starts a break, or closes the day.
	CheckOut(ctx context.Context, userID string, req CheckOutRequest) (AttendanceResponse, error)

	// GetToday reports today's state and the actions available to the user.
	GetToday(ctx context.Context, userID string) (TodayResponse, error)

	// GetMyAttendance lists the user's day records within the filter range.
	GetMyAttendance(ctx context.Context, userID string, filter MyAttendanceFilter) ([]AttendanceResponse, error)

	// ListByMonth returns every record dated inside month.
	ListByMonth(ctx context.Context, month time.Time) ([]Attendance, error)

	// DispatchDueReminders fires break reminders whose time has come.
	// Processed counts due reminders that left the pending queue, whether
	// sent or skipped. Reminders that failed stay pending and are not counted.
	DispatchDueReminders(ctx context.Context, limit int) (ReminderDispatch, error)
}

// ReminderDispatch summarises one DispatchDueReminders batch.
type ReminderDispatch struct {
	Processed int
	Sent      int
}
