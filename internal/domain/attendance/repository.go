package attendance

import (
	"context"
	"time"
)

// AttendanceRepository persists one record per (userID, date).
type AttendanceRepository interface {
	// LockDay serializes writers of (userID, day) until the surrounding
	// transaction ends. It must be called inside Transactor.WithinTransaction.
	LockDay(ctx context.Context, userID string, day time.Time) error

	// FindByUserAndDate returns nil, nil when the user has no record for day.
	FindByUserAndDate(ctx context.Context, userID string, day time.Time) (*Attendance, error)

	// Upsert inserts or replaces the record keyed by (UserID, Date).
	Upsert(ctx context.Context, record Attendance) (Attendance, error)

	GetByID(ctx context.Context, id string) (Attendance, error)

	// ListByUser returns records with from <= date <= to, newest first.
	ListByUser(ctx context.Context, userID string, from, to time.Time) ([]Attendance, error)

	// ListByDateRange returns every user's records in [from, to], ordered by date then user.
	ListByDateRange(ctx context.Context, from, to time.Time) ([]Attendance, error)
}

// BreakReminderRepository is the durable queue behind break reminders.
type BreakReminderRepository interface {
	Create(ctx context.Context, reminder BreakReminder) (BreakReminder, error)

	// ListDue returns pending reminders with FireAt <= now, oldest first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]BreakReminder, error)

	// MarkProcessed moves a pending reminder to status. It returns false when
	// the reminder was already processed by someone else.
	MarkProcessed(ctx context.Context, id string, status ReminderStatus, at time.Time) (bool, error)
}
