package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/google/uuid"
)

type attendanceRepository struct {
	db *DB
}

func NewAttendanceRepository(db *DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// LockDay implements attendance.AttendanceRepository.
func (r *attendanceRepository) LockDay(ctx context.Context, userID string, day time.Time) error {
	return r.db.lock(ctx, "attendance:"+dayKey(userID, day))
}

// FindByUserAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepository) FindByUserAndDate(ctx context.Context, userID string, day time.Time) (*attendance.Attendance, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.dayIndex[dayKey(userID, day)]
	if !ok {
		return nil, nil
	}
	rec := r.db.attendances[id]
	return &rec, nil
}

// Upsert implements attendance.AttendanceRepository.
func (r *attendanceRepository) Upsert(ctx context.Context, record attendance.Attendance) (attendance.Attendance, error) {
	key := dayKey(record.UserID, record.Date)

	r.db.mu.RLock()
	existingID, exists := r.db.dayIndex[key]
	previous := r.db.attendances[existingID]
	r.db.mu.RUnlock()

	now := r.db.clock.Now()
	if exists {
		record.ID = existingID
		record.CreatedAt = previous.CreatedAt
	} else {
		if record.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return attendance.Attendance{}, err
			}
			record.ID = id.String()
		}
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	r.db.write(ctx, func() {
		r.db.attendances[record.ID] = record
		r.db.dayIndex[key] = record.ID
	}, func() {
		if exists {
			r.db.attendances[existingID] = previous
			return
		}
		delete(r.db.attendances, record.ID)
		delete(r.db.dayIndex, key)
	})
	return record, nil
}

// GetByID implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	rec, ok := r.db.attendances[id]
	if !ok {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return rec, nil
}

// ListByUser implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]attendance.Attendance, error) {
	out := r.filter(func(a attendance.Attendance) bool {
		return a.UserID == userID && inRange(a.Date, from, to)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// ListByDateRange implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]attendance.Attendance, error) {
	out := r.filter(func(a attendance.Attendance) bool { return inRange(a.Date, from, to) })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (r *attendanceRepository) filter(keep func(attendance.Attendance) bool) []attendance.Attendance {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []attendance.Attendance
	for _, a := range r.db.attendances {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

func inRange(day, from, to time.Time) bool {
	d := day.Format("2006-01-02")
	return d >= from.Format("2006-01-02") && d <= to.Format("2006-01-02")
}

type breakReminderRepository struct {
	db *DB
}

func NewBreakReminderRepository(db *DB) attendance.BreakReminderRepository {
	return &breakReminderRepository{db: db}
}

// Create implements attendance.BreakReminderRepository.
func (r *breakReminderRepository) Create(ctx context.Context, reminder attendance.BreakReminder) (attendance.BreakReminder, error) {
	if reminder.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.BreakReminder{}, err
		}
		reminder.ID = id.String()
	}
	if reminder.Status == "" {
		reminder.Status = attendance.ReminderPending
	}
	reminder.CreatedAt = r.db.clock.Now()

	r.db.write(ctx, func() {
		r.db.reminders[reminder.ID] = reminder
	}, func() {
		delete(r.db.reminders, reminder.ID)
	})
	return reminder, nil
}

// ListDue implements attendance.BreakReminderRepository.
func (r *breakReminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]attendance.BreakReminder, error) {
	r.db.mu.RLock()
	var due []attendance.BreakReminder
	for _, rem := range r.db.reminders {
		if rem.Status == attendance.ReminderPending && !rem.FireAt.After(now) {
			due = append(due, rem)
		}
	}
	r.db.mu.RUnlock()

	sort.Slice(due, func(i, j int) bool { return due[i].FireAt.Before(due[j].FireAt) })
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// MarkProcessed implements attendance.BreakReminderRepository.
func (r *breakReminderRepository) MarkProcessed(ctx context.Context, id string, status attendance.ReminderStatus, at time.Time) (bool, error) {
	r.db.mu.Lock()
	prev, ok := r.db.reminders[id]
	if !ok || prev.Status != attendance.ReminderPending {
		r.db.mu.Unlock()
		return false, nil
	}
	next := prev
	next.Status = status
	next.ProcessedAt = &at
	r.db.reminders[id] = next
	r.db.mu.Unlock()

	r.db.recordUndo(ctx, func() {
		r.db.reminders[id] = prev
	})
	return true, nil
}
