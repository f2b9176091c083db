package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormAttendanceRepository struct {
	db *DB
}

func NewGormAttendanceRepository(db *DB) (*GormAttendanceRepository, error) {
	if err := db.gorm.AutoMigrate(&attendanceModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate attendance_records: %w", err)
	}
	return &GormAttendanceRepository{db: db}, nil
}

// LockDay implements attendance.AttendanceRepository.
func (r *GormAttendanceRepository) LockDay(ctx context.Context, userID string, day time.Time) error {
	return r.db.lock(ctx, "attendance:"+userID+"|"+day.Format(timeutil.DateLayout))
}

// FindByUserAndDate implements attendance.AttendanceRepository.
func (r *GormAttendanceRepository) FindByUserAndDate(ctx context.Context, userID string, day time.Time) (*attendance.Attendance, error) {
	var m attendanceModel
	err := r.db.conn(ctx).
		Where("user_id = ? AND date = ?", userID, day.Format(timeutil.DateLayout)).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance by user and date: %w", err)
	}
	rec := m.toDomain()
	return &rec, nil
}

// Upsert implements attendance.AttendanceRepository.
func (r *GormAttendanceRepository) Upsert(ctx context.Context, record attendance.Attendance) (attendance.Attendance, error) {
	conn := r.db.conn(ctx)

	m := attendanceFromDomain(record)

	var existing attendanceModel
	err := conn.Where("user_id = ? AND date = ?", m.UserID, m.Date).First(&existing).Error
	switch {
	case err == nil:
		m.ID = existing.ID
		m.CreatedAt = existing.CreatedAt
	case errors.Is(err, gorm.ErrRecordNotFound):
		if m.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return attendance.Attendance{}, fmt.Errorf("failed to generate attendance id: %w", err)
			}
			m.ID = id.String()
		}
		m.CreatedAt = r.db.now()
	default:
		return attendance.Attendance{}, fmt.Errorf("failed to check existing attendance: %w", err)
	}

	if err := conn.Save(&m).Error; err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to upsert attendance: %w", err)
	}
	return m.toDomain(), nil
}

// GetByID implements attendance.AttendanceRepository.
func (r *GormAttendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	var m attendanceModel
	err := r.db.conn(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance by id: %w", err)
	}
	return m.toDomain(), nil
}

// ListByUser implements attendance.AttendanceRepository.
func (r *GormAttendanceRepository) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]attendance.Attendance, error) {
	var models []attendanceModel
	err := r.db.conn(ctx).
		Where("user_id = ? AND date BETWEEN ? AND ?", userID, from.Format(timeutil.DateLayout), to.Format(timeutil.DateLayout)).
		Order("date DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance by user: %w", err)
	}
	return attendanceList(models), nil
}

// ListByDateRange implements attendance.AttendanceRepository.
func (r *GormAttendanceRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]attendance.Attendance, error) {
	var models []attendanceModel
	err := r.db.conn(ctx).
		Where("date BETWEEN ? AND ?", from.Format(timeutil.DateLayout), to.Format(timeutil.DateLayout)).
		Order("date ASC").Order("user_id ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance by date range: %w", err)
	}
	return attendanceList(models), nil
}

func attendanceList(models []attendanceModel) []attendance.Attendance {
	out := make([]attendance.Attendance, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out
}

type GormBreakReminderRepository struct {
	db *DB
}

func NewGormBreakReminderRepository(db *DB) (*GormBreakReminderRepository, error) {
	if err := db.gorm.AutoMigrate(&breakReminderModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate break_reminders: %w", err)
	}
	return &GormBreakReminderRepository{db: db}, nil
}

// Create implements attendance.BreakReminderRepository.
func (r *GormBreakReminderRepository) Create(ctx context.Context, reminder attendance.BreakReminder) (attendance.BreakReminder, error) {
	if reminder.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.BreakReminder{}, fmt.Errorf("failed to generate reminder id: %w", err)
		}
		reminder.ID = id.String()
	}
	if reminder.Status == "" {
		reminder.Status = attendance.ReminderPending
	}

	m := breakReminderModel{
		ID:           reminder.ID,
		AttendanceID: reminder.AttendanceID,
		UserID:       reminder.UserID,
		Date:         reminder.Date.Format(timeutil.DateLayout),
		BreakStart:   reminder.BreakStart.UTC(),
		BreakType:    string(reminder.BreakType),
		FireAt:       reminder.FireAt.UTC(),
		Status:       string(reminder.Status),
	}
	if err := r.db.conn(ctx).Create(&m).Error; err != nil {
		return attendance.BreakReminder{}, fmt.Errorf("failed to create break reminder: %w", err)
	}
	return m.toDomain(), nil
}

// ListDue implements attendance.BreakReminderRepository. Instants are stored
// in UTC so the text comparison on fire_at orders correctly.
func (r *GormBreakReminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]attendance.BreakReminder, error) {
	query := r.db.conn(ctx).
		Where("status = ? AND fire_at <= ?", string(attendance.ReminderPending), now.UTC()).
		Order("fire_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []breakReminderModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}

	out := make([]attendance.BreakReminder, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

// MarkProcessed implements attendance.BreakReminderRepository.
func (r *GormBreakReminderRepository) MarkProcessed(ctx context.Context, id string, status attendance.ReminderStatus, at time.Time) (bool, error) {
	res := r.db.conn(ctx).Model(&breakReminderModel{}).
		Where("id = ? AND status = ?", id, string(attendance.ReminderPending)).
		Updates(map[string]interface{}{"status": string(status), "processed_at": at})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark reminder processed: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
