package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const attendanceColumns = `
	id, user_id, date, check_in, check_out, break_start, break_end, break_type,
	break_allowance_minutes, is_late, late_minutes, grace_period_used, check_in_count,
	break_minutes, gross_work_minutes, total_work_hours, overtime_hours,
	late_notification_sent, break_reminder_sent, created_at, updated_at`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// LockDay implements attendance.AttendanceRepository.
func (r *attendanceRepository) LockDay(ctx context.Context, userID string, day time.Time) error {
	return advisoryLock(ctx, r.db, "attendance:"+userID+"|"+dayParam(day))
}

// FindByUserAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepository) FindByUserAndDate(ctx context.Context, userID string, day time.Time) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE user_id = $1 AND date = $2::date`

	rec, err := scanAttendance(q.QueryRow(ctx, query, userID, dayParam(day)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance by user and date: %w", err)
	}
	return &rec, nil
}

// Upsert implements attendance.AttendanceRepository.
func (r *attendanceRepository) Upsert(ctx context.Context, record attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	if record.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.Attendance{}, fmt.Errorf("failed to generate attendance id: %w", err)
		}
		record.ID = id.String()
	}

	var breakType *string
	if record.BreakType != nil {
		bt := string(*record.BreakType)
		breakType = &bt
	}

	query := `
		INSERT INTO attendance_records (
			id, user_id, date, check_in, check_out, break_start, break_end, break_type,
			break_allowance_minutes, is_late, late_minutes, grace_period_used, check_in_count,
			break_minutes, gross_work_minutes, total_work_hours, overtime_hours,
			late_notification_sent, break_reminder_sent
		) VALUES (
			$1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
		)
		ON CONFLICT (user_id, date) DO UPDATE SET
			check_in = EXCLUDED.check_in,
			check_out = EXCLUDED.check_out,
			break_start = EXCLUDED.break_start,
			break_end = EXCLUDED.break_end,
			break_type = EXCLUDED.break_type,
			break_allowance_minutes = EXCLUDED.break_allowance_minutes,
			is_late = EXCLUDED.is_late,
			late_minutes = EXCLUDED.late_minutes,
			grace_period_used = EXCLUDED.grace_period_used,
			check_in_count = EXCLUDED.check_in_count,
			break_minutes = EXCLUDED.break_minutes,
			gross_work_minutes = EXCLUDED.gross_work_minutes,
			total_work_hours = EXCLUDED.total_work_hours,
			overtime_hours = EXCLUDED.overtime_hours,
			late_notification_sent = EXCLUDED.late_notification_sent,
			break_reminder_sent = EXCLUDED.break_reminder_sent,
			updated_at = NOW()
		RETURNING ` + attendanceColumns

	saved, err := scanAttendance(q.QueryRow(ctx, query,
		record.ID,
		record.UserID,
		dayParam(record.Date),
		record.CheckIn,
		record.CheckOut,
		record.BreakStart,
		record.BreakEnd,
		breakType,
		record.BreakAllowanceMinutes,
		record.IsLate,
		record.LateMinutes,
		record.GracePeriodUsed,
		record.CheckInCount,
		record.BreakMinutes,
		record.GrossWorkMinutes,
		record.TotalWorkHours,
		record.OvertimeHours,
		record.LateNotificationSent,
		record.BreakReminderSent,
	))
	if err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to upsert attendance: %w", err)
	}
	return saved, nil
}

// GetByID implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	rec, err := scanAttendance(q.QueryRow(ctx, `SELECT `+attendanceColumns+` FROM attendance_records WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance by id: %w", err)
	}
	return rec, nil
}

// ListByUser implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByUser(ctx context.Context, userID string, from, to time.Time) ([]attendance.Attendance, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE user_id = $1 AND date BETWEEN $2::date AND $3::date
		ORDER BY date DESC`

	return r.list(ctx, query, userID, dayParam(from), dayParam(to))
}

// ListByDateRange implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]attendance.Attendance, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance_records
		WHERE date BETWEEN $1::date AND $2::date
		ORDER BY date ASC, user_id ASC`

	return r.list(ctx, query, dayParam(from), dayParam(to))
}

func (r *attendanceRepository) list(ctx context.Context, query string, args ...interface{}) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var out []attendance.Attendance
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance rows: %w", err)
	}
	return out, nil
}

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var (
		rec       attendance.Attendance
		breakType *string
	)
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Date, &rec.CheckIn, &rec.CheckOut, &rec.BreakStart, &rec.BreakEnd, &breakType,
		&rec.BreakAllowanceMinutes, &rec.IsLate, &rec.LateMinutes, &rec.GracePeriodUsed, &rec.CheckInCount,
		&rec.BreakMinutes, &rec.GrossWorkMinutes, &rec.TotalWorkHours, &rec.OvertimeHours,
		&rec.LateNotificationSent, &rec.BreakReminderSent, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return attendance.Attendance{}, err
	}
	if breakType != nil {
		bt := attendance.BreakType(*breakType)
		rec.BreakType = &bt
	}
	return rec, nil
}

type breakReminderRepository struct {
	db *database.DB
}

func NewBreakReminderRepository(db *database.DB) attendance.BreakReminderRepository {
	return &breakReminderRepository{db: db}
}

// Create implements attendance.BreakReminderRepository.
func (r *breakReminderRepository) Create(ctx context.Context, reminder attendance.BreakReminder) (attendance.BreakReminder, error) {
	q := GetQuerier(ctx, r.db)

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

	query := `
		INSERT INTO break_reminders (id, attendance_id, user_id, date, break_start, break_type, fire_at, status)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8)
		RETURNING created_at`

	err := q.QueryRow(ctx, query,
		reminder.ID,
		reminder.AttendanceID,
		reminder.UserID,
		dayParam(reminder.Date),
		reminder.BreakStart,
		string(reminder.BreakType),
		reminder.FireAt,
		string(reminder.Status),
	).Scan(&reminder.CreatedAt)
	if err != nil {
		return attendance.BreakReminder{}, fmt.Errorf("failed to create break reminder: %w", err)
	}
	return reminder, nil
}

// ListDue implements attendance.BreakReminderRepository.
func (r *breakReminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]attendance.BreakReminder, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, attendance_id, user_id, date, break_start, break_type, fire_at, status, created_at, processed_at
		FROM break_reminders
		WHERE status = 'pending' AND fire_at <= $1
		ORDER BY fire_at ASC`
	args := []interface{}{now}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	defer rows.Close()

	var out []attendance.BreakReminder
	for rows.Next() {
		var (
			rem       attendance.BreakReminder
			breakType string
			status    string
		)
		if err := rows.Scan(
			&rem.ID, &rem.AttendanceID, &rem.UserID, &rem.Date, &rem.BreakStart, &breakType,
			&rem.FireAt, &status, &rem.CreatedAt, &rem.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		rem.BreakType = attendance.BreakType(breakType)
		rem.Status = attendance.ReminderStatus(status)
		out = append(out, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reminder rows: %w", err)
	}
	return out, nil
}

// MarkProcessed implements attendance.BreakReminderRepository.
func (r *breakReminderRepository) MarkProcessed(ctx context.Context, id string, status attendance.ReminderStatus, at time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `
		UPDATE break_reminders SET status = $2, processed_at = $3
		WHERE id = $1 AND status = 'pending'`,
		id, string(status), at,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder processed: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
