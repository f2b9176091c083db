package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/setting"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
)

var errReminderClaimed = errors.New("reminder already processed")

type AttendanceServiceImpl struct {
	tx database.Transactor
	attendance.AttendanceRepository
	reminders attendance.BreakReminderRepository
	settings  setting.SettingService
	notifier  notification.Dispatcher
	policy    attendance.Policy
	intent    attendance.IntentPolicy
	clock     timeutil.Clock
}

func NewAttendanceService(
	tx database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	reminderRepo attendance.BreakReminderRepository,
	settingService setting.SettingService,
	notifier notification.Dispatcher,
	policy attendance.Policy,
	intent attendance.IntentPolicy,
	clock timeutil.Clock,
) attendance.AttendanceService {
	if intent == nil {
		intent = attendance.RequireExplicitIntent{}
	}
	if clock == nil {
		clock = timeutil.SystemClock()
	}
	return &AttendanceServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepo,
		reminders:            reminderRepo,
		settings:             settingService,
		notifier:             notifier,
		policy:               policy,
		intent:               intent,
		clock:                clock,
	}
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", attendance.ErrPersistence, op, err)
}

// loadDay locks (userID, day) and returns its record, or a blank one.
func (s *AttendanceServiceImpl) loadDay(ctx context.Context, userID string, day time.Time) (*attendance.Attendance, error) {
	if err := s.AttendanceRepository.LockDay(ctx, userID, day); err != nil {
		return nil, persistenceError("lock attendance day", err)
	}
	rec, err := s.AttendanceRepository.FindByUserAndDate(ctx, userID, day)
	if err != nil {
		return nil, persistenceError("find attendance", err)
	}
	if rec == nil {
		rec = &attendance.Attendance{UserID: userID, Date: day}
	}
	return rec, nil
}

// CheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context, userID string) (attendance.AttendanceResponse, error) {
	now := s.clock.Now()
	day := timeutil.DayKey(now, s.policy.Location)

	var saved attendance.Attendance
	var notifyLate bool

	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		rec, err := s.loadDay(txCtx, userID, day)
		if err != nil {
			return err
		}

		state, err := rec.State()
		if err != nil {
			return err
		}
		switch state {
		case attendance.StateWorking:
			return attendance.ErrAlreadyCheckedIn
		case attendance.StateOnBreak:
			return attendance.ErrCheckInWhileOnBreak
		}

		// Lateness belongs to the first arrival of the day only.
		if rec.CheckInCount == 0 {
			l := s.policy.AssessLateness(now)
			rec.IsLate = l.IsLate
			rec.LateMinutes = l.LateMinutes
			rec.GracePeriodUsed = l.GracePeriodUsed
			if l.Notify && !rec.LateNotificationSent {
				rec.LateNotificationSent = true
				notifyLate = true
			}
		}

		rec.CheckIn = &now
		rec.CheckOut = nil
		rec.CheckInCount++

		saved, err = s.AttendanceRepository.Upsert(txCtx, *rec)
		if err != nil {
			return persistenceError("upsert attendance", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if notifyLate {
		s.notifier.Dispatch(ctx, notification.Message{
			RecipientID: userID,
			Type:        notification.TypeLateArrival,
			Title:       "Late check-in",
			Body: fmt.Sprintf("You checked in %d minutes after office start on %s.",
				saved.LateMinutes, saved.Date.Format(timeutil.DateLayout)),
			Data: map[string]interface{}{
				"attendance_id": saved.ID,
				"date":          saved.Date.Format(timeutil.DateLayout),
				"late_minutes":  saved.LateMinutes,
			},
		})
	}

	slog.Info("attendance check-in",
		"user_id", userID,
		"date", saved.Date.Format(timeutil.DateLayout),
		"check_in_count", saved.CheckInCount,
		"late_minutes", saved.LateMinutes,
	)

	return attendance.NewAttendanceResponse(saved), nil
}

// resolvePermissionMinutes returns the override or the stored default,
// failing before any state is touched when the value is out of bounds.
func (s *AttendanceServiceImpl) resolvePermissionMinutes(ctx context.Context, req attendance.CheckOutRequest) (int, error) {
	if req.BreakType == nil || *req.BreakType != attendance.BreakTypePermission {
		return 0, nil
	}
	if req.PermissionMinutes != nil {
		return *req.PermissionMinutes, nil
	}
	minutes, err := s.settings.PermissionDefaultMinutes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read permission default: %w", err)
	}
	if !validator.IsInRange(minutes, attendance.MinPermissionMinutes, attendance.MaxPermissionMinutes) {
		return 0, validator.ValidationErrors{{
			Field:   "permission_minutes",
			Message: "permission_minutes must be between 1 and 480",
		}}
	}
	return minutes, nil
}

// CheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, userID string, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	permissionMinutes, err := s.resolvePermissionMinutes(ctx, req)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := s.clock.Now()
	day := timeutil.DayKey(now, s.policy.Location)

	var saved attendance.Attendance
	var action string

	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		rec, err := s.loadDay(txCtx, userID, day)
		if err != nil {
			return err
		}

		state, err := rec.State()
		if err != nil {
			return err
		}

		switch state {
		case attendance.StateNotCheckedIn:
			return attendance.ErrNoOpenSession
		case attendance.StateCompleted:
			return attendance.ErrAlreadyCheckedOut
		case attendance.StateOnBreak:
			if req.CheckoutType != nil && *req.CheckoutType == attendance.CheckoutTypeBreak {
				return attendance.ErrAlreadyOnBreak
			}
			action = "resume"
			s.resumeFromBreak(rec, now)
		case attendance.StateWorking:
			intent, err := s.resolveIntent(req, now)
			if err != nil {
				return err
			}
			if intent == attendance.CheckoutTypeBreak {
				action = "break"
				s.startBreak(rec, req, permissionMinutes, now)
			} else {
				action = "final"
				s.finalCheckout(rec, now)
			}
		}

		saved, err = s.AttendanceRepository.Upsert(txCtx, *rec)
		if err != nil {
			return persistenceError("upsert attendance", err)
		}

		if action == "break" {
			_, err = s.reminders.Create(txCtx, attendance.BreakReminder{
				AttendanceID: saved.ID,
				UserID:       saved.UserID,
				Date:         saved.Date,
				BreakStart:   *saved.BreakStart,
				BreakType:    *saved.BreakType,
				FireAt:       now.Add(time.Duration(saved.BreakAllowanceMinutes) * time.Minute),
				Status:       attendance.ReminderPending,
			})
			if err != nil {
				return persistenceError("schedule break reminder", err)
			}
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("attendance check-out",
		"user_id", userID,
		"date", saved.Date.Format(timeutil.DateLayout),
		"action", action,
		"break_minutes", saved.BreakMinutes,
		"total_work_hours", saved.TotalWorkHours,
	)

	return attendance.NewAttendanceResponse(saved), nil
}

func (s *AttendanceServiceImpl) resolveIntent(req attendance.CheckOutRequest, now time.Time) (attendance.CheckoutType, error) {
	if req.CheckoutType != nil {
		return *req.CheckoutType, nil
	}
	return s.intent.ResolveBareCheckout(now)
}

func (s *AttendanceServiceImpl) resumeFromBreak(rec *attendance.Attendance, now time.Time) {
	rec.BreakEnd = &now
	rec.BreakMinutes += timeutil.MinutesBetween(*rec.BreakStart, now)
}

func (s *AttendanceServiceImpl) startBreak(rec *attendance.Attendance, req attendance.CheckOutRequest, permissionMinutes int, now time.Time) {
	breakType := attendance.BreakTypeLunch
	if req.BreakType != nil {
		breakType = *req.BreakType
	}
	rec.BreakStart = &now
	rec.BreakEnd = nil
	rec.BreakType = &breakType
	rec.BreakAllowanceMinutes = s.policy.BreakMinutes(breakType, permissionMinutes)
	rec.BreakReminderSent = false
}

// finalCheckout closes the open session. Earlier sessions of the day are
// folded in through GrossWorkMinutes so a single-session day reduces to
// CalculateWorkHours(checkIn, checkOut, breakMinutes).
func (s *AttendanceServiceImpl) finalCheckout(rec *attendance.Attendance, now time.Time) {
	sessionStart := rec.CheckIn.Add(-time.Duration(rec.GrossWorkMinutes) * time.Minute)
	rec.TotalWorkHours = timeutil.CalculateWorkHours(sessionStart, now, rec.BreakMinutes)
	rec.GrossWorkMinutes += timeutil.MinutesBetween(*rec.CheckIn, now)
	rec.OvertimeHours = s.policy.OvertimeHours(rec.TotalWorkHours)
	rec.CheckOut = &now
}

// GetToday implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetToday(ctx context.Context, userID string) (attendance.TodayResponse, error) {
	now := s.clock.Now()
	day := timeutil.DayKey(now, s.policy.Location)

	rec, err := s.AttendanceRepository.FindByUserAndDate(ctx, userID, day)
	if err != nil {
		return attendance.TodayResponse{}, persistenceError("find attendance", err)
	}

	state, err := rec.State()
	if err != nil {
		return attendance.TodayResponse{}, err
	}

	resp := attendance.TodayResponse{
		Date:          day.Format(timeutil.DateLayout),
		State:         state,
		CanCheckIn:    state == attendance.StateNotCheckedIn || state == attendance.StateCompleted,
		CanCheckOut:   state == attendance.StateWorking || state == attendance.StateOnBreak,
		CanStartBreak: state == attendance.StateWorking,
	}
	if rec != nil {
		r := attendance.NewAttendanceResponse(*rec)
		resp.Attendance = &r
	}
	if state == attendance.StateOnBreak {
		remaining := rec.BreakAllowanceMinutes - timeutil.MinutesBetween(*rec.BreakStart, now)
		if remaining < 0 {
			remaining = 0
		}
		resp.BreakRemainingMinutes = &remaining
	}
	return resp, nil
}

// GetMyAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, userID string, filter attendance.MyAttendanceFilter) ([]attendance.AttendanceResponse, error) {
	today := timeutil.DayKey(s.clock.Now(), s.policy.Location)
	from, to, err := filter.Range(today)
	if err != nil {
		return nil, err
	}

	records, err := s.AttendanceRepository.ListByUser(ctx, userID, from, to)
	if err != nil {
		return nil, persistenceError("list attendance", err)
	}

	out := make([]attendance.AttendanceResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, attendance.NewAttendanceResponse(rec))
	}
	return out, nil
}

// ListByMonth implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListByMonth(ctx context.Context, month time.Time) ([]attendance.Attendance, error) {
	from := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, s.policy.Location)
	to := from.AddDate(0, 1, -1)

	records, err := s.AttendanceRepository.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, persistenceError("list attendance by month", err)
	}
	return records, nil
}

// DispatchDueReminders implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) DispatchDueReminders(ctx context.Context, limit int) (attendance.ReminderDispatch, error) {
	now := s.clock.Now()
	due, err := s.reminders.ListDue(ctx, now, limit)
	if err != nil {
		return attendance.ReminderDispatch{}, persistenceError("list due reminders", err)
	}

	var result attendance.ReminderDispatch
	for _, reminder := range due {
		fire, err := s.fireReminder(ctx, reminder, now)
		if err != nil {
			if errors.Is(err, errReminderClaimed) {
				result.Processed++
				continue
			}
			slog.Error("failed to process break reminder",
				"reminder_id", reminder.ID,
				"user_id", reminder.UserID,
				"error", err,
			)
			continue
		}
		result.Processed++
		if !fire {
			continue
		}

		s.notifier.Dispatch(ctx, notification.Message{
			RecipientID: reminder.UserID,
			Type:        notification.TypeBreakReminder,
			Title:       "Break time is over",
			Body:        fmt.Sprintf("Your %s break has ended. Please check out to resume work.", breakLabel(reminder.BreakType)),
			Data: map[string]interface{}{
				"attendance_id": reminder.AttendanceID,
				"break_type":    string(reminder.BreakType),
				"break_start":   reminder.BreakStart.Format(time.RFC3339),
			},
		})
		result.Sent++
	}
	return result, nil
}

// fireReminder claims the reminder and flips breakReminderSent when the
// break it belongs to is still open.
func (s *AttendanceServiceImpl) fireReminder(ctx context.Context, reminder attendance.BreakReminder, now time.Time) (bool, error) {
	var fire bool
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		rec, err := s.loadDay(txCtx, reminder.UserID, reminder.Date)
		if err != nil {
			return err
		}

		status := attendance.ReminderSkipped
		stillOpen := rec.HasOpenBreak() && sameInstant(*rec.BreakStart, reminder.BreakStart) && !rec.BreakReminderSent
		if stillOpen {
			status = attendance.ReminderSent
		}

		claimed, err := s.reminders.MarkProcessed(txCtx, reminder.ID, status, now)
		if err != nil {
			return persistenceError("mark reminder processed", err)
		}
		if !claimed {
			return errReminderClaimed
		}
		if !stillOpen {
			return nil
		}

		rec.BreakReminderSent = true
		if _, err := s.AttendanceRepository.Upsert(txCtx, *rec); err != nil {
			return persistenceError("upsert attendance", err)
		}
		fire = true
		return nil
	})
	return fire, err
}

// sameInstant tolerates the precision stores apply to timestamps.
func sameInstant(a, b time.Time) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d < time.Millisecond
}

func breakLabel(bt attendance.BreakType) string {
	switch bt {
	case attendance.BreakTypeShortBreak:
		return "short"
	case attendance.BreakTypePermission:
		return "permission"
	default:
		return "lunch"
	}
}
