package sqlite_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/config"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/setting"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/cmlabs-hris/hris-timekeeping/internal/repository/sqlite"
	leaveservice "github.com/cmlabs-hris/hris-timekeeping/internal/service/leave"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

func clock(h, m int) *time.Time {
	t := time.Date(2024, 5, 6, h, m, 0, 0, time.UTC)
	return &t
}

func openDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "timekeeping.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestAttendanceRepository(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	repo, err := sqlite.NewGormAttendanceRepository(db)
	require.NoError(t, err)

	missing, err := repo.FindByUserAndDate(ctx, "u1", day)
	require.NoError(t, err)
	assert.Nil(t, missing)

	permission := attendance.BreakTypePermission
	saved, err := repo.Upsert(ctx, attendance.Attendance{
		UserID: "u1", Date: day, CheckIn: clock(9, 0), BreakStart: clock(10, 0), BreakType: &permission, CheckInCount: 1,
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	saved.BreakEnd = clock(10, 30)
	saved.BreakMinutes = 30
	again, err := repo.Upsert(ctx, attendance.Attendance{
		UserID: "u1", Date: day, CheckIn: saved.CheckIn, BreakStart: saved.BreakStart, BreakEnd: saved.BreakEnd,
		BreakType: saved.BreakType, BreakMinutes: 30, CheckInCount: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)

	found, err := repo.FindByUserAndDate(ctx, "u1", day)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "2024-05-06", found.Date.Format(timeutil.DateLayout))
	assert.True(t, found.BreakEnd.Equal(*clock(10, 30)))
	require.NotNil(t, found.BreakType)
	assert.Equal(t, attendance.BreakTypePermission, *found.BreakType)
	assert.Equal(t, 30, found.BreakMinutes)

	_, err = repo.Upsert(ctx, attendance.Attendance{UserID: "u0", Date: day, CheckIn: clock(8, 0)})
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, attendance.Attendance{UserID: "u1", Date: day.AddDate(0, 0, 1), CheckIn: clock(8, 0)})
	require.NoError(t, err)

	mine, err := repo.ListByUser(ctx, "u1", day, day.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "2024-05-07", mine[0].Date.Format(timeutil.DateLayout))

	all, err := repo.ListByDateRange(ctx, day, day)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "u0", all[0].UserID)

	err = repo.LockDay(ctx, "u1", day)
	assert.ErrorIs(t, err, database.ErrNoTransaction)
}

func TestTransactor(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	tx := sqlite.NewTransactor(db)
	repo, err := sqlite.NewGormAttendanceRepository(db)
	require.NoError(t, err)

	t.Run("rolls back on error", func(t *testing.T) {
		err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := repo.LockDay(ctx, "u1", day); err != nil {
				return err
			}
			if _, err := repo.Upsert(ctx, attendance.Attendance{UserID: "u1", Date: day, CheckIn: clock(9, 0)}); err != nil {
				return err
			}
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)

		found, err := repo.FindByUserAndDate(ctx, "u1", day)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("serializes writers", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 6; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
					if err := repo.LockDay(ctx, "u2", day); err != nil {
						return err
					}
					rec, err := repo.FindByUserAndDate(ctx, "u2", day)
					if err != nil {
						return err
					}
					if rec == nil {
						rec = &attendance.Attendance{UserID: "u2", Date: day, CheckIn: clock(9, 0)}
					}
					rec.CheckInCount++
					_, err = repo.Upsert(ctx, *rec)
					return err
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		found, err := repo.FindByUserAndDate(ctx, "u2", day)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, 6, found.CheckInCount)
	})
}

func TestBreakReminderRepository(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	repo, err := sqlite.NewGormBreakReminderRepository(db)
	require.NoError(t, err)

	first, err := repo.Create(ctx, attendance.BreakReminder{
		AttendanceID: "a1", UserID: "u1", Date: day, BreakStart: *clock(12, 0), BreakType: attendance.BreakTypeLunch, FireAt: *clock(13, 0),
	})
	require.NoError(t, err)
	_, err = repo.Create(ctx, attendance.BreakReminder{
		AttendanceID: "a2", UserID: "u2", Date: day, BreakStart: *clock(12, 30), BreakType: attendance.BreakTypeShortBreak, FireAt: *clock(12, 45),
	})
	require.NoError(t, err)

	due, err := repo.ListDue(ctx, *clock(12, 50), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "u2", due[0].UserID)

	due, err = repo.ListDue(ctx, *clock(13, 0), 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "u2", due[0].UserID)

	ok, err := repo.MarkProcessed(ctx, first.ID, attendance.ReminderSent, *clock(13, 0))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.MarkProcessed(ctx, first.ID, attendance.ReminderSent, *clock(13, 1))
	require.NoError(t, err)
	assert.False(t, ok)

	due, err = repo.ListDue(ctx, *clock(14, 0), 0)
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestSettingAndNotificationRepositories(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	settings, err := sqlite.NewGormSettingRepository(db)
	require.NoError(t, err)

	_, err = settings.Get(ctx, setting.KeyPermissionDefaultMinutes)
	assert.ErrorIs(t, err, setting.ErrSettingNotFound)
	require.NoError(t, settings.Set(ctx, setting.Setting{Key: setting.KeyPermissionDefaultMinutes, Value: "20", UpdatedAt: time.Now()}))
	require.NoError(t, settings.Set(ctx, setting.Setting{Key: setting.KeyPermissionDefaultMinutes, Value: "25", UpdatedAt: time.Now()}))
	got, err := settings.Get(ctx, setting.KeyPermissionDefaultMinutes)
	require.NoError(t, err)
	assert.Equal(t, "25", got.Value)

	notifications, err := sqlite.NewGormNotificationRepository(db)
	require.NoError(t, err)

	base := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	require.NoError(t, notifications.CreateBatch(ctx, []*notification.Notification{
		{RecipientID: "u1", Type: notification.TypeLateArrival, Title: "Late", Message: "late", CreatedAt: base},
		{RecipientID: "u1", Type: notification.TypeBreakReminder, Title: "Break", Message: "over", Data: map[string]interface{}{"break_type": "LUNCH"}, CreatedAt: base.Add(time.Hour)},
	}))

	list, total, err := notifications.GetByUserID(ctx, "u1", 1, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 1)
	assert.Equal(t, "Break", list[0].Title)
	assert.Equal(t, "LUNCH", list[0].Data["break_type"])

	require.NoError(t, notifications.MarkAsRead(ctx, []string{list[0].ID}, "u1"))
	unread, err := notifications.GetUnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	_, total, err = notifications.GetByUserID(ctx, "u1", 1, 10, true)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	require.NoError(t, notifications.MarkAllAsRead(ctx, "u1"))
	unread, err = notifications.GetUnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
}

func TestTimestampsFollowInjectedClock(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	manual := timeutil.NewManualClock(start)
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "timekeeping.db"), sqlite.WithClock(manual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	records, err := sqlite.NewGormAttendanceRepository(db)
	require.NoError(t, err)
	created, err := records.Upsert(ctx, attendance.Attendance{UserID: "u1", Date: day, CheckIn: clock(9, 0), CheckInCount: 1})
	require.NoError(t, err)
	assert.True(t, created.CreatedAt.Equal(start))

	manual.Advance(2 * time.Hour)
	created.BreakMinutes = 10
	updated, err := records.Upsert(ctx, created)
	require.NoError(t, err)
	assert.True(t, updated.CreatedAt.Equal(start))
	assert.True(t, updated.UpdatedAt.Equal(start.Add(2*time.Hour)))

	reminders, err := sqlite.NewGormBreakReminderRepository(db)
	require.NoError(t, err)
	reminder, err := reminders.Create(ctx, attendance.BreakReminder{
		AttendanceID: created.ID, UserID: "u1", Date: day, BreakStart: *clock(11, 0), BreakType: attendance.BreakTypeLunch, FireAt: *clock(12, 0),
	})
	require.NoError(t, err)
	assert.True(t, reminder.CreatedAt.Equal(start.Add(2*time.Hour)))

	notifications, err := sqlite.NewGormNotificationRepository(db)
	require.NoError(t, err)
	require.NoError(t, notifications.Create(ctx, &notification.Notification{
		RecipientID: "u1", Type: notification.TypeLateArrival, Title: "Late", Message: "late",
	}))
	manual.Advance(30 * time.Minute)
	require.NoError(t, notifications.MarkAllAsRead(ctx, "u1"))

	list, _, err := notifications.GetByUserID(ctx, "u1", 1, 10, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].CreatedAt.Equal(start.Add(2*time.Hour)))
	require.NotNil(t, list[0].ReadAt)
	assert.True(t, list[0].ReadAt.Equal(start.Add(150*time.Minute)))
}

type discardDispatcher struct{}

func (discardDispatcher) Dispatch(context.Context, notification.Message) {}

func TestLeaveApprovalOnSQLite(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	directory, err := sqlite.NewGormEmployeeDirectory(db)
	require.NoError(t, err)
	balances, err := sqlite.NewGormLeaveBalanceRepository(db)
	require.NoError(t, err)
	requests, err := sqlite.NewGormLeaveRequestRepository(db)
	require.NoError(t, err)

	manager := "mgr"
	joined := time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, directory.Upsert(ctx,
		employee.Employee{UserID: "emp", FullName: "Rina", Role: user.RoleEmployee, ManagerID: &manager, JoinedAt: joined},
		employee.Employee{UserID: "mgr", FullName: "Sari", Role: user.RoleManager, JoinedAt: joined},
		employee.Employee{UserID: "hr", FullName: "Wulan", Role: user.RoleHR, JoinedAt: joined},
	))

	now := timeutil.NewManualClock(time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC))
	quota := leaveservice.NewQuotaService(balances, directory, leaveservice.NewQuotaCalculator(config.LeaveConfig{CasualEntitlement: 12, SickEntitlement: 12}))
	requestService := leaveservice.NewRequestService(requests, quota, directory, discardDispatcher{})
	svc := leaveservice.NewLeaveService(sqlite.NewTransactor(db), requests, directory, quota, requestService, time.UTC, now)

	submitted, err := svc.SubmitLeaveRequest(ctx, "emp", leave.SubmitLeaveRequest{
		Type: leave.LeaveTypeCasual, StartDate: "2024-05-13", EndDate: "2024-05-15", Reason: "family event",
	})
	require.NoError(t, err)

	const workers = 4
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.UpdateLeaveStatus(ctx, submitted.ID, "hr", leave.UpdateLeaveStatusRequest{Status: leave.StatusApproved})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, leave.ErrRequestNotPending)
	}
	assert.Equal(t, 1, succeeded)

	balance, err := svc.GetLeaveBalance(ctx, "emp")
	require.NoError(t, err)
	assert.Equal(t, 3, balance.Casual.Used)

	history, err := requests.ListHistory(ctx, submitted.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, leave.StatusPendingManager, history[0].ToStatus)
	assert.Equal(t, leave.StatusApproved, history[1].ToStatus)
}
