package postgresql_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/setting"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)

func clock(h, m int) *time.Time {
	t := time.Date(2024, 5, 6, h, m, 0, 0, time.UTC)
	return &t
}

func TestAttendanceRepository_UpsertAndFind(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(setup.DB)

	missing, err := repo.FindByUserAndDate(ctx, "u1", day)
	require.NoError(t, err)
	assert.Nil(t, missing)

	lunch := attendance.BreakTypeLunch
	saved, err := repo.Upsert(ctx, attendance.Attendance{
		UserID:       "u1",
		Date:         day,
		CheckIn:      clock(9, 0),
		BreakStart:   clock(12, 30),
		BreakType:    &lunch,
		CheckInCount: 1,
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	saved.BreakEnd = clock(13, 15)
	saved.BreakMinutes = 45
	saved.TotalWorkHours = 8.67
	again, err := repo.Upsert(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)

	found, err := repo.FindByUserAndDate(ctx, "u1", day)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "2024-05-06", found.Date.Format("2006-01-02"))
	assert.True(t, found.CheckIn.Equal(*clock(9, 0)))
	assert.True(t, found.BreakEnd.Equal(*clock(13, 15)))
	require.NotNil(t, found.BreakType)
	assert.Equal(t, attendance.BreakTypeLunch, *found.BreakType)
	assert.Equal(t, 45, found.BreakMinutes)
	assert.InDelta(t, 8.67, found.TotalWorkHours, 0.001)

	list, err := repo.ListByUser(ctx, "u1", day.AddDate(0, 0, -1), day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}

func TestAttendanceRepository_LockDayRequiresTransaction(t *testing.T) {
	setup := NewTestDatabase(t)
	repo := postgresql.NewAttendanceRepository(setup.DB)

	err := repo.LockDay(context.Background(), "u1", day)
	assert.ErrorIs(t, err, database.ErrNoTransaction)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	tx := postgresql.NewTransactor(setup.DB)
	repo := postgresql.NewAttendanceRepository(setup.DB)

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.LockDay(ctx, "u1", day))
		_, err := repo.Upsert(ctx, attendance.Attendance{UserID: "u1", Date: day, CheckIn: clock(9, 0), CheckInCount: 1})
		require.NoError(t, err)
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	found, err := repo.FindByUserAndDate(ctx, "u1", day)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestTransactor_LockDaySerializesWriters(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	tx := postgresql.NewTransactor(setup.DB)
	repo := postgresql.NewAttendanceRepository(setup.DB)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
				if err := repo.LockDay(ctx, "u1", day); err != nil {
					return err
				}
				rec, err := repo.FindByUserAndDate(ctx, "u1", day)
				if err != nil {
					return err
				}
				if rec == nil {
					rec = &attendance.Attendance{UserID: "u1", Date: day, CheckIn: clock(9, 0)}
				}
				rec.CheckInCount++
				_, err = repo.Upsert(ctx, *rec)
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	found, err := repo.FindByUserAndDate(ctx, "u1", day)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 5, found.CheckInCount)
}

func TestBreakReminderRepository_MarkProcessedOnce(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	records := postgresql.NewAttendanceRepository(setup.DB)
	reminders := postgresql.NewBreakReminderRepository(setup.DB)

	rec, err := records.Upsert(ctx, attendance.Attendance{UserID: "u1", Date: day, CheckIn: clock(9, 0), BreakStart: clock(12, 0)})
	require.NoError(t, err)

	rem, err := reminders.Create(ctx, attendance.BreakReminder{
		AttendanceID: rec.ID,
		UserID:       "u1",
		Date:         day,
		BreakStart:   *clock(12, 0),
		BreakType:    attendance.BreakTypeLunch,
		FireAt:       *clock(13, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, attendance.ReminderPending, rem.Status)

	due, err := reminders.ListDue(ctx, *clock(12, 59), 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = reminders.ListDue(ctx, *clock(13, 0), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, attendance.BreakTypeLunch, due[0].BreakType)

	ok, err := reminders.MarkProcessed(ctx, rem.ID, attendance.ReminderSent, *clock(13, 1))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = reminders.MarkProcessed(ctx, rem.ID, attendance.ReminderSkipped, *clock(13, 2))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLeaveRepositories(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	tx := postgresql.NewTransactor(setup.DB)
	balances := postgresql.NewLeaveBalanceRepository(setup.DB)
	requests := postgresql.NewLeaveRequestRepository(setup.DB)
	now := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

	t.Run("balance upsert", func(t *testing.T) {
		none, err := balances.FindBalance(ctx, "u1", 2024)
		require.NoError(t, err)
		assert.Nil(t, none)

		err = tx.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := balances.LockBalance(ctx, "u1", 2024); err != nil {
				return err
			}
			return balances.UpsertBalance(ctx, leave.LeaveBalance{
				UserID: "u1", LeaveYear: 2024, Casual: 12, Sick: 12, YearJoined: 2020, LastUpdated: now,
			})
		})
		require.NoError(t, err)

		b, err := balances.FindBalance(ctx, "u1", 2024)
		require.NoError(t, err)
		require.NotNil(t, b)
		b.Debit(leave.LeaveTypeCasual, 2, now)
		require.NoError(t, balances.UpsertBalance(ctx, *b))

		b, err = balances.FindBalance(ctx, "u1", 2024)
		require.NoError(t, err)
		assert.Equal(t, 10, b.Remaining(leave.LeaveTypeCasual))
	})

	t.Run("request lifecycle", func(t *testing.T) {
		created, err := requests.Create(ctx, leave.LeaveRequest{
			UserID:    "u1",
			Type:      leave.LeaveTypeCasual,
			StartDate: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC),
			Days:      2,
			LeaveYear: 2024,
			Reason:    "family",
			Status:    leave.StatusPendingManager,
		})
		require.NoError(t, err)

		require.NoError(t, requests.AppendHistory(ctx, leave.ApprovalHistory{
			RequestID: created.ID, ToStatus: leave.StatusPendingManager, ActorID: "u1", CreatedAt: now,
		}))

		err = tx.WithinTransaction(ctx, func(ctx context.Context) error {
			req, err := requests.GetByIDForUpdate(ctx, created.ID)
			if err != nil {
				return err
			}
			if err := req.Apply(leave.StatusPendingHR, nil, now); err != nil {
				return err
			}
			if err := requests.Update(ctx, req); err != nil {
				return err
			}
			return requests.AppendHistory(ctx, leave.ApprovalHistory{
				RequestID: req.ID, FromStatus: leave.StatusPendingManager, ToStatus: leave.StatusPendingHR, ActorID: "m1", CreatedAt: now,
			})
		})
		require.NoError(t, err)

		got, err := requests.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, leave.StatusPendingHR, got.Status)
		assert.True(t, got.ApprovedByManager)
		assert.Equal(t, "2024-05-13", got.EndDate.Format("2006-01-02"))

		history, err := requests.ListHistory(ctx, created.ID)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, leave.Status(""), history[0].FromStatus)
		assert.Equal(t, leave.StatusPendingHR, history[1].ToStatus)

		pending, err := requests.ListByStatus(ctx, leave.StatusPendingHR, leave.StatusPendingMD)
		require.NoError(t, err)
		assert.Len(t, pending, 1)

		mine, err := requests.ListByUser(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, mine, 1)

		_, err = requests.GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound)

		_, err = requests.GetByIDForUpdate(ctx, created.ID)
		assert.ErrorIs(t, err, database.ErrNoTransaction)
	})
}

func TestSettingRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewSettingRepository(setup.DB)

	_, err := repo.Get(ctx, setting.KeyPermissionDefaultMinutes)
	assert.ErrorIs(t, err, setting.ErrSettingNotFound)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Set(ctx, setting.Setting{Key: setting.KeyPermissionDefaultMinutes, Value: "30", UpdatedAt: now}))
	require.NoError(t, repo.Set(ctx, setting.Setting{Key: setting.KeyPermissionDefaultMinutes, Value: "45", UpdatedAt: now}))

	got, err := repo.Get(ctx, setting.KeyPermissionDefaultMinutes)
	require.NoError(t, err)
	assert.Equal(t, "45", got.Value)
}

func TestNotificationRepository(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewNotificationRepository(setup.DB)

	base := time.Now().UTC().Truncate(time.Second)
	batch := []*notification.Notification{
		{RecipientID: "u1", Type: notification.TypeLateArrival, Title: "Late", Message: "late by 10m", CreatedAt: base},
		{RecipientID: "u1", Type: notification.TypeLeaveApproved, Title: "Approved", Message: "ok", Data: map[string]interface{}{"days": 2}, CreatedAt: base.Add(time.Minute)},
		{RecipientID: "u2", Type: notification.TypeLeaveRequest, Title: "Request", Message: "pending", CreatedAt: base},
	}
	require.NoError(t, repo.CreateBatch(ctx, batch))

	list, total, err := repo.GetByUserID(ctx, "u1", 1, 10, false)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, "Approved", list[0].Title)
	assert.EqualValues(t, 2, list[0].Data["days"])

	require.NoError(t, repo.MarkAsRead(ctx, []string{list[0].ID, "bogus"}, "u1"))
	unread, err := repo.GetUnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	require.NoError(t, repo.MarkAllAsRead(ctx, "u1"))
	unread, err = repo.GetUnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, unread)

	others, err := repo.GetUnreadCount(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 1, others)
}

func TestEmployeeDirectory(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	dir := postgresql.NewEmployeeDirectory(setup.DB)

	manager := "m1"
	chat := int64(42)
	require.NoError(t, postgresql.SeedEmployees(ctx, setup.DB,
		employee.Employee{UserID: "m1", FullName: "Maya", Role: user.RoleManager, JoinedAt: day},
		employee.Employee{UserID: "u1", FullName: "Umar", Role: user.RoleEmployee, ManagerID: &manager, JoinedAt: day, TelegramChatID: &chat},
	))

	e, err := dir.GetByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Umar", e.FullName)
	require.NotNil(t, e.ManagerID)
	assert.Equal(t, "m1", *e.ManagerID)
	require.NotNil(t, e.TelegramChatID)
	assert.Equal(t, int64(42), *e.TelegramChatID)

	managers, err := dir.ListByRole(ctx, user.RoleManager)
	require.NoError(t, err)
	require.Len(t, managers, 1)
	assert.Equal(t, "m1", managers[0].UserID)

	_, err = dir.GetByUserID(ctx, "ghost")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}
