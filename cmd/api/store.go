package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
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
	"github.com/cmlabs-hris/hris-timekeeping/internal/repository/memory"
	"github.com/cmlabs-hris/hris-timekeeping/internal/repository/postgresql"
	"github.com/cmlabs-hris/hris-timekeeping/internal/repository/sqlite"
)

// store bundles the repositories of one backend.
type store struct {
	tx            database.Transactor
	attendance    attendance.AttendanceRepository
	reminders     attendance.BreakReminderRepository
	balances      leave.BalanceRepository
	requests      leave.RequestRepository
	settings      setting.SettingRepository
	notifications notification.Repository
	directory     employee.Directory
	seed          func(ctx context.Context, employees ...employee.Employee) error
	close         func()
}

func openStore(ctx context.Context, cfg config.StoreConfig, dsn string, clock timeutil.Clock) (*store, error) {
	switch cfg.Driver {
	case "postgres":
		return openPostgresStore(ctx, dsn)
	case "sqlite":
		return openSQLiteStore(cfg.SQLitePath, clock)
	case "memory":
		db := memory.NewDB(memory.WithClock(clock))
		return &store{
			tx:            memory.NewTransactor(db),
			attendance:    memory.NewAttendanceRepository(db),
			reminders:     memory.NewBreakReminderRepository(db),
			balances:      memory.NewLeaveBalanceRepository(db),
			requests:      memory.NewLeaveRequestRepository(db),
			settings:      memory.NewSettingRepository(db),
			notifications: memory.NewNotificationRepository(db),
			directory:     memory.NewEmployeeDirectory(db),
			seed: func(_ context.Context, employees ...employee.Employee) error {
				db.SeedEmployees(employees...)
				return nil
			},
			close: func() {},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

func openPostgresStore(ctx context.Context, dsn string) (*store, error) {
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := postgresql.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &store{
		tx:            postgresql.NewTransactor(db),
		attendance:    postgresql.NewAttendanceRepository(db),
		reminders:     postgresql.NewBreakReminderRepository(db),
		balances:      postgresql.NewLeaveBalanceRepository(db),
		requests:      postgresql.NewLeaveRequestRepository(db),
		settings:      postgresql.NewSettingRepository(db),
		notifications: postgresql.NewNotificationRepository(db),
		directory:     postgresql.NewEmployeeDirectory(db),
		seed: func(ctx context.Context, employees ...employee.Employee) error {
			return postgresql.SeedEmployees(ctx, db, employees...)
		},
		close: db.Close,
	}, nil
}

func openSQLiteStore(path string, clock timeutil.Clock) (_ *store, err error) {
	db, err := sqlite.Open(path, sqlite.WithClock(clock))
	if err != nil {
		return nil, err
	}

	s := &store{
		tx: sqlite.NewTransactor(db),
		close: func() {
			if err := db.Close(); err != nil {
				slog.Error("Failed to close sqlite database", "error", err)
			}
		},
	}

	defer func() {
		if err != nil {
			s.close()
		}
	}()

	attendanceRepo, err := sqlite.NewGormAttendanceRepository(db)
	if err != nil {
		return nil, err
	}
	reminderRepo, err := sqlite.NewGormBreakReminderRepository(db)
	if err != nil {
		return nil, err
	}
	balanceRepo, err := sqlite.NewGormLeaveBalanceRepository(db)
	if err != nil {
		return nil, err
	}
	requestRepo, err := sqlite.NewGormLeaveRequestRepository(db)
	if err != nil {
		return nil, err
	}
	settingRepo, err := sqlite.NewGormSettingRepository(db)
	if err != nil {
		return nil, err
	}
	notificationRepo, err := sqlite.NewGormNotificationRepository(db)
	if err != nil {
		return nil, err
	}
	directory, err := sqlite.NewGormEmployeeDirectory(db)
	if err != nil {
		return nil, err
	}

	s.attendance = attendanceRepo
	s.reminders = reminderRepo
	s.balances = balanceRepo
	s.requests = requestRepo
	s.settings = settingRepo
	s.notifications = notificationRepo
	s.directory = directory
	s.seed = directory.Upsert
	return s, nil
}

// seedRecord is the on-disk shape of a directory entry.
type seedRecord struct {
	UserID         string  `json:"user_id"`
	FullName       string  `json:"full_name"`
	Email          *string `json:"email"`
	ManagerID      *string `json:"manager_id"`
	Role           string  `json:"role"`
	JoinedAt       string  `json:"joined_at"` // YYYY-MM-DD
	TelegramChatID *int64  `json:"telegram_chat_id"`
}

// seedDirectory loads employees from a JSON file into the store's directory.
func seedDirectory(ctx context.Context, s *store, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read directory seed: %w", err)
	}

	var records []seedRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return fmt.Errorf("failed to parse directory seed: %w", err)
	}

	employees := make([]employee.Employee, 0, len(records))
	for _, r := range records {
		role := user.Role(r.Role)
		if !role.IsValid() {
			return fmt.Errorf("employee %s: %w", r.UserID, user.ErrInvalidRole)
		}
		emp := employee.Employee{
			UserID:         r.UserID,
			FullName:       r.FullName,
			Email:          r.Email,
			ManagerID:      r.ManagerID,
			Role:           role,
			TelegramChatID: r.TelegramChatID,
		}
		if r.JoinedAt != "" {
			joined, err := time.Parse(timeutil.DateLayout, r.JoinedAt)
			if err != nil {
				return fmt.Errorf("employee %s: invalid joined_at: %w", r.UserID, err)
			}
			emp.JoinedAt = joined
		}
		employees = append(employees, emp)
	}

	if err := s.seed(ctx, employees...); err != nil {
		return fmt.Errorf("failed to seed directory: %w", err)
	}
	slog.Info("Employee directory seeded", "count", len(employees))
	return nil
}
