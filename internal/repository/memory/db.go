// Package memory is an in-process store. Transactions serialize on keyed
// locks and roll back through an undo log.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/setting"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
)

type DB struct {
	mu    sync.RWMutex
	locks *database.KeyedMutex
	clock timeutil.Clock

	attendances map[string]attendance.Attendance // by id
	dayIndex    map[string]string                // user|date -> id
	reminders   map[string]attendance.BreakReminder
	balances    map[string]leave.LeaveBalance // user|year
	requests    map[string]leave.LeaveRequest
	history     []leave.ApprovalHistory
	settings    map[string]setting.Setting
	notifs      []*notification.Notification
	employees   map[string]employee.Employee
}

// Option configures a DB.
type Option func(*DB)

// WithClock sets the clock used to stamp created_at, updated_at and read_at.
func WithClock(clock timeutil.Clock) Option {
	return func(db *DB) { db.clock = clock }
}

func NewDB(opts ...Option) *DB {
	db := &DB{
		locks:       database.NewKeyedMutex(),
		clock:       timeutil.SystemClock(),
		attendances: make(map[string]attendance.Attendance),
		dayIndex:    make(map[string]string),
		reminders:   make(map[string]attendance.BreakReminder),
		balances:    make(map[string]leave.LeaveBalance),
		requests:    make(map[string]leave.LeaveRequest),
		settings:    make(map[string]setting.Setting),
		employees:   make(map[string]employee.Employee),
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

type txKey struct{}

type txState struct {
	mu   sync.Mutex
	undo []func()
}

type transactor struct {
	db *DB
}

func NewTransactor(db *DB) database.Transactor {
	return &transactor{db: db}
}

// WithinTransaction implements database.Transactor.
func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}

	state := &txState{}
	txCtx, release := database.WithLockSet(context.WithValue(ctx, txKey{}, state))
	defer release()

	defer func() {
		if p := recover(); p != nil {
			t.db.rollback(state)
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		t.db.rollback(state)
		return err
	}
	return nil
}

func (db *DB) rollback(state *txState) {
	state.mu.Lock()
	defer state.mu.Unlock()
	db.mu.Lock()
	defer db.mu.Unlock()
	for i := len(state.undo) - 1; i >= 0; i-- {
		state.undo[i]()
	}
	state.undo = nil
}

// write applies fn under the store lock and, inside a transaction, records
// undo so a failed transaction leaves no trace.
func (db *DB) write(ctx context.Context, fn func(), undo func()) {
	db.mu.Lock()
	fn()
	db.mu.Unlock()
	db.recordUndo(ctx, undo)
}

func (db *DB) recordUndo(ctx context.Context, undo func()) {
	if state, ok := ctx.Value(txKey{}).(*txState); ok && undo != nil {
		state.mu.Lock()
		state.undo = append(state.undo, undo)
		state.mu.Unlock()
	}
}

func (db *DB) lock(ctx context.Context, key string) error {
	if err := database.LockInTx(ctx, db.locks, key); err != nil {
		return fmt.Errorf("acquire lock %s: %w", key, err)
	}
	return nil
}

func dayKey(userID string, day time.Time) string {
	return userID + "|" + day.Format("2006-01-02")
}
