// Package sqlite is a single-file store built on gorm for small deployments
// and local development.
package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	sqlitedriver "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DB struct {
	gorm  *gorm.DB
	locks *database.KeyedMutex
	clock timeutil.Clock
}

// Option configures a DB.
type Option func(*DB)

// WithClock sets the clock behind gorm's NowFunc and the explicit timestamps.
func WithClock(clock timeutil.Clock) Option {
	return func(db *DB) { db.clock = clock }
}

// Open opens the SQLite file at path. SQLite allows one writer, so the pool
// is pinned to a single connection and transactions run one at a time.
func Open(path string, opts ...Option) (*DB, error) {
	out := &DB{locks: database.NewKeyedMutex(), clock: timeutil.SystemClock()}
	for _, opt := range opts {
		opt(out)
	}

	db, err := gorm.Open(sqlitedriver.Open(path), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
		NowFunc:                                  out.now,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		slog.Warn("Failed to enable sqlite foreign keys", "error", err)
	}

	out.gorm = db
	return out, nil
}

func (db *DB) now() time.Time {
	return db.clock.Now().UTC()
}

func (db *DB) Close() error {
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type txKey struct{}

// conn returns the transaction carried by ctx, or the shared handle.
func (db *DB) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.gorm.WithContext(ctx)
}

func (db *DB) lock(ctx context.Context, key string) error {
	if err := database.LockInTx(ctx, db.locks, key); err != nil {
		return fmt.Errorf("acquire lock %s: %w", key, err)
	}
	return nil
}

type transactor struct {
	db *DB
}

func NewTransactor(db *DB) database.Transactor {
	return &transactor{db: db}
}

// WithinTransaction implements database.Transactor. Nested calls join the
// outer transaction.
func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}

	lockCtx, release := database.WithLockSet(ctx)
	defer release()

	return t.db.gorm.WithContext(lockCtx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(lockCtx, txKey{}, tx))
	})
}
