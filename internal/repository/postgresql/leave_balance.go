package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveBalanceRepository struct {
	db *database.DB
}

func NewLeaveBalanceRepository(db *database.DB) leave.BalanceRepository {
	return &leaveBalanceRepository{db: db}
}

// LockBalance implements leave.BalanceRepository. The row may not exist yet,
// so the lock is advisory rather than FOR UPDATE.
func (r *leaveBalanceRepository) LockBalance(ctx context.Context, userID string, year int) error {
	return advisoryLock(ctx, r.db, "leave_balance:"+userID+"|"+strconv.Itoa(year))
}

// FindBalance implements leave.BalanceRepository.
func (r *leaveBalanceRepository) FindBalance(ctx context.Context, userID string, year int) (*leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT user_id, leave_year, casual, casual_used, sick, sick_used, year_joined, last_updated
		FROM leave_balances
		WHERE user_id = $1 AND leave_year = $2`

	var b leave.LeaveBalance
	err := q.QueryRow(ctx, query, userID, year).Scan(
		&b.UserID, &b.LeaveYear, &b.Casual, &b.CasualUsed, &b.Sick, &b.SickUsed, &b.YearJoined, &b.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get leave balance: %w", err)
	}
	return &b, nil
}

// UpsertBalance implements leave.BalanceRepository.
func (r *leaveBalanceRepository) UpsertBalance(ctx context.Context, b leave.LeaveBalance) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_balances (user_id, leave_year, casual, casual_used, sick, sick_used, year_joined, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, leave_year) DO UPDATE SET
			casual = EXCLUDED.casual,
			casual_used = EXCLUDED.casual_used,
			sick = EXCLUDED.sick,
			sick_used = EXCLUDED.sick_used,
			year_joined = EXCLUDED.year_joined,
			last_updated = EXCLUDED.last_updated`

	_, err := q.Exec(ctx, query,
		b.UserID, b.LeaveYear, b.Casual, b.CasualUsed, b.Sick, b.SickUsed, b.YearJoined, b.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert leave balance: %w", err)
	}
	return nil
}
