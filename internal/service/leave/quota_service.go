package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
)

// QuotaService owns reads and writes of the balance ledger. Every method
// expects to run inside a transaction.
type QuotaService struct {
	leave.BalanceRepository
	directory  employee.Directory
	calculator *QuotaCalculator
}

func NewQuotaService(balances leave.BalanceRepository, directory employee.Directory, calculator *QuotaCalculator) *QuotaService {
	return &QuotaService{
		BalanceRepository: balances,
		directory:         directory,
		calculator:        calculator,
	}
}

// EnsureBalance locks (userID, year) and returns its balance, creating the
// prorated row on first use.
func (s *QuotaService) EnsureBalance(ctx context.Context, userID string, year int, now time.Time) (leave.LeaveBalance, error) {
	if err := s.BalanceRepository.LockBalance(ctx, userID, year); err != nil {
		return leave.LeaveBalance{}, fmt.Errorf("%w: lock balance: %w", leave.ErrPersistence, err)
	}

	existing, err := s.BalanceRepository.FindBalance(ctx, userID, year)
	if err != nil {
		return leave.LeaveBalance{}, fmt.Errorf("%w: find balance: %w", leave.ErrPersistence, err)
	}
	if existing != nil {
		return *existing, nil
	}

	emp, err := s.directory.GetByUserID(ctx, userID)
	if err != nil {
		return leave.LeaveBalance{}, fmt.Errorf("failed to get employee for balance: %w", err)
	}

	balance := s.calculator.InitialBalance(emp, year, now)
	if err := s.BalanceRepository.UpsertBalance(ctx, balance); err != nil {
		return leave.LeaveBalance{}, fmt.Errorf("%w: create balance: %w", leave.ErrPersistence, err)
	}
	return balance, nil
}

// CheckSufficient fails with *leave.InsufficientBalanceError when days exceed
// what is left. Unpaid leave always passes.
func (s *QuotaService) CheckSufficient(balance leave.LeaveBalance, leaveType leave.LeaveType, days int) error {
	if !leaveType.HasQuota() {
		return nil
	}
	if remaining := balance.Remaining(leaveType); days > remaining {
		return &leave.InsufficientBalanceError{Type: leaveType, Available: remaining, Requested: days}
	}
	return nil
}

// Debit charges an approved request against its year's balance.
func (s *QuotaService) Debit(ctx context.Context, request leave.LeaveRequest, now time.Time) (leave.LeaveBalance, error) {
	balance, err := s.EnsureBalance(ctx, request.UserID, request.LeaveYear, now)
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	if err := s.CheckSufficient(balance, request.Type, request.Days); err != nil {
		return leave.LeaveBalance{}, err
	}

	balance.Debit(request.Type, request.Days, now)
	if err := s.BalanceRepository.UpsertBalance(ctx, balance); err != nil {
		return leave.LeaveBalance{}, fmt.Errorf("%w: debit balance: %w", leave.ErrPersistence, err)
	}
	return balance, nil
}
