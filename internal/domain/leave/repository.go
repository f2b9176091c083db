package leave

import (
	"context"
)

// BalanceRepository persists one balance row per (userID, year).
type BalanceRepository interface {
	// LockBalance serializes writers of (userID, year) until the surrounding
	// transaction ends.
	LockBalance(ctx context.Context, userID string, year int) error

	// FindBalance returns nil, nil when no row exists yet.
	FindBalance(ctx context.Context, userID string, year int) (*LeaveBalance, error)

	UpsertBalance(ctx context.Context, balance LeaveBalance) error
}

// RequestRepository persists leave requests and their approval trail.
type RequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)

	// GetByID returns ErrLeaveRequestNotFound when id is unknown.
	GetByID(ctx context.Context, id string) (LeaveRequest, error)

	// GetByIDForUpdate is GetByID holding a row lock until the transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (LeaveRequest, error)

	Update(ctx context.Context, request LeaveRequest) error

	// ListByUser returns the user's requests, newest first.
	ListByUser(ctx context.Context, userID string) ([]LeaveRequest, error)

	// ListByStatus returns requests in any of statuses, oldest first.
	ListByStatus(ctx context.Context, statuses ...Status) ([]LeaveRequest, error)

	AppendHistory(ctx context.Context, entry ApprovalHistory) error
	ListHistory(ctx context.Context, requestID string) ([]ApprovalHistory, error)
}
