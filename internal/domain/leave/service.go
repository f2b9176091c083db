package leave

import (
	"context"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
)

type LeaveService interface {
	// SubmitLeaveRequest validates the range, checks the balance and files the
	// request at PendingManager.
	SubmitLeaveRequest(ctx context.Context, userID string, req SubmitLeaveRequest) (LeaveRequestResponse, error)

	// UpdateLeaveStatus applies a status change and, on Approved, debits the
	// balance in the same transaction.
	UpdateLeaveStatus(ctx context.Context, requestID string, approvedBy string, req UpdateLeaveStatusRequest) (LeaveRequestResponse, error)

	// DecideLeave approves or rejects the request at its current stage on
	// behalf of actor.
	DecideLeave(ctx context.Context, requestID string, actor user.Principal, req DecideLeaveRequest) (LeaveRequestResponse, error)

	GetLeaveRequest(ctx context.Context, requestID string, actor user.Principal) (LeaveRequestResponse, error)
	GetMyLeaveRequests(ctx context.Context, userID string) ([]LeaveRequestResponse, error)

	// ListPendingApprovals returns the requests waiting at actor's stage.
	ListPendingApprovals(ctx context.Context, actor user.Principal) ([]LeaveRequestResponse, error)

	// GetLeaveBalance returns this year's balance, creating it on first use.
	GetLeaveBalance(ctx context.Context, userID string) (LeaveBalanceResponse, error)
}
