package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
)

type LeaveServiceImpl struct {
	tx database.Transactor
	leave.RequestRepository
	employee.Directory
	quotaService   *QuotaService
	requestService *RequestService
	location       *time.Location
	clock          timeutil.Clock
}

func NewLeaveService(
	tx database.Transactor,
	requests leave.RequestRepository,
	directory employee.Directory,
	quotaService *QuotaService,
	requestService *RequestService,
	location *time.Location,
	clock timeutil.Clock,
) leave.LeaveService {
	if location == nil {
		location = time.Local
	}
	if clock == nil {
		clock = timeutil.SystemClock()
	}
	return &LeaveServiceImpl{
		tx:                tx,
		RequestRepository: requests,
		Directory:         directory,
		quotaService:      quotaService,
		requestService:    requestService,
		location:          location,
		clock:             clock,
	}
}

// SubmitLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) SubmitLeaveRequest(ctx context.Context, userID string, req leave.SubmitLeaveRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	start, end := req.Dates()
	days := timeutil.CountWeekdays(start, end)
	if days == 0 {
		return leave.LeaveRequestResponse{}, leave.ErrNoWorkingDays
	}

	now := l.clock.Now()
	request := leave.LeaveRequest{
		UserID:    userID,
		Type:      req.Type,
		StartDate: start,
		EndDate:   end,
		Days:      days,
		LeaveYear: start.Year(),
		Reason:    req.Reason,
		Status:    leave.StatusPendingManager,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var history []leave.ApprovalHistory
	err := l.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if request.Type.HasQuota() {
			balance, err := l.quotaService.EnsureBalance(txCtx, userID, request.LeaveYear, now)
			if err != nil {
				return err
			}
			if err := l.quotaService.CheckSufficient(balance, request.Type, days); err != nil {
				return err
			}
		}

		created, err := l.RequestRepository.Create(txCtx, request)
		if err != nil {
			return fmt.Errorf("%w: create leave request: %w", leave.ErrPersistence, err)
		}
		request = created

		entry := leave.ApprovalHistory{
			RequestID: request.ID,
			ToStatus:  leave.StatusPendingManager,
			ActorID:   userID,
			CreatedAt: now,
		}
		if err := l.RequestRepository.AppendHistory(txCtx, entry); err != nil {
			return fmt.Errorf("%w: append approval history: %w", leave.ErrPersistence, err)
		}
		history = append(history, entry)
		return nil
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	l.requestService.NotifySubmitted(ctx, request)

	slog.Info("leave request submitted",
		"request_id", request.ID,
		"user_id", userID,
		"type", request.Type,
		"days", request.Days,
	)
	return leave.NewLeaveRequestResponse(request, history), nil
}

// UpdateLeaveStatus implements leave.LeaveService.
func (l *LeaveServiceImpl) UpdateLeaveStatus(ctx context.Context, requestID string, approvedBy string, req leave.UpdateLeaveStatusRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	return l.transition(ctx, requestID, approvedBy, "", req.Status, req.Reason)
}

// DecideLeave implements leave.LeaveService.
func (l *LeaveServiceImpl) DecideLeave(ctx context.Context, requestID string, actor user.Principal, req leave.DecideLeaveRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	request, err := l.RequestRepository.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if !request.Status.IsPending() {
		return leave.LeaveRequestResponse{}, leave.ErrRequestNotPending
	}
	if err := l.authorizeStage(ctx, request, actor); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	to := leave.StatusRejected
	if req.Approve() {
		to, _ = request.Status.Next()
	}
	return l.transition(ctx, requestID, actor.UserID, request.Status, to, req.Comment)
}

// authorizeStage checks actor may decide request at its current stage.
func (l *LeaveServiceImpl) authorizeStage(ctx context.Context, request leave.LeaveRequest, actor user.Principal) error {
	if actor.UserID == request.UserID {
		return leave.ErrSelfApproval
	}
	if actor.IsAdmin() {
		return nil
	}

	role, ok := request.Status.ApproverRole()
	if !ok || actor.Role != role {
		return leave.ErrNotApprover
	}
	if role == user.RoleManager {
		requester, err := l.Directory.GetByUserID(ctx, request.UserID)
		if err != nil {
			return fmt.Errorf("failed to get requester: %w", err)
		}
		if requester.ManagerID == nil || *requester.ManagerID != actor.UserID {
			return leave.ErrNotApprover
		}
	}
	return nil
}

// transition locks the request and applies the change. A non-empty expected
// status must still match once the lock is held.
func (l *LeaveServiceImpl) transition(ctx context.Context, requestID, actorID string, expected, to leave.Status, comment *string) (leave.LeaveRequestResponse, error) {
	now := l.clock.Now()

	var request leave.LeaveRequest
	var history []leave.ApprovalHistory
	err := l.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		request, err = l.RequestRepository.GetByIDForUpdate(txCtx, requestID)
		if err != nil {
			return err
		}
		if actorID == request.UserID {
			return leave.ErrSelfApproval
		}
		if expected != "" && request.Status != expected {
			return leave.ErrStatusChanged
		}

		if err := l.requestService.Transition(txCtx, &request, to, actorID, comment, now); err != nil {
			return err
		}

		history, err = l.RequestRepository.ListHistory(txCtx, request.ID)
		if err != nil {
			return fmt.Errorf("%w: list approval history: %w", leave.ErrPersistence, err)
		}
		return nil
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	l.requestService.NotifyTransition(ctx, request)

	slog.Info("leave request status changed",
		"request_id", request.ID,
		"actor_id", actorID,
		"status", request.Status,
	)
	return leave.NewLeaveRequestResponse(request, history), nil
}

// GetLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) GetLeaveRequest(ctx context.Context, requestID string, actor user.Principal) (leave.LeaveRequestResponse, error) {
	request, err := l.RequestRepository.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	if request.UserID != actor.UserID && !l.canView(ctx, request, actor) {
		return leave.LeaveRequestResponse{}, leave.ErrUnauthorized
	}

	history, err := l.RequestRepository.ListHistory(ctx, request.ID)
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to list approval history: %w", err)
	}
	return leave.NewLeaveRequestResponse(request, history), nil
}

func (l *LeaveServiceImpl) canView(ctx context.Context, request leave.LeaveRequest, actor user.Principal) bool {
	switch actor.Role {
	case user.RoleAdmin, user.RoleHR, user.RoleMD:
		return true
	case user.RoleManager:
		requester, err := l.Directory.GetByUserID(ctx, request.UserID)
		return err == nil && requester.ManagerID != nil && *requester.ManagerID == actor.UserID
	}
	return false
}

// GetMyLeaveRequests implements leave.LeaveService.
func (l *LeaveServiceImpl) GetMyLeaveRequests(ctx context.Context, userID string) ([]leave.LeaveRequestResponse, error) {
	requests, err := l.RequestRepository.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}

	responses := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, r := range requests {
		responses = append(responses, leave.NewLeaveRequestResponse(r, nil))
	}
	return responses, nil
}

// ListPendingApprovals implements leave.LeaveService.
func (l *LeaveServiceImpl) ListPendingApprovals(ctx context.Context, actor user.Principal) ([]leave.LeaveRequestResponse, error) {
	var statuses []leave.Status
	switch actor.Role {
	case user.RoleAdmin:
		statuses = []leave.Status{leave.StatusPendingManager, leave.StatusPendingHR, leave.StatusPendingMD}
	case user.RoleManager:
		statuses = []leave.Status{leave.StatusPendingManager}
	case user.RoleHR:
		statuses = []leave.Status{leave.StatusPendingHR}
	case user.RoleMD:
		statuses = []leave.Status{leave.StatusPendingMD}
	default:
		return nil, leave.ErrNotApprover
	}

	requests, err := l.RequestRepository.ListByStatus(ctx, statuses...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending leave requests: %w", err)
	}

	responses := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, r := range requests {
		if r.UserID == actor.UserID {
			continue
		}
		if actor.Role == user.RoleManager && !l.canView(ctx, r, actor) {
			continue
		}
		responses = append(responses, leave.NewLeaveRequestResponse(r, nil))
	}
	return responses, nil
}

// GetLeaveBalance implements leave.LeaveService.
func (l *LeaveServiceImpl) GetLeaveBalance(ctx context.Context, userID string) (leave.LeaveBalanceResponse, error) {
	now := l.clock.Now()
	year := now.In(l.location).Year()

	var balance leave.LeaveBalance
	err := l.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		balance, err = l.quotaService.EnsureBalance(txCtx, userID, year, now)
		return err
	})
	if err != nil {
		return leave.LeaveBalanceResponse{}, err
	}
	return leave.NewLeaveBalanceResponse(balance), nil
}
