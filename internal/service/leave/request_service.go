package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/notification"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
)

// RequestService applies status transitions and tells the people involved.
type RequestService struct {
	leave.RequestRepository
	quota     *QuotaService
	directory employee.Directory
	notifier  notification.Dispatcher
}

func NewRequestService(requests leave.RequestRepository, quota *QuotaService, directory employee.Directory, notifier notification.Dispatcher) *RequestService {
	return &RequestService{
		RequestRepository: requests,
		quota:             quota,
		directory:         directory,
		notifier:          notifier,
	}
}

// Transition moves request to status to inside the caller's transaction. The
// pending guard in Apply runs before any debit, so a request can be charged
// at most once.
func (s *RequestService) Transition(ctx context.Context, request *leave.LeaveRequest, to leave.Status, actorID string, comment *string, now time.Time) error {
	from := request.Status

	var reason *string
	if to == leave.StatusRejected {
		reason = comment
	}
	if err := request.Apply(to, reason, now); err != nil {
		return err
	}

	if to == leave.StatusApproved && request.Type.HasQuota() {
		if _, err := s.quota.Debit(ctx, *request, now); err != nil {
			return err
		}
	}

	if err := s.RequestRepository.Update(ctx, *request); err != nil {
		return fmt.Errorf("%w: update leave request: %w", leave.ErrPersistence, err)
	}
	return s.appendHistory(ctx, request.ID, from, to, actorID, comment, now)
}

func (s *RequestService) appendHistory(ctx context.Context, requestID string, from, to leave.Status, actorID string, comment *string, now time.Time) error {
	err := s.RequestRepository.AppendHistory(ctx, leave.ApprovalHistory{
		RequestID:  requestID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actorID,
		Comment:    comment,
		CreatedAt:  now,
	})
	if err != nil {
		return fmt.Errorf("%w: append approval history: %w", leave.ErrPersistence, err)
	}
	return nil
}

// recipientsForStage returns the user IDs that act at a pending stage.
func (s *RequestService) recipientsForStage(ctx context.Context, request leave.LeaveRequest) []string {
	switch request.Status {
	case leave.StatusPendingManager:
		requester, err := s.directory.GetByUserID(ctx, request.UserID)
		if err != nil {
			slog.Warn("failed to look up requester for leave notification", "user_id", request.UserID, "error", err)
			return nil
		}
		if requester.ManagerID == nil {
			return nil
		}
		return []string{*requester.ManagerID}
	case leave.StatusPendingHR, leave.StatusPendingMD:
		role, _ := request.Status.ApproverRole()
		approvers, err := s.directory.ListByRole(ctx, role)
		if err != nil {
			slog.Warn("failed to list approvers for leave notification", "role", role, "error", err)
			return nil
		}
		ids := make([]string, 0, len(approvers))
		for _, a := range approvers {
			ids = append(ids, a.UserID)
		}
		return ids
	}
	return nil
}

func leaveData(request leave.LeaveRequest) map[string]interface{} {
	return map[string]interface{}{
		"request_id": request.ID,
		"type":       string(request.Type),
		"start_date": request.StartDate.Format(timeutil.DateLayout),
		"end_date":   request.EndDate.Format(timeutil.DateLayout),
		"days":       request.Days,
		"status":     string(request.Status),
	}
}

// NotifySubmitted tells HR and the requester's manager about a new request.
func (s *RequestService) NotifySubmitted(ctx context.Context, request leave.LeaveRequest) {
	recipients := s.recipientsForStage(ctx, request)

	hr, err := s.directory.ListByRole(ctx, user.RoleHR)
	if err != nil {
		slog.Warn("failed to list HR for leave notification", "error", err)
	}
	for _, e := range hr {
		recipients = append(recipients, e.UserID)
	}

	body := fmt.Sprintf("A %s request for %s to %s (%d days) is waiting for review.",
		request.Type, request.StartDate.Format(timeutil.DateLayout), request.EndDate.Format(timeutil.DateLayout), request.Days)
	s.fanOut(ctx, unique(recipients, request.UserID), notification.Message{
		Type:  notification.TypeLeaveRequest,
		Title: "New leave request",
		Body:  body,
		Data:  leaveData(request),
	})
}

// NotifyTransition tells the requester about the new status and, while the
// request is still pending, the approvers of the next stage.
func (s *RequestService) NotifyTransition(ctx context.Context, request leave.LeaveRequest) {
	msg := notification.Message{
		RecipientID: request.UserID,
		Data:        leaveData(request),
	}
	switch request.Status {
	case leave.StatusApproved:
		msg.Type = notification.TypeLeaveApproved
		msg.Title = "Leave approved"
		msg.Body = fmt.Sprintf("Your %s request starting %s was approved.", request.Type, request.StartDate.Format(timeutil.DateLayout))
	case leave.StatusRejected:
		msg.Type = notification.TypeLeaveRejected
		msg.Title = "Leave rejected"
		msg.Body = fmt.Sprintf("Your %s request starting %s was rejected.", request.Type, request.StartDate.Format(timeutil.DateLayout))
		if request.RejectionReason != nil {
			msg.Body += " Reason: " + *request.RejectionReason
		}
	default:
		msg.Type = notification.TypeLeaveStageChanged
		msg.Title = "Leave request moved forward"
		msg.Body = fmt.Sprintf("Your %s request is now %s.", request.Type, request.Status)
	}
	s.notifier.Dispatch(ctx, msg)

	if request.Status.IsPending() {
		s.fanOut(ctx, unique(s.recipientsForStage(ctx, request), request.UserID), notification.Message{
			Type:  notification.TypeLeaveRequest,
			Title: "Leave request awaiting your approval",
			Body:  fmt.Sprintf("A %s request (%d days) reached %s.", request.Type, request.Days, request.Status),
			Data:  leaveData(request),
		})
	}
}

func (s *RequestService) fanOut(ctx context.Context, recipients []string, msg notification.Message) {
	for _, id := range recipients {
		m := msg
		m.RecipientID = id
		s.notifier.Dispatch(ctx, m)
	}
}

// unique drops duplicates and the excluded ID, keeping order.
func unique(ids []string, exclude string) []string {
	seen := map[string]bool{exclude: true}
	out := ids[:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
