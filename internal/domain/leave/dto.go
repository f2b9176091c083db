package leave

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
)

type SubmitLeaveRequest struct {
	Type      LeaveType `json:"type"`
	StartDate string    `json:"start_date"` // YYYY-MM-DD
	EndDate   string    `json:"end_date"`   // YYYY-MM-DD
	Reason    string    `json:"reason"`

	start time.Time
	end   time.Time
}

func (r *SubmitLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if !r.Type.IsValid() {
		errs.Add("type", "type must be one of: CL, SL, UL")
	}

	start, okStart := validator.IsValidDate(r.StartDate)
	if !okStart {
		errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
	}
	end, okEnd := validator.IsValidDate(r.EndDate)
	if !okEnd {
		errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
	}
	if okStart && okEnd && start.After(end) {
		errs.Add("start_date", "start_date must not be after end_date")
	}

	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "reason is required")
	} else if len(r.Reason) > 1000 {
		errs.Add("reason", "reason must not exceed 1000 characters")
	}

	if err := errs.Err(); err != nil {
		return err
	}
	r.start, r.end = start, end
	return nil
}

// Dates returns the parsed range. Only meaningful after Validate succeeds.
func (r *SubmitLeaveRequest) Dates() (time.Time, time.Time) {
	return r.start, r.end
}

type UpdateLeaveStatusRequest struct {
	Status Status  `json:"status"`
	Reason *string `json:"reason,omitempty"`
}

func (r *UpdateLeaveStatusRequest) Validate() error {
	var errs validator.ValidationErrors
	if !r.Status.IsValid() || r.Status == StatusPendingManager {
		errs.Add("status", "status must be one of: PendingHR, PendingMD, Approved, Rejected")
	}
	if r.Status == StatusRejected && (r.Reason == nil || validator.IsEmpty(*r.Reason)) {
		errs.Add("reason", "reason is required when rejecting")
	}
	return errs.Err()
}

type DecideLeaveRequest struct {
	Status  string  `json:"status"` // approved or rejected
	Comment *string `json:"comment,omitempty"`
}

func (r *DecideLeaveRequest) Validate() error {
	var errs validator.ValidationErrors
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
	if !validator.IsInSlice(r.Status, []string{"approved", "rejected"}) {
		errs.Add("status", "status must be one of: approved, rejected")
	}
	if r.Status == "rejected" && (r.Comment == nil || validator.IsEmpty(*r.Comment)) {
		errs.Add("comment", "comment is required when rejecting")
	}
	return errs.Err()
}

func (r *DecideLeaveRequest) Approve() bool {
	return r.Status == "approved"
}

type ApprovalHistoryResponse struct {
	FromStatus Status  `json:"from_status"`
	ToStatus   Status  `json:"to_status"`
	ActorID    string  `json:"actor_id"`
	Comment    *string `json:"comment,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

type LeaveRequestResponse struct {
	ID                string                    `json:"id"`
	UserID            string                    `json:"user_id"`
	Type              LeaveType                 `json:"type"`
	StartDate         string                    `json:"start_date"`
	EndDate           string                    `json:"end_date"`
	Days              int                       `json:"days"`
	LeaveYear         int                       `json:"leave_year"`
	Reason            string                    `json:"reason"`
	Status            Status                    `json:"status"`
	ApprovedByManager bool                      `json:"approved_by_manager"`
	ApprovedByHR      bool                      `json:"approved_by_hr"`
	ApprovedByMD      bool                      `json:"approved_by_md"`
	RejectionReason   *string                   `json:"rejection_reason,omitempty"`
	History           []ApprovalHistoryResponse `json:"history,omitempty"`
	CreatedAt         string                    `json:"created_at"`
	UpdatedAt         string                    `json:"updated_at"`
}

func NewLeaveRequestResponse(r LeaveRequest, history []ApprovalHistory) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:                r.ID,
		UserID:            r.UserID,
		Type:              r.Type,
		StartDate:         r.StartDate.Format(timeutil.DateLayout),
		EndDate:           r.EndDate.Format(timeutil.DateLayout),
		Days:              r.Days,
		LeaveYear:         r.LeaveYear,
		Reason:            r.Reason,
		Status:            r.Status,
		ApprovedByManager: r.ApprovedByManager,
		ApprovedByHR:      r.ApprovedByHR,
		ApprovedByMD:      r.ApprovedByMD,
		RejectionReason:   r.RejectionReason,
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         r.UpdatedAt.Format(time.RFC3339),
	}
	for _, h := range history {
		resp.History = append(resp.History, ApprovalHistoryResponse{
			FromStatus: h.FromStatus,
			ToStatus:   h.ToStatus,
			ActorID:    h.ActorID,
			Comment:    h.Comment,
			CreatedAt:  h.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}

type BalanceDetail struct {
	Total     int `json:"total"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

type LeaveBalanceResponse struct {
	UserID     string        `json:"user_id"`
	LeaveYear  int           `json:"leave_year"`
	YearJoined int           `json:"year_joined"`
	Casual     BalanceDetail `json:"casual"`
	Sick       BalanceDetail `json:"sick"`
}

func NewLeaveBalanceResponse(b LeaveBalance) LeaveBalanceResponse {
	return LeaveBalanceResponse{
		UserID:     b.UserID,
		LeaveYear:  b.LeaveYear,
		YearJoined: b.YearJoined,
		Casual:     BalanceDetail{Total: b.Casual, Used: b.CasualUsed, Remaining: b.Remaining(LeaveTypeCasual)},
		Sick:       BalanceDetail{Total: b.Sick, Used: b.SickUsed, Remaining: b.Remaining(LeaveTypeSick)},
	}
}
