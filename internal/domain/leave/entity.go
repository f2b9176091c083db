package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
)

type LeaveType string

const (
	LeaveTypeCasual LeaveType = "CL"
	LeaveTypeSick   LeaveType = "SL"
	LeaveTypeUnpaid LeaveType = "UL"
)

func (t LeaveType) IsValid() bool {
	switch t {
	case LeaveTypeCasual, LeaveTypeSick, LeaveTypeUnpaid:
		return true
	}
	return false
}

// HasQuota reports whether requests of this type draw on the balance.
func (t LeaveType) HasQuota() bool {
	return t == LeaveTypeCasual || t == LeaveTypeSick
}

type Status string

const (
	StatusPendingManager Status = "PendingManager"
	StatusPendingHR      Status = "PendingHR"
	StatusPendingMD      Status = "PendingMD"
	StatusApproved       Status = "Approved"
	StatusRejected       Status = "Rejected"
)

// rank orders the chain. Rejected sits outside it.
var rank = map[Status]int{
	StatusPendingManager: 1,
	StatusPendingHR:      2,
	StatusPendingMD:      3,
	StatusApproved:       4,
}

func (s Status) IsValid() bool {
	_, ok := rank[s]
	return ok || s == StatusRejected
}

func (s Status) IsPending() bool {
	return s == StatusPendingManager || s == StatusPendingHR || s == StatusPendingMD
}

// Next returns the status that follows an approval at stage s.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusPendingManager:
		return StatusPendingHR, true
	case StatusPendingHR:
		return StatusPendingMD, true
	case StatusPendingMD:
		return StatusApproved, true
	}
	return "", false
}

// CanTransitionTo allows moves from a pending stage to rejection or to any
// later point of the chain.
func (s Status) CanTransitionTo(to Status) bool {
	if !s.IsPending() {
		return false
	}
	if to == StatusRejected {
		return true
	}
	toRank, ok := rank[to]
	return ok && toRank > rank[s]
}

// ApproverRole is the role that decides at stage s.
func (s Status) ApproverRole() (user.Role, bool) {
	switch s {
	case StatusPendingManager:
		return user.RoleManager, true
	case StatusPendingHR:
		return user.RoleHR, true
	case StatusPendingMD:
		return user.RoleMD, true
	}
	return "", false
}

// LeaveBalance is one user's entitlement and consumption for one year.
type LeaveBalance struct {
	UserID      string
	LeaveYear   int
	Casual      int
	CasualUsed  int
	Sick        int
	SickUsed    int
	YearJoined  int
	LastUpdated time.Time
}

// Remaining returns max(0, total-used) for leaveType. Unpaid leave has no quota
// and reports zero.
func (b LeaveBalance) Remaining(leaveType LeaveType) int {
	var total, used int
	switch leaveType {
	case LeaveTypeCasual:
		total, used = b.Casual, b.CasualUsed
	case LeaveTypeSick:
		total, used = b.Sick, b.SickUsed
	default:
		return 0
	}
	if used >= total {
		return 0
	}
	return total - used
}

// Debit records days of approved leave against the balance.
func (b *LeaveBalance) Debit(leaveType LeaveType, days int, at time.Time) {
	switch leaveType {
	case LeaveTypeCasual:
		b.CasualUsed += days
	case LeaveTypeSick:
		b.SickUsed += days
	default:
		return
	}
	b.LastUpdated = at
}

type LeaveRequest struct {
	ID                string
	UserID            string
	Type              LeaveType
	StartDate         time.Time
	EndDate           time.Time
	Days              int
	LeaveYear         int
	Reason            string
	Status            Status
	ApprovedByManager bool
	ApprovedByHR      bool
	ApprovedByMD      bool
	RejectionReason   *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// markStageApproved flips the approval flag of the current stage.
func (r *LeaveRequest) markStageApproved() {
	switch r.Status {
	case StatusPendingManager:
		r.ApprovedByManager = true
	case StatusPendingHR:
		r.ApprovedByHR = true
	case StatusPendingMD:
		r.ApprovedByMD = true
	}
}

// Apply moves the request to status to, flipping the current stage flag on
// forward moves and recording reason on rejection.
func (r *LeaveRequest) Apply(to Status, reason *string, at time.Time) error {
	if !r.Status.IsPending() {
		return ErrRequestNotPending
	}
	if !r.Status.CanTransitionTo(to) {
		return ErrInvalidTransition
	}
	if to == StatusRejected {
		r.RejectionReason = reason
	} else {
		r.markStageApproved()
	}
	r.Status = to
	r.UpdatedAt = at
	return nil
}

// ApprovalHistory is one append-only entry of a request's status trail.
type ApprovalHistory struct {
	ID         string
	RequestID  string
	FromStatus Status
	ToStatus   Status
	ActorID    string
	Comment    *string
	CreatedAt  time.Time
}
