package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/google/uuid"
)

type leaveBalanceRepository struct {
	db *DB
}

func NewLeaveBalanceRepository(db *DB) leave.BalanceRepository {
	return &leaveBalanceRepository{db: db}
}

func balanceKey(userID string, year int) string {
	return fmt.Sprintf("%s|%d", userID, year)
}

// LockBalance implements leave.BalanceRepository.
func (r *leaveBalanceRepository) LockBalance(ctx context.Context, userID string, year int) error {
	return r.db.lock(ctx, "leave_balance:"+balanceKey(userID, year))
}

// FindBalance implements leave.BalanceRepository.
func (r *leaveBalanceRepository) FindBalance(ctx context.Context, userID string, year int) (*leave.LeaveBalance, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	b, ok := r.db.balances[balanceKey(userID, year)]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// UpsertBalance implements leave.BalanceRepository.
func (r *leaveBalanceRepository) UpsertBalance(ctx context.Context, balance leave.LeaveBalance) error {
	key := balanceKey(balance.UserID, balance.LeaveYear)

	r.db.mu.RLock()
	prev, existed := r.db.balances[key]
	r.db.mu.RUnlock()

	r.db.write(ctx, func() {
		r.db.balances[key] = balance
	}, func() {
		if existed {
			r.db.balances[key] = prev
			return
		}
		delete(r.db.balances, key)
	})
	return nil
}

type leaveRequestRepository struct {
	db *DB
}

func NewLeaveRequestRepository(db *DB) leave.RequestRepository {
	return &leaveRequestRepository{db: db}
}

// Create implements leave.RequestRepository.
func (r *leaveRequestRepository) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	if request.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return leave.LeaveRequest{}, err
		}
		request.ID = id.String()
	}
	now := r.db.clock.Now()
	request.CreatedAt = now
	request.UpdatedAt = now

	r.db.write(ctx, func() {
		r.db.requests[request.ID] = request
	}, func() {
		delete(r.db.requests, request.ID)
	})
	return request, nil
}

// GetByID implements leave.RequestRepository.
func (r *leaveRequestRepository) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	req, ok := r.db.requests[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	return req, nil
}

// GetByIDForUpdate implements leave.RequestRepository.
func (r *leaveRequestRepository) GetByIDForUpdate(ctx context.Context, id string) (leave.LeaveRequest, error) {
	if err := r.db.lock(ctx, "leave_request:"+id); err != nil {
		return leave.LeaveRequest{}, err
	}
	return r.GetByID(ctx, id)
}

// Update implements leave.RequestRepository.
func (r *leaveRequestRepository) Update(ctx context.Context, request leave.LeaveRequest) error {
	r.db.mu.RLock()
	prev, ok := r.db.requests[request.ID]
	r.db.mu.RUnlock()
	if !ok {
		return leave.ErrLeaveRequestNotFound
	}

	r.db.write(ctx, func() {
		r.db.requests[request.ID] = request
	}, func() {
		r.db.requests[request.ID] = prev
	})
	return nil
}

// ListByUser implements leave.RequestRepository.
func (r *leaveRequestRepository) ListByUser(ctx context.Context, userID string) ([]leave.LeaveRequest, error) {
	r.db.mu.RLock()
	var out []leave.LeaveRequest
	for _, req := range r.db.requests {
		if req.UserID == userID {
			out = append(out, req)
		}
	}
	r.db.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListByStatus implements leave.RequestRepository.
func (r *leaveRequestRepository) ListByStatus(ctx context.Context, statuses ...leave.Status) ([]leave.LeaveRequest, error) {
	want := make(map[leave.Status]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}

	r.db.mu.RLock()
	var out []leave.LeaveRequest
	for _, req := range r.db.requests {
		if want[req.Status] {
			out = append(out, req)
		}
	}
	r.db.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// AppendHistory implements leave.RequestRepository.
func (r *leaveRequestRepository) AppendHistory(ctx context.Context, entry leave.ApprovalHistory) error {
	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		entry.ID = id.String()
	}

	r.db.write(ctx, func() {
		r.db.history = append(r.db.history, entry)
	}, func() {
		for i := len(r.db.history) - 1; i >= 0; i-- {
			if r.db.history[i].ID == entry.ID {
				r.db.history = append(r.db.history[:i], r.db.history[i+1:]...)
				return
			}
		}
	})
	return nil
}

// ListHistory implements leave.RequestRepository.
func (r *leaveRequestRepository) ListHistory(ctx context.Context, requestID string) ([]leave.ApprovalHistory, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []leave.ApprovalHistory
	for _, h := range r.db.history {
		if h.RequestID == requestID {
			out = append(out, h)
		}
	}
	return out, nil
}
