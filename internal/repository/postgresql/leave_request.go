package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const leaveRequestColumns = `
	id, user_id, type, start_date, end_date, days, leave_year, reason, status,
	approved_by_manager, approved_by_hr, approved_by_md, rejection_reason, created_at, updated_at`

type leaveRequestRepository struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.RequestRepository {
	return &leaveRequestRepository{db: db}
}

// Create implements leave.RequestRepository.
func (r *leaveRequestRepository) Create(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	if req.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return leave.LeaveRequest{}, fmt.Errorf("failed to generate leave request id: %w", err)
		}
		req.ID = id.String()
	}

	query := `
		INSERT INTO leave_requests (
			id, user_id, type, start_date, end_date, days, leave_year, reason, status,
			approved_by_manager, approved_by_hr, approved_by_md, rejection_reason
		) VALUES ($1, $2, $3, $4::date, $5::date, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + leaveRequestColumns

	created, err := scanLeaveRequest(q.QueryRow(ctx, query,
		req.ID,
		req.UserID,
		string(req.Type),
		dayParam(req.StartDate),
		dayParam(req.EndDate),
		req.Days,
		req.LeaveYear,
		req.Reason,
		string(req.Status),
		req.ApprovedByManager,
		req.ApprovedByHR,
		req.ApprovedByMD,
		req.RejectionReason,
	))
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	return created, nil
}

// GetByID implements leave.RequestRepository.
func (r *leaveRequestRepository) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	return r.get(ctx, `SELECT `+leaveRequestColumns+` FROM leave_requests WHERE id = $1`, id)
}

// GetByIDForUpdate implements leave.RequestRepository.
func (r *leaveRequestRepository) GetByIDForUpdate(ctx context.Context, id string) (leave.LeaveRequest, error) {
	if !inTransaction(ctx) {
		return leave.LeaveRequest{}, database.ErrNoTransaction
	}
	return r.get(ctx, `SELECT `+leaveRequestColumns+` FROM leave_requests WHERE id = $1 FOR UPDATE`, id)
}

func (r *leaveRequestRepository) get(ctx context.Context, query, id string) (leave.LeaveRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}

	q := GetQuerier(ctx, r.db)
	req, err := scanLeaveRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave request: %w", err)
	}
	return req, nil
}

// Update implements leave.RequestRepository.
func (r *leaveRequestRepository) Update(ctx context.Context, req leave.LeaveRequest) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_requests SET
			status = $2,
			approved_by_manager = $3,
			approved_by_hr = $4,
			approved_by_md = $5,
			rejection_reason = $6,
			updated_at = $7
		WHERE id = $1`

	tag, err := q.Exec(ctx, query,
		req.ID,
		string(req.Status),
		req.ApprovedByManager,
		req.ApprovedByHR,
		req.ApprovedByMD,
		req.RejectionReason,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update leave request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}

// ListByUser implements leave.RequestRepository.
func (r *leaveRequestRepository) ListByUser(ctx context.Context, userID string) ([]leave.LeaveRequest, error) {
	query := `SELECT ` + leaveRequestColumns + ` FROM leave_requests WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

// ListByStatus implements leave.RequestRepository.
func (r *leaveRequestRepository) ListByStatus(ctx context.Context, statuses ...leave.Status) ([]leave.LeaveRequest, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	query := `SELECT ` + leaveRequestColumns + ` FROM leave_requests WHERE status = ANY($1) ORDER BY created_at ASC`
	return r.list(ctx, query, names)
}

func (r *leaveRequestRepository) list(ctx context.Context, query string, args ...interface{}) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}
	defer rows.Close()

	var out []leave.LeaveRequest
	for rows.Next() {
		req, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leave request rows: %w", err)
	}
	return out, nil
}

// AppendHistory implements leave.RequestRepository.
func (r *leaveRequestRepository) AppendHistory(ctx context.Context, entry leave.ApprovalHistory) error {
	q := GetQuerier(ctx, r.db)

	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate history id: %w", err)
		}
		entry.ID = id.String()
	}

	query := `
		INSERT INTO leave_approval_history (id, request_id, from_status, to_status, actor_id, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := q.Exec(ctx, query,
		entry.ID,
		entry.RequestID,
		string(entry.FromStatus),
		string(entry.ToStatus),
		entry.ActorID,
		entry.Comment,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append approval history: %w", err)
	}
	return nil
}

// ListHistory implements leave.RequestRepository.
func (r *leaveRequestRepository) ListHistory(ctx context.Context, requestID string) ([]leave.ApprovalHistory, error) {
	if _, err := uuid.Parse(requestID); err != nil {
		return nil, nil
	}

	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, request_id, from_status, to_status, actor_id, comment, created_at
		FROM leave_approval_history
		WHERE request_id = $1
		ORDER BY seq ASC`

	rows, err := q.Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval history: %w", err)
	}
	defer rows.Close()

	var out []leave.ApprovalHistory
	for rows.Next() {
		var (
			h        leave.ApprovalHistory
			from, to string
		)
		if err := rows.Scan(&h.ID, &h.RequestID, &from, &to, &h.ActorID, &h.Comment, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan approval history: %w", err)
		}
		h.FromStatus = leave.Status(from)
		h.ToStatus = leave.Status(to)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate approval history rows: %w", err)
	}
	return out, nil
}

func scanLeaveRequest(row pgx.Row) (leave.LeaveRequest, error) {
	var (
		req       leave.LeaveRequest
		leaveType string
		status    string
	)
	err := row.Scan(
		&req.ID, &req.UserID, &leaveType, &req.StartDate, &req.EndDate, &req.Days, &req.LeaveYear, &req.Reason, &status,
		&req.ApprovedByManager, &req.ApprovedByHR, &req.ApprovedByMD, &req.RejectionReason, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	req.Type = leave.LeaveType(leaveType)
	req.Status = leave.Status(status)
	return req, nil
}
