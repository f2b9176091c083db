package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormLeaveBalanceRepository struct {
	db *DB
}

func NewGormLeaveBalanceRepository(db *DB) (*GormLeaveBalanceRepository, error) {
	if err := db.gorm.AutoMigrate(&leaveBalanceModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate leave_balances: %w", err)
	}
	return &GormLeaveBalanceRepository{db: db}, nil
}

// LockBalance implements leave.BalanceRepository.
func (r *GormLeaveBalanceRepository) LockBalance(ctx context.Context, userID string, year int) error {
	return r.db.lock(ctx, "leave_balance:"+userID+"|"+strconv.Itoa(year))
}

// FindBalance implements leave.BalanceRepository.
func (r *GormLeaveBalanceRepository) FindBalance(ctx context.Context, userID string, year int) (*leave.LeaveBalance, error) {
	var m leaveBalanceModel
	err := r.db.conn(ctx).Where("user_id = ? AND leave_year = ?", userID, year).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leave balance: %w", err)
	}
	return &leave.LeaveBalance{
		UserID:      m.UserID,
		LeaveYear:   m.LeaveYear,
		Casual:      m.Casual,
		CasualUsed:  m.CasualUsed,
		Sick:        m.Sick,
		SickUsed:    m.SickUsed,
		YearJoined:  m.YearJoined,
		LastUpdated: m.LastUpdated,
	}, nil
}

// UpsertBalance implements leave.BalanceRepository.
func (r *GormLeaveBalanceRepository) UpsertBalance(ctx context.Context, b leave.LeaveBalance) error {
	m := leaveBalanceModel{
		UserID:      b.UserID,
		LeaveYear:   b.LeaveYear,
		Casual:      b.Casual,
		CasualUsed:  b.CasualUsed,
		Sick:        b.Sick,
		SickUsed:    b.SickUsed,
		YearJoined:  b.YearJoined,
		LastUpdated: b.LastUpdated,
	}
	err := r.db.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "leave_year"}},
		UpdateAll: true,
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("failed to upsert leave balance: %w", err)
	}
	return nil
}

type GormLeaveRequestRepository struct {
	db *DB
}

func NewGormLeaveRequestRepository(db *DB) (*GormLeaveRequestRepository, error) {
	if err := db.gorm.AutoMigrate(&leaveRequestModel{}, &approvalHistoryModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate leave request tables: %w", err)
	}
	return &GormLeaveRequestRepository{db: db}, nil
}

// Create implements leave.RequestRepository.
func (r *GormLeaveRequestRepository) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	if request.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return leave.LeaveRequest{}, fmt.Errorf("failed to generate leave request id: %w", err)
		}
		request.ID = id.String()
	}

	m := leaveRequestFromDomain(request)
	if err := r.db.conn(ctx).Create(&m).Error; err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	return m.toDomain(), nil
}

// GetByID implements leave.RequestRepository.
func (r *GormLeaveRequestRepository) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	var m leaveRequestModel
	err := r.db.conn(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave request: %w", err)
	}
	return m.toDomain(), nil
}

// GetByIDForUpdate implements leave.RequestRepository. SQLite has no row
// locks, so the request id is held on the keyed mutex instead.
func (r *GormLeaveRequestRepository) GetByIDForUpdate(ctx context.Context, id string) (leave.LeaveRequest, error) {
	if err := r.db.lock(ctx, "leave_request:"+id); err != nil {
		return leave.LeaveRequest{}, err
	}
	return r.GetByID(ctx, id)
}

// Update implements leave.RequestRepository.
func (r *GormLeaveRequestRepository) Update(ctx context.Context, request leave.LeaveRequest) error {
	res := r.db.conn(ctx).Model(&leaveRequestModel{}).Where("id = ?", request.ID).Updates(map[string]interface{}{
		"status":              string(request.Status),
		"approved_by_manager": request.ApprovedByManager,
		"approved_by_hr":      request.ApprovedByHR,
		"approved_by_md":      request.ApprovedByMD,
		"rejection_reason":    request.RejectionReason,
		"updated_at":          request.UpdatedAt,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update leave request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}

// ListByUser implements leave.RequestRepository.
func (r *GormLeaveRequestRepository) ListByUser(ctx context.Context, userID string) ([]leave.LeaveRequest, error) {
	var models []leaveRequestModel
	if err := r.db.conn(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list leave requests by user: %w", err)
	}
	return leaveRequestList(models), nil
}

// ListByStatus implements leave.RequestRepository.
func (r *GormLeaveRequestRepository) ListByStatus(ctx context.Context, statuses ...leave.Status) ([]leave.LeaveRequest, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	var models []leaveRequestModel
	if err := r.db.conn(ctx).Where("status IN ?", names).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list leave requests by status: %w", err)
	}
	return leaveRequestList(models), nil
}

func leaveRequestList(models []leaveRequestModel) []leave.LeaveRequest {
	out := make([]leave.LeaveRequest, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out
}

// AppendHistory implements leave.RequestRepository.
func (r *GormLeaveRequestRepository) AppendHistory(ctx context.Context, entry leave.ApprovalHistory) error {
	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate history id: %w", err)
		}
		entry.ID = id.String()
	}

	m := approvalHistoryModel{
		ID:         entry.ID,
		RequestID:  entry.RequestID,
		FromStatus: string(entry.FromStatus),
		ToStatus:   string(entry.ToStatus),
		ActorID:    entry.ActorID,
		Comment:    entry.Comment,
		CreatedAt:  entry.CreatedAt,
	}
	if err := r.db.conn(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to append approval history: %w", err)
	}
	return nil
}

// ListHistory implements leave.RequestRepository.
func (r *GormLeaveRequestRepository) ListHistory(ctx context.Context, requestID string) ([]leave.ApprovalHistory, error) {
	var models []approvalHistoryModel
	if err := r.db.conn(ctx).Where("request_id = ?", requestID).Order("seq ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list approval history: %w", err)
	}

	out := make([]leave.ApprovalHistory, 0, len(models))
	for _, m := range models {
		out = append(out, leave.ApprovalHistory{
			ID:         m.ID,
			RequestID:  m.RequestID,
			FromStatus: leave.Status(m.FromStatus),
			ToStatus:   leave.Status(m.ToStatus),
			ActorID:    m.ActorID,
			Comment:    m.Comment,
			CreatedAt:  m.CreatedAt,
		})
	}
	return out, nil
}
