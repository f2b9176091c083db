package sqlite

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/notification"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormNotificationRepository struct {
	db *DB
}

func NewGormNotificationRepository(db *DB) (*GormNotificationRepository, error) {
	if err := db.gorm.AutoMigrate(&notificationModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate notifications: %w", err)
	}
	return &GormNotificationRepository{db: db}, nil
}

// Create implements notification.Repository.
func (r *GormNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	return r.CreateBatch(ctx, []*notification.Notification{n})
}

// CreateBatch implements notification.Repository.
func (r *GormNotificationRepository) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	models := make([]notificationModel, 0, len(notifications))
	for _, n := range notifications {
		if n.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate notification id: %w", err)
			}
			n.ID = id.String()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = r.db.now()
		}
		models = append(models, notificationModel{
			ID:          n.ID,
			RecipientID: n.RecipientID,
			Type:        string(n.Type),
			Title:       n.Title,
			Message:     n.Message,
			Data:        n.Data,
			IsRead:      n.IsRead,
			ReadAt:      n.ReadAt,
			CreatedAt:   n.CreatedAt.UTC(),
		})
	}

	if err := r.db.conn(ctx).CreateInBatches(models, 100).Error; err != nil {
		return fmt.Errorf("failed to batch create notifications: %w", err)
	}
	return nil
}

// GetByUserID implements notification.Repository.
func (r *GormNotificationRepository) GetByUserID(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) ([]*notification.Notification, int, error) {
	scope := func() *gorm.DB {
		q := r.db.conn(ctx).Model(&notificationModel{}).Where("recipient_id = ?", userID)
		if unreadOnly {
			q = q.Where("is_read = ?", false)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var models []notificationModel
	err := scope().Order("created_at DESC").Limit(pageSize).Offset((page - 1) * pageSize).Find(&models).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query notifications: %w", err)
	}

	out := make([]*notification.Notification, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, int(total), nil
}

// GetUnreadCount implements notification.Repository.
func (r *GormNotificationRepository) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	var count int64
	err := r.db.conn(ctx).Model(&notificationModel{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return int(count), nil
}

// MarkAsRead implements notification.Repository.
func (r *GormNotificationRepository) MarkAsRead(ctx context.Context, ids []string, userID string) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.conn(ctx).Model(&notificationModel{}).
		Where("recipient_id = ? AND id IN ? AND is_read = ?", userID, ids, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": r.db.now()}).Error
	if err != nil {
		return fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return nil
}

// MarkAllAsRead implements notification.Repository.
func (r *GormNotificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	err := r.db.conn(ctx).Model(&notificationModel{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": r.db.now()}).Error
	if err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return nil
}
