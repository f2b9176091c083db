package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/notification"
)

type notificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db}
}

// Create implements notification.Repository.
func (r *notificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	return r.CreateBatch(ctx, []*notification.Notification{n})
}

// CreateBatch implements notification.Repository.
func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []*notification.Notification) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, n := range notifications {
		cp := *n
		r.db.notifs = append(r.db.notifs, &cp)
	}
	return nil
}

// GetByUserID implements notification.Repository.
func (r *notificationRepository) GetByUserID(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) ([]*notification.Notification, int, error) {
	r.db.mu.RLock()
	var all []*notification.Notification
	for _, n := range r.db.notifs {
		if n.RecipientID == userID && (!unreadOnly || !n.IsRead) {
			cp := *n
			all = append(all, &cp)
		}
	}
	r.db.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := len(all)
	start := (page - 1) * pageSize
	if start >= total {
		return []*notification.Notification{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// GetUnreadCount implements notification.Repository.
func (r *notificationRepository) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	count := 0
	for _, n := range r.db.notifs {
		if n.RecipientID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

// MarkAsRead implements notification.Repository.
func (r *notificationRepository) MarkAsRead(ctx context.Context, ids []string, userID string) error {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	r.markRead(userID, func(n *notification.Notification) bool { return want[n.ID] })
	return nil
}

// MarkAllAsRead implements notification.Repository.
func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	r.markRead(userID, func(*notification.Notification) bool { return true })
	return nil
}

func (r *notificationRepository) markRead(userID string, match func(*notification.Notification) bool) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := r.db.clock.Now()
	for _, n := range r.db.notifs {
		if n.RecipientID == userID && !n.IsRead && match(n) {
			n.IsRead = true
			n.ReadAt = &now
		}
	}
}
