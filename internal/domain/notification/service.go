package notification

import (
	"context"
)

// Sink delivers one message on one or more channels.
type Sink interface {
	Notify(ctx context.Context, msg Message) error
}

// Dispatcher hands messages to a Sink without blocking the caller. Delivery
// errors are logged by the Dispatcher and never reach the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message)
}

// Service defines the in-app notification service
type Service interface {
	Sink

	GetNotifications(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) (*NotificationListResponse, error)
	GetUnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, userID string, req MarkAsReadRequest) error
	MarkAllAsRead(ctx context.Context, userID string) error

	// SSE subscription
	Subscribe(ctx context.Context, userID string) (<-chan SSEEvent, func())

	// Lifecycle
	Stop()
}
