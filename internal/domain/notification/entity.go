package notification

import (
	"time"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	TypeLateArrival       NotificationType = "attendance_late_arrival"
	TypeBreakReminder     NotificationType = "attendance_break_reminder"
	TypeLeaveRequest      NotificationType = "leave_request"
	TypeLeaveStageChanged NotificationType = "leave_stage_changed"
	TypeLeaveApproved     NotificationType = "leave_approved"
	TypeLeaveRejected     NotificationType = "leave_rejected"
)

// Message is what the engines hand to a Sink.
type Message struct {
	RecipientID string
	Type        NotificationType
	Title       string
	Body        string
	Data        map[string]interface{}
}

// Notification represents a stored in-app notification
type Notification struct {
	ID          string
	RecipientID string
	Type        NotificationType
	Title       string
	Message     string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}
