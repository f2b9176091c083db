package notification

import "errors"

// Notification domain errors
var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrQueueFull            = errors.New("notification queue is full")
	// ErrDispatch wraps every delivery failure. It is logged, never returned to API callers.
	ErrDispatch = errors.New("notification dispatch failed")
)
