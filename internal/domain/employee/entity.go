package employee

import (
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
)

// Employee is the read-only slice of the employee directory this service needs.
type Employee struct {
	UserID         string
	FullName       string
	Email          *string
	ManagerID      *string
	Role           user.Role
	JoinedAt       time.Time
	TelegramChatID *int64
}
