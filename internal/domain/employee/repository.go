package employee

import (
	"context"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
)

// Directory looks up employees. It is owned by the HR records system.
type Directory interface {
	// GetByUserID returns ErrEmployeeNotFound when userID is unknown.
	GetByUserID(ctx context.Context, userID string) (Employee, error)

	// ListByRole returns every employee holding role.
	ListByRole(ctx context.Context, role user.Role) ([]Employee, error)
}
