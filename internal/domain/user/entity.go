package user

type Role string

const (
	RoleEmployee Role = "employee" // Regular employee
	RoleManager  Role = "manager"  // Reporting manager, first approval stage
	RoleHR       Role = "hr"       // Human resources, second approval stage
	RoleMD       Role = "md"       // Managing director, final approval stage
	RoleAdmin    Role = "admin"    // System administrator
)

func (r Role) IsValid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleHR, RoleMD, RoleAdmin:
		return true
	}
	return false
}

// Principal is the authenticated caller as carried in the access token.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin checks if the caller administers the system
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanApprove checks if the caller sits somewhere in the leave approval chain
func (p Principal) CanApprove() bool {
	return p.Role == RoleManager || p.Role == RoleHR || p.Role == RoleMD || p.Role == RoleAdmin
}
