package setting

import (
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
)

type UpdatePermissionDefaultRequest struct {
	Minutes int `json:"minutes"`
}

func (r *UpdatePermissionDefaultRequest) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsInRange(r.Minutes, 1, 480) {
		errs.Add("minutes", "minutes must be between 1 and 480")
	}
	return errs.Err()
}

type PermissionDefaultResponse struct {
	Minutes   int     `json:"minutes"`
	UpdatedAt *string `json:"updated_at,omitempty"`
}
