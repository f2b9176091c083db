package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/config"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
)

// QuotaCalculator derives a first-time balance from the annual entitlements.
type QuotaCalculator struct {
	casual int
	sick   int
}

func NewQuotaCalculator(cfg config.LeaveConfig) *QuotaCalculator {
	return &QuotaCalculator{casual: cfg.CasualEntitlement, sick: cfg.SickEntitlement}
}

// InitialBalance prorates both entitlements by the days left in year from
// the employee's joining date.
func (c *QuotaCalculator) InitialBalance(emp employee.Employee, year int, now time.Time) leave.LeaveBalance {
	yearJoined := 0
	if !emp.JoinedAt.IsZero() {
		yearJoined = emp.JoinedAt.Year()
	}
	return leave.LeaveBalance{
		UserID:      emp.UserID,
		LeaveYear:   year,
		Casual:      timeutil.ProrateEntitlement(c.casual, emp.JoinedAt, year),
		Sick:        timeutil.ProrateEntitlement(c.sick, emp.JoinedAt, year),
		YearJoined:  yearJoined,
		LastUpdated: now,
	}
}
