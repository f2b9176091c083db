package attendance

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/config"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
)

// NewPolicy builds the attendance rules and the bare-checkout resolver from config.
func NewPolicy(cfg config.AttendanceConfig) (attendance.Policy, attendance.IntentPolicy, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return attendance.Policy{}, nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Timezone, err)
	}
	officeStart, err := config.ParseClock(cfg.OfficeStart)
	if err != nil {
		return attendance.Policy{}, nil, fmt.Errorf("failed to parse office start: %w", err)
	}
	from, to, err := config.ParseClockRange(cfg.LunchWindow)
	if err != nil {
		return attendance.Policy{}, nil, fmt.Errorf("failed to parse lunch window: %w", err)
	}

	policy := attendance.Policy{
		Location:           loc,
		OfficeStartMinutes: officeStart,
		GracePeriodMinutes: cfg.GracePeriodMinutes,
		LunchMinutes:       cfg.LunchMinutes,
		ShortBreakMinutes:  cfg.ShortBreakMinutes,
		StandardWorkHours:  cfg.StandardWorkHours,
	}

	intent := attendance.LunchWindowPolicy{Location: loc, From: from, To: to}
	if cfg.BareCheckoutDefault == "final" {
		intent.Fallback = attendance.CheckoutTypeFinal
	}
	return policy, intent, nil
}
