package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/timeutil"
)

const (
	MinPermissionMinutes = 1
	MaxPermissionMinutes = 480
)

// Policy holds the organization's attendance rules.
type Policy struct {
	Location           *time.Location
	OfficeStartMinutes int
	GracePeriodMinutes int
	LunchMinutes       int
	ShortBreakMinutes  int
	StandardWorkHours  float64
}

func DefaultPolicy() Policy {
	return Policy{
		Location:           time.Local,
		OfficeStartMinutes: 9 * 60,
		GracePeriodMinutes: 10,
		LunchMinutes:       60,
		ShortBreakMinutes:  15,
		StandardWorkHours:  8,
	}
}

type Lateness struct {
	IsLate          bool
	LateMinutes     int
	GracePeriodUsed bool
	// Notify is set when the arrival is past the grace window.
	Notify bool
}

// AssessLateness compares the wall-clock minute of t with office start.
func (p Policy) AssessLateness(t time.Time) Lateness {
	minutes := timeutil.MinutesSinceMidnight(t, p.Location)
	if minutes <= p.OfficeStartMinutes {
		return Lateness{}
	}
	l := Lateness{IsLate: true, LateMinutes: minutes - p.OfficeStartMinutes}
	if minutes <= p.OfficeStartMinutes+p.GracePeriodMinutes {
		l.GracePeriodUsed = true
	} else {
		l.Notify = true
	}
	return l
}

// BreakMinutes returns the expected length of a break. permissionMinutes
// must already be resolved and validated by the caller.
func (p Policy) BreakMinutes(bt BreakType, permissionMinutes int) int {
	switch bt {
	case BreakTypePermission:
		return permissionMinutes
	case BreakTypeShortBreak:
		return p.ShortBreakMinutes
	default:
		return p.LunchMinutes
	}
}

// OvertimeHours returns hours worked beyond the standard day.
func (p Policy) OvertimeHours(totalWorkHours float64) float64 {
	if totalWorkHours <= p.StandardWorkHours {
		return 0
	}
	return timeutil.Round2(totalWorkHours - p.StandardWorkHours)
}

// IntentPolicy decides what a checkout without checkout_type means when no
// break is open.
type IntentPolicy interface {
	ResolveBareCheckout(t time.Time) (CheckoutType, error)
}

// LunchWindowPolicy starts a lunch break for bare checkouts inside
// [From, To) minutes of the day. Outside the window it returns Fallback,
// or ErrCheckoutIntentRequired when Fallback is empty.
type LunchWindowPolicy struct {
	Location *time.Location
	From     int
	To       int
	Fallback CheckoutType
}

func (p LunchWindowPolicy) ResolveBareCheckout(t time.Time) (CheckoutType, error) {
	m := timeutil.MinutesSinceMidnight(t, p.Location)
	if m >= p.From && m < p.To {
		return CheckoutTypeBreak, nil
	}
	if p.Fallback == "" {
		return "", ErrCheckoutIntentRequired
	}
	return p.Fallback, nil
}

// RequireExplicitIntent rejects every bare checkout.
type RequireExplicitIntent struct{}

func (RequireExplicitIntent) ResolveBareCheckout(time.Time) (CheckoutType, error) {
	return "", ErrCheckoutIntentRequired
}
