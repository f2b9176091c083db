// Package timeutil holds the day-key and minute arithmetic shared by the
// attendance and leave engines. All functions are pure except Clock.
package timeutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// Clock abstracts time.Now so engines can be driven from tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// ManualClock is a settable Clock.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// DayKey returns midnight of t's calendar day in loc.
func DayKey(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// DayString formats the day-key of t as YYYY-MM-DD.
func DayString(t time.Time, loc *time.Location) string {
	return DayKey(t, loc).Format(DateLayout)
}

// MinutesSinceMidnight returns hour*60+minute of t in loc. Seconds are dropped.
func MinutesSinceMidnight(t time.Time, loc *time.Location) int {
	local := t.In(loc)
	return local.Hour()*60 + local.Minute()
}

// MinutesBetween returns the elapsed whole minutes from start to end, rounded
// half up and clamped at zero.
func MinutesBetween(start, end time.Time) int {
	ms := end.Sub(start).Milliseconds()
	if ms <= 0 {
		return 0
	}
	return int(decimal.NewFromInt(ms).Div(decimal.NewFromInt(60000)).Round(0).IntPart())
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// HoursFromMinutes converts minutes to hours rounded to two decimals, clamped at zero.
func HoursFromMinutes(minutes float64) float64 {
	if minutes <= 0 {
		return 0
	}
	return decimal.NewFromFloat(minutes).Div(decimal.NewFromInt(60)).Round(2).InexactFloat64()
}

// CalculateWorkHours returns max(0, (checkOut-checkIn) in minutes - breakMinutes) / 60,
// rounded to two decimals.
func CalculateWorkHours(checkIn, checkOut time.Time, breakMinutes int) float64 {
	worked := decimal.NewFromInt(checkOut.Sub(checkIn).Milliseconds()).
		Div(decimal.NewFromInt(60000)).
		Sub(decimal.NewFromInt(int64(breakMinutes)))
	if !worked.IsPositive() {
		return 0
	}
	return worked.Div(decimal.NewFromInt(60)).Round(2).InexactFloat64()
}

// FormatDuration renders minutes as "8h 05m".
func FormatDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

// FormatHours renders fractional hours as "8h 40m".
func FormatHours(hours float64) string {
	return FormatDuration(int(decimal.NewFromFloat(hours).Mul(decimal.NewFromInt(60)).Round(0).IntPart()))
}

// CountWeekdays counts Monday to Friday days in the inclusive range [start, end].
func CountWeekdays(start, end time.Time) int {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			count++
		}
	}
	return count
}

// DaysInYear returns 365 or 366.
func DaysInYear(year int) int {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
}

// ProrateEntitlement scales an annual entitlement by the days remaining in
// year from joinedAt (inclusive). Employees who joined before the year get
// the full entitlement. The result is floored.
func ProrateEntitlement(entitlement int, joinedAt time.Time, year int) int {
	if joinedAt.IsZero() || joinedAt.Year() < year {
		return entitlement
	}
	if joinedAt.Year() > year {
		return 0
	}
	total := DaysInYear(year)
	remaining := total - joinedAt.YearDay() + 1
	return entitlement * remaining / total
}
