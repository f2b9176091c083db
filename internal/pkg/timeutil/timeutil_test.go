package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var jakarta = time.FixedZone("WIB", 7*60*60)

func at(hour, min int) time.Time {
	return time.Date(2024, time.March, 4, hour, min, 0, 0, jakarta)
}

func TestDayKey(t *testing.T) {
	// 23:30 UTC on the 3rd is already the 4th in UTC+7.
	utc := time.Date(2024, time.March, 3, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-04", DayString(utc, jakarta))
	assert.True(t, time.Date(2024, time.March, 4, 0, 0, 0, 0, jakarta).Equal(DayKey(utc, jakarta)))
}

func TestMinutesSinceMidnight(t *testing.T) {
	assert.Equal(t, 560, MinutesSinceMidnight(at(9, 20), jakarta))
	assert.Equal(t, 0, MinutesSinceMidnight(at(0, 0), jakarta))
	assert.Equal(t, 540, MinutesSinceMidnight(at(9, 0).Add(59*time.Second), jakarta))
}

func TestMinutesBetween(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"exact", at(13, 0), at(14, 5), 65},
		{"rounds half up", at(13, 0), at(13, 0).Add(90 * time.Second), 2},
		{"rounds down", at(13, 0), at(13, 0).Add(89 * time.Second), 1},
		{"negative clamps to zero", at(14, 0), at(13, 0), 0},
		{"equal", at(13, 0), at(13, 0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MinutesBetween(tt.start, tt.end))
		})
	}
}

func TestCalculateWorkHours(t *testing.T) {
	tests := []struct {
		name         string
		checkIn      time.Time
		checkOut     time.Time
		breakMinutes int
		want         float64
	}{
		{"full day with long lunch", at(9, 0), at(18, 45), 65, 8.67},
		{"no break", at(9, 0), at(17, 0), 0, 8},
		{"rounded to two decimals", at(9, 0), at(9, 10), 0, 0.17},
		{"checkout before checkin", at(17, 0), at(9, 0), 0, 0},
		{"break exceeds interval", at(9, 0), at(10, 0), 90, 0},
		{"break equals interval", at(9, 0), at(10, 0), 60, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateWorkHours(tt.checkIn, tt.checkOut, tt.breakMinutes)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 8.67, Round2(8.6666))
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, 2.0, Round2(2))
}

func TestHoursFromMinutes(t *testing.T) {
	assert.Equal(t, 8.67, HoursFromMinutes(520))
	assert.Equal(t, 0.0, HoursFromMinutes(-30))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "8h 40m", FormatDuration(520))
	assert.Equal(t, "0h 05m", FormatDuration(5))
	assert.Equal(t, "0h 00m", FormatDuration(-3))
	assert.Equal(t, "8h 40m", FormatHours(8.67))
}

func TestCountWeekdays(t *testing.T) {
	fri := time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC)
	mon := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, CountWeekdays(fri, mon))

	monPrev := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 5, CountWeekdays(monPrev, fri))

	sat := time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC)
	sun := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, CountWeekdays(sat, sun))
	assert.Equal(t, 0, CountWeekdays(mon, fri))
}

func TestProrateEntitlement(t *testing.T) {
	assert.Equal(t, 366, DaysInYear(2024))
	assert.Equal(t, 365, DaysInYear(2023))

	before := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 12, ProrateEntitlement(12, before, 2024))
	assert.Equal(t, 12, ProrateEntitlement(12, time.Time{}, 2024))

	jan1 := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 12, ProrateEntitlement(12, jan1, 2024))

	// July 1st 2024 is day 183; 184 days remain: floor(12*184/366) = 6.
	jul1 := time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 6, ProrateEntitlement(12, jul1, 2024))

	dec31 := time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, ProrateEntitlement(12, dec31, 2024))

	assert.Equal(t, 0, ProrateEntitlement(12, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 2024))
}

func TestManualClock(t *testing.T) {
	c := NewManualClock(at(9, 0))
	c.Advance(20 * time.Minute)
	assert.True(t, at(9, 20).Equal(c.Now()))
	c.Set(at(18, 0))
	assert.True(t, at(18, 0).Equal(c.Now()))
}
