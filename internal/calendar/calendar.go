// Package calendar holds the week arithmetic shared by instance generation,
// due-set resolution and reporting. Weeks run Sunday 00:00:00.000 through
// Saturday 23:59:59.999 in the location of the reference time.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// WeekStartsOn is the first day of every week window.
const WeekStartsOn = time.Sunday

// DaysPerWeek is the number of days in a week window.
const DaysPerWeek = 7

// DateFormat is the storage form of a week start.
const DateFormat = "2006-01-02"

const lastMillisecond = 999 * int(time.Millisecond)

// StartOfWeek returns Sunday 00:00:00.000 of the week containing ref.
func StartOfWeek(ref time.Time) time.Time {
	offset := (int(ref.Weekday()) - int(WeekStartsOn) + DaysPerWeek) % DaysPerWeek
	y, m, d := ref.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, ref.Location())
}

// EndOfWeek returns Saturday 23:59:59.999 of the week containing ref.
func EndOfWeek(ref time.Time) time.Time {
	return EndOfDay(StartOfWeek(ref).AddDate(0, 0, DaysPerWeek-1))
}

// StartOfWeekNWeeksAgo returns the start of the week n weeks before the one
// containing now. n = 0 is the current week.
func StartOfWeekNWeeksAgo(now time.Time, n int) time.Time {
	return StartOfWeek(now).AddDate(0, 0, -DaysPerWeek*n)
}

// EndOfWeekNWeeksAgo returns the end of the week n weeks before the one
// containing now.
func EndOfWeekNWeeksAgo(now time.Time, n int) time.Time {
	return EndOfWeek(StartOfWeekNWeeksAgo(now, n))
}

// EndOfDay returns 23:59:59.999 on the calendar day of t.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, lastMillisecond, t.Location())
}

// DayOfWeek returns the end of day for weekday d of the week starting at
// weekStart.
func DayOfWeek(weekStart time.Time, d time.Weekday) time.Time {
	offset := (int(d) - int(WeekStartsOn) + DaysPerWeek) % DaysPerWeek
	return EndOfDay(weekStart.AddDate(0, 0, offset))
}

// WeekKey formats the week containing ref for storage and lookup.
func WeekKey(ref time.Time) string {
	return StartOfWeek(ref).Format(DateFormat)
}

// ParseWeekKey parses a stored week key in loc.
func ParseWeekKey(key string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateFormat, key, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing week key %q: %w", key, err)
	}
	return t, nil
}

// WeekdayName returns the lowercase English name of d.
func WeekdayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// ParseWeekday accepts full or three-letter English weekday names in any case.
func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := WeekdayName(d)
		if n == full || n == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

// Now returns the current time in the clock's location.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time {
	return time.Time(c)
}
