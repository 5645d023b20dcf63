package obligation

import (
	"fmt"
	"slices"
	"time"

	"github.com/rpggio/accord/internal/calendar"
)

// RecurrenceKind discriminates the recurrence variants.
type RecurrenceKind string

const (
	KindDaily  RecurrenceKind = "daily"
	KindWeekly RecurrenceKind = "weekly"
)

// MaxTimesPerWeek bounds Weekly.TimesPerWeek.
const MaxTimesPerWeek = calendar.DaysPerWeek

// Recurrence is either Daily or Weekly.
type Recurrence interface {
	Kind() RecurrenceKind
	isRecurrence()
}

// Daily requires one completion on each listed weekday.
type Daily struct {
	Weekdays []time.Weekday
}

// Kind implements Recurrence.
func (Daily) Kind() RecurrenceKind { return KindDaily }

func (Daily) isRecurrence() {}

// Includes reports whether d is one of the configured weekdays.
func (r Daily) Includes(d time.Weekday) bool {
	return slices.Contains(r.Weekdays, d)
}

// Sorted returns the weekdays in calendar order starting from Sunday.
func (r Daily) Sorted() []time.Weekday {
	out := slices.Clone(r.Weekdays)
	slices.Sort(out)
	return out
}

// Weekly requires TimesPerWeek completions on any days of the week.
type Weekly struct {
	TimesPerWeek int
}

// Kind implements Recurrence.
func (Weekly) Kind() RecurrenceKind { return KindWeekly }

func (Weekly) isRecurrence() {}

// ValidateRecurrence checks that r can be expanded into instances.
func ValidateRecurrence(r Recurrence) error {
	switch rec := r.(type) {
	case Daily:
		if len(rec.Weekdays) == 0 {
			return fmt.Errorf("%w: daily recurrence needs at least one weekday", ErrInvalidRecurrence)
		}
		seen := make(map[time.Weekday]bool, len(rec.Weekdays))
		for _, d := range rec.Weekdays {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("%w: weekday %d out of range", ErrInvalidRecurrence, int(d))
			}
			if seen[d] {
				return fmt.Errorf("%w: duplicate weekday %s", ErrInvalidRecurrence, calendar.WeekdayName(d))
			}
			seen[d] = true
		}
		return nil
	case Weekly:
		if rec.TimesPerWeek < 1 || rec.TimesPerWeek > MaxTimesPerWeek {
			return fmt.Errorf("%w: times per week must be between 1 and %d, got %d",
				ErrInvalidRecurrence, MaxTimesPerWeek, rec.TimesPerWeek)
		}
		return nil
	case nil:
		return fmt.Errorf("%w: missing recurrence", ErrInvalidRecurrence)
	default:
		return fmt.Errorf("%w: unsupported recurrence %T", ErrInvalidRecurrence, r)
	}
}

// RecurrenceSpec is the wire form of a Recurrence.
type RecurrenceSpec struct {
	Kind         RecurrenceKind `json:"kind" jsonschema:"daily or weekly"`
	Weekdays     []string       `json:"weekdays,omitempty" jsonschema:"weekday names for daily recurrences, e.g. monday"`
	TimesPerWeek int            `json:"times_per_week,omitempty" jsonschema:"completions per week for weekly recurrences"`
}

// EncodeRecurrence converts r to its wire form.
func EncodeRecurrence(r Recurrence) RecurrenceSpec {
	switch rec := r.(type) {
	case Daily:
		names := make([]string, 0, len(rec.Weekdays))
		for _, d := range rec.Sorted() {
			names = append(names, calendar.WeekdayName(d))
		}
		return RecurrenceSpec{Kind: KindDaily, Weekdays: names}
	case Weekly:
		return RecurrenceSpec{Kind: KindWeekly, TimesPerWeek: rec.TimesPerWeek}
	default:
		return RecurrenceSpec{}
	}
}

// Recurrence converts the wire form back to a validated Recurrence.
func (s RecurrenceSpec) Recurrence() (Recurrence, error) {
	var r Recurrence
	switch s.Kind {
	case KindDaily:
		days := make([]time.Weekday, 0, len(s.Weekdays))
		for _, name := range s.Weekdays {
			d, err := calendar.ParseWeekday(name)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidRecurrence, err)
			}
			days = append(days, d)
		}
		r = Daily{Weekdays: days}
	case KindWeekly:
		r = Weekly{TimesPerWeek: s.TimesPerWeek}
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidRecurrence, s.Kind)
	}
	if err := ValidateRecurrence(r); err != nil {
		return nil, err
	}
	return r, nil
}

// RestoreRecurrence rebuilds a stored recurrence without validating it, so a
// malformed row surfaces as ErrInvalidRecurrence at generation time. Unknown
// kinds yield nil.
func RestoreRecurrence(kind RecurrenceKind, weekdays []int, timesPerWeek int) Recurrence {
	switch kind {
	case KindDaily:
		days := make([]time.Weekday, len(weekdays))
		for i, d := range weekdays {
			days[i] = time.Weekday(d)
		}
		return Daily{Weekdays: days}
	case KindWeekly:
		return Weekly{TimesPerWeek: timesPerWeek}
	default:
		return nil
	}
}
