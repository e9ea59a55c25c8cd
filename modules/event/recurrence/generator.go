// Package recurrence expands a repeat specification into concrete dates.
//
// Dates are civil dates represented as time.Time at midnight UTC. Generate is
// pure: it never touches storage or the clock.
package recurrence

import (
	"fmt"
	"slices"
	"time"

	"github.com/teambition/rrule-go"
)

type RepeatOption string

const (
	RepeatNone     RepeatOption = "none"
	RepeatDaily    RepeatOption = "daily"
	RepeatWeekly   RepeatOption = "weekly"
	RepeatBiweekly RepeatOption = "biweekly"
	// RepeatEvery234 is the legacy fixed two-week cadence.
	RepeatEvery234 RepeatOption = "every-2-3-4"
	RepeatMonthly  RepeatOption = "monthly"
	RepeatCustom   RepeatOption = "custom"
)

// SafetyCap bounds every generation path, whatever the requested bound.
const SafetyCap = 365

func (o RepeatOption) Valid() bool {
	switch o {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatBiweekly, RepeatEvery234, RepeatMonthly, RepeatCustom:
		return true
	}
	return false
}

type Spec struct {
	RepeatOption RepeatOption
	// ByDays holds weekday indices, 0 = Sunday.
	ByDays        []int
	IntervalWeeks int
}

func (s Spec) Validate() error {
	if !s.RepeatOption.Valid() {
		return fmt.Errorf("unknown repeat option %q", s.RepeatOption)
	}
	if s.IntervalWeeks < 0 {
		return fmt.Errorf("intervalWeeks must be >= 1, got %d", s.IntervalWeeks)
	}
	for _, d := range s.ByDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("byDays entry %d out of range 0..6", d)
		}
	}
	if s.RepeatOption == RepeatCustom && len(s.ByDays) == 0 {
		return fmt.Errorf("repeat option %q requires byDays", RepeatCustom)
	}
	return nil
}

func (s Spec) interval() int {
	if s.IntervalWeeks < 1 {
		return 1
	}
	return s.IntervalWeeks
}

// Bound limits generation by count, by an inclusive end date, or both.
// A zero Bound means "until the implicit January 15 boundary".
type Bound struct {
	MaxCount int
	Until    *time.Time
}

func (b Bound) maxCount() int {
	if b.MaxCount <= 0 || b.MaxCount > SafetyCap {
		return SafetyCap
	}
	return b.MaxCount
}

// limit returns the last includable date, or ok=false when only a count applies.
func (b Bound) limit(start time.Time) (time.Time, bool) {
	if b.Until != nil {
		return civil(*b.Until), true
	}
	if b.MaxCount > 0 {
		return time.Time{}, false
	}
	return DefaultUntil(start), true
}

// DefaultUntil is the first January 15 strictly after start.
func DefaultUntil(start time.Time) time.Time {
	start = civil(start)
	bound := time.Date(start.Year(), time.January, 15, 0, 0, 0, 0, time.UTC)
	if !bound.After(start) {
		bound = bound.AddDate(1, 0, 0)
	}
	return bound
}

// Generate returns the occurrence dates for spec starting at start, in
// strictly increasing order, never past the bound and never more than the
// bound's count (or SafetyCap).
func Generate(start time.Time, spec Spec, bound Bound) []time.Time {
	start = civil(start)
	maxCount := bound.maxCount()
	until, hasUntil := bound.limit(start)
	if hasUntil && until.Before(start) {
		return []time.Time{}
	}

	// byDays outranks every option except an explicit none and the legacy
	// fixed cadence; an empty option with byDays is custom.
	switch {
	case spec.RepeatOption == RepeatNone:
		return []time.Time{start}
	case spec.RepeatOption == RepeatEvery234:
		return stepped(start, rrule.WEEKLY, 2, maxCount, until, hasUntil)
	case len(spec.ByDays) > 0:
		return walkDays(start, spec, maxCount, until, hasUntil)
	case spec.RepeatOption == "":
		return []time.Time{start}
	case spec.RepeatOption == RepeatDaily:
		return stepped(start, rrule.DAILY, 1, maxCount, until, hasUntil)
	case spec.RepeatOption == RepeatMonthly:
		return stepped(start, rrule.MONTHLY, 1, maxCount, until, hasUntil)
	case spec.RepeatOption == RepeatBiweekly:
		return stepped(start, rrule.WEEKLY, 2, maxCount, until, hasUntil)
	default:
		return stepped(start, rrule.WEEKLY, spec.interval(), maxCount, until, hasUntil)
	}
}

// walkDays visits each day from start and keeps those whose weekday is
// selected and whose week window (counted from start) is on the interval.
func walkDays(start time.Time, spec Spec, maxCount int, until time.Time, hasUntil bool) []time.Time {
	interval := spec.interval()
	out := make([]time.Time, 0, min(maxCount, 16))

	for day := 0; day < SafetyCap && len(out) < maxCount; day++ {
		current := start.AddDate(0, 0, day)
		if hasUntil && current.After(until) {
			break
		}
		weekIndex := day / 7
		if weekIndex%interval != 0 {
			continue
		}
		if slices.Contains(spec.ByDays, int(current.Weekday())) {
			out = append(out, current)
		}
	}
	return out
}

// stepped expands a fixed-cadence rule through rrule-go and trims it to the bound.
func stepped(start time.Time, freq rrule.Frequency, interval, maxCount int, until time.Time, hasUntil bool) []time.Time {
	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     freq,
		Interval: interval,
		Dtstart:  start,
		Count:    maxCount,
	})
	var dates []time.Time
	if err != nil {
		dates = manualStep(start, freq, interval, maxCount)
	} else {
		dates = rule.All()
	}

	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		d = civil(d)
		if hasUntil && d.After(until) {
			break
		}
		out = append(out, d)
	}
	return out
}

func manualStep(start time.Time, freq rrule.Frequency, interval, maxCount int) []time.Time {
	out := make([]time.Time, 0, maxCount)
	for i := 0; i < maxCount; i++ {
		switch freq {
		case rrule.DAILY:
			out = append(out, start.AddDate(0, 0, i*interval))
		case rrule.MONTHLY:
			out = append(out, start.AddDate(0, i*interval, 0))
		default:
			out = append(out, start.AddDate(0, 0, 7*i*interval))
		}
	}
	return out
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
