package service

import (
	"fmt"
	"time"

	"uniplanner/core/constants"
	"uniplanner/core/errors"
	"uniplanner/modules/event/entity"
)

// ScheduleValidator judges dates and times against the wall clock of one
// location. Every create or reschedule of an event goes through it.
type ScheduleValidator struct {
	loc *time.Location
	now func() time.Time
}

func NewScheduleValidator(loc *time.Location, now func() time.Time) *ScheduleValidator {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &ScheduleValidator{loc: loc, now: now}
}

// Today is the current civil date in the validator's location.
func (v *ScheduleValidator) Today() entity.Date {
	return entity.DateOf(v.now().In(v.loc))
}

// ParseClock parses "HH:MM" (24h).
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse(constants.TimeLayout, s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

// Instant combines a civil date and an "HH:MM" clock in the validator's location.
func (v *ScheduleValidator) Instant(date entity.Date, clock string) (time.Time, error) {
	h, m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	y, mo, d := date.Date()
	return time.Date(y, mo, d, h, m, 0, 0, v.loc), nil
}

// ValidateDate rejects dates before today.
func (v *ScheduleValidator) ValidateDate(date entity.Date) *errors.AppError {
	if date.Before(v.Today()) {
		return errors.NewAppError(errors.ErrPastDate, fmt.Sprintf("date %s is in the past", date), nil)
	}
	return nil
}

// ValidateStart rejects timed starts sooner than MinScheduleOffset from now.
// All-day events (clock nil or empty) only get the date check.
func (v *ScheduleValidator) ValidateStart(date entity.Date, clock *string) *errors.AppError {
	if appErr := v.ValidateDate(date); appErr != nil {
		return appErr
	}
	if clock == nil || *clock == "" {
		return nil
	}
	start, err := v.Instant(date, *clock)
	if err != nil {
		return errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
	}
	earliest := v.now().In(v.loc).Add(constants.MinScheduleOffset)
	if start.Before(earliest) {
		return errors.NewAppError(errors.ErrSchedMinOffset,
			fmt.Sprintf("event must start at least %d minutes from now", int(constants.MinScheduleOffset/time.Minute)), nil)
	}
	return nil
}
