package service

import (
	"time"

	"uniplanner/core/constants"
	eventdto "uniplanner/modules/event/dto"

	ics "github.com/arran4/golang-ical"
)

const (
	productID        = "-//uniplanner//events//EN"
	propertySeriesID = ics.ComponentProperty("X-UNIPLANNER-SERIES-ID")
)

// RenderCalendar turns events into an iCalendar document. Timed events are
// anchored in loc and written in UTC; date-only events use VALUE=DATE with an
// exclusive DTEND. Occurrences are exported individually, never as RRULEs.
func RenderCalendar(name string, events []eventdto.EventResponse, loc *time.Location, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}
	cal.SetXWRTimezone(loc.String())

	for _, ev := range events {
		start, err := time.ParseInLocation(constants.DateLayout, ev.Date, loc)
		if err != nil {
			continue
		}
		lastDay := start
		if ev.EndDate != nil {
			if end, err := time.ParseInLocation(constants.DateLayout, *ev.EndDate, loc); err == nil && !end.Before(start) {
				lastDay = end
			}
		}

		vevent := cal.AddEvent(ev.ID)
		vevent.SetDtStampTime(stamp)
		vevent.SetModifiedAt(ev.UpdatedAt)
		vevent.SetSummary(ev.Title)
		if ev.Description != nil && *ev.Description != "" {
			vevent.SetDescription(*ev.Description)
		}
		if ev.Type != "" {
			vevent.SetProperty(ics.ComponentPropertyCategories, ev.Type)
		}
		if ev.SeriesID != nil {
			vevent.SetProperty(propertySeriesID, *ev.SeriesID)
		}
		if ev.Completed {
			vevent.SetStatus(ics.ObjectStatusCompleted)
		}

		if ev.Time == nil || *ev.Time == "" {
			vevent.SetAllDayStartAt(start)
			vevent.SetAllDayEndAt(lastDay.AddDate(0, 0, 1))
			continue
		}

		clock, err := time.Parse(constants.TimeLayout, *ev.Time)
		if err != nil {
			continue
		}
		startAt := time.Date(start.Year(), start.Month(), start.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
		endAt := time.Date(lastDay.Year(), lastDay.Month(), lastDay.Day(), clock.Hour(), clock.Minute(), 0, 0, loc).
			Add(constants.DefaultEventDuration)
		vevent.SetStartAt(startAt.UTC())
		vevent.SetEndAt(endAt.UTC())
	}

	return cal.Serialize()
}
