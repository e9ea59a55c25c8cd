package entity

import "time"

// Meta keys carried in Event.Meta.
const (
	MetaKeySeriesID      = "seriesId"
	MetaKeyTemplateID    = "templateId"
	MetaKeyRepeatOption  = "repeatOption"
	MetaKeyByDays        = "byDays"
	MetaKeyIntervalWeeks = "intervalWeeks"
)

const DefaultEventType = "event"

// Event is an active occurrence.
type Event struct {
	ID          string    `db:"id"`
	OwnerID     string    `db:"owner_id"`
	Title       string    `db:"title"`
	Type        string    `db:"type"`
	CourseID    *string   `db:"course_id"`
	Color       string    `db:"color"`
	Date        Date      `db:"date"`
	Time        *string   `db:"time"`
	EndDate     *Date     `db:"end_date"`
	Description *string   `db:"description"`
	Meta        JSONB     `db:"meta"`
	SeriesID    *string   `db:"series_id"`
	Completed   bool      `db:"completed"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// IsTimed reports whether the event has a time of day.
func (e *Event) IsTimed() bool {
	return e.Time != nil && *e.Time != ""
}

func (e *Event) Clone() *Event {
	c := *e
	c.CourseID = cloneString(e.CourseID)
	c.Time = cloneString(e.Time)
	c.Description = cloneString(e.Description)
	c.SeriesID = cloneString(e.SeriesID)
	c.Meta = e.Meta.Clone()
	if e.EndDate != nil {
		d := *e.EndDate
		c.EndDate = &d
	}
	return &c
}

// ArchivedEvent is an event moved out of the active collection.
// OriginalEventID is the id the row had while active; rows written before
// that column was populated are keyed by ID only.
type ArchivedEvent struct {
	Event
	OriginalEventID *string   `db:"original_event_id"`
	ArchivedAt      time.Time `db:"archived_at"`
}

func (a *ArchivedEvent) Clone() *ArchivedEvent {
	c := *a
	c.Event = *a.Event.Clone()
	c.OriginalEventID = cloneString(a.OriginalEventID)
	return &c
}

// EventTemplate is a stored recurrence definition.
type EventTemplate struct {
	ID            string    `db:"id"`
	OwnerID       string    `db:"owner_id"`
	Title         string    `db:"title"`
	CourseID      *string   `db:"course_id"`
	RepeatOption  string    `db:"repeat_option"`
	ByDays        Weekdays  `db:"by_days"`
	IntervalWeeks int       `db:"interval_weeks"`
	StartDate     Date      `db:"start_date"`
	Payload       JSONB     `db:"payload"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func StringPtr(s string) *string {
	return &s
}
