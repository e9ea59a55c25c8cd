package dto

import "time"

// ===================== Request DTOs =====================

// CreateEventRequest creates one event or, with a repeat option, a series.
type CreateEventRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Type        string  `json:"type" validate:"omitempty,max=32"`
	CourseID    *string `json:"courseId"`
	Color       string  `json:"color" validate:"omitempty,max=32"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"` // YYYY-MM-DD
	Time        *string `json:"time" validate:"omitempty,datetime=15:04"`     // HH:MM, nil = all-day
	EndDate     *string `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Description *string `json:"description"`

	RepeatOption     string  `json:"repeatOption" validate:"omitempty,oneof=none daily weekly biweekly every-2-3-4 monthly custom"`
	ByDays           []int   `json:"byDays" validate:"omitempty,dive,min=0,max=6"`
	IntervalWeeks    int     `json:"intervalWeeks" validate:"omitempty,min=1,max=52"`
	Materialize      bool    `json:"materialize"`
	MaterializeCount int     `json:"materializeCount" validate:"omitempty,min=1,max=365"`
	MaterializeUntil *string `json:"materializeUntil" validate:"omitempty,datetime=2006-01-02"`
	SaveTemplate     bool    `json:"saveTemplate"`
}

// UpdateEventRequest is a partial update. Absent fields are left untouched.
type UpdateEventRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Type        *string `json:"type" validate:"omitempty,max=32"`
	CourseID    *string `json:"courseId"`
	Color       *string `json:"color" validate:"omitempty,max=32"`
	Date        *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time        *string `json:"time" validate:"omitempty,datetime=15:04"`
	ClearTime   bool    `json:"clearTime"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
	Archived    *bool   `json:"archived"`
}

// ScopedUpdateRequest applies an update to one occurrence or its series.
type ScopedUpdateRequest struct {
	Scope          string             `json:"scope" validate:"required,oneof=single series"`
	FutureOnly     bool               `json:"futureOnly"`
	AllowHeuristic *bool              `json:"allowHeuristic"`
	Patch          UpdateEventRequest `json:"patch"`
}

// DeleteEventQuery is bound from the DELETE query string.
type DeleteEventQuery struct {
	Scope          string `query:"scope" validate:"omitempty,oneof=single series"`
	FutureOnly     bool   `query:"future_only"`
	AllowHeuristic *bool  `query:"allow_heuristic"`
}

// ListEventsQuery is bound from the list query string.
type ListEventsQuery struct {
	From       string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To         string `query:"to" validate:"omitempty,datetime=2006-01-02"`
	SeriesID   string `query:"series_id"`
	PageNumber int    `query:"page_number" validate:"omitempty,min=1"`
	PageSize   int    `query:"page_size" validate:"omitempty,min=1,max=500"`
}

// SeriesQuery previews the series a target belongs to.
type SeriesQuery struct {
	FutureOnly     bool  `query:"future_only"`
	AllowHeuristic *bool `query:"allow_heuristic"`
}

type CreateTemplateRequest struct {
	Title         string         `json:"title" validate:"required,max=200"`
	CourseID      *string        `json:"courseId"`
	RepeatOption  string         `json:"repeatOption" validate:"required,oneof=none daily weekly biweekly every-2-3-4 monthly custom"`
	ByDays        []int          `json:"byDays" validate:"omitempty,dive,min=0,max=6"`
	IntervalWeeks int            `json:"intervalWeeks" validate:"omitempty,min=1,max=52"`
	StartDate     string         `json:"startDate" validate:"required,datetime=2006-01-02"`
	Payload       map[string]any `json:"payload"`
}

// MaterializeTemplateRequest expands a stored template into events.
type MaterializeTemplateRequest struct {
	Count       int     `json:"count" validate:"omitempty,min=1,max=365"`
	Until       *string `json:"until" validate:"omitempty,datetime=2006-01-02"`
	Time        *string `json:"time" validate:"omitempty,datetime=15:04"`
	Type        string  `json:"type" validate:"omitempty,max=32"`
	Color       string  `json:"color" validate:"omitempty,max=32"`
	Description *string `json:"description"`
}

// BackfillRequest enqueues a legacy-metadata backfill of the caller's events,
// or of every owner's when AllOwners is set.
type BackfillRequest struct {
	AllOwners bool `json:"allOwners"`
}

// ===================== Response DTOs =====================

type EventResponse struct {
	ID              string         `json:"id"`
	OwnerID         string         `json:"ownerId"`
	Title           string         `json:"title"`
	Type            string         `json:"type"`
	CourseID        *string        `json:"courseId,omitempty"`
	Color           string         `json:"color,omitempty"`
	Date            string         `json:"date"`
	Time            *string        `json:"time,omitempty"`
	EndDate         *string        `json:"endDate,omitempty"`
	Description     *string        `json:"description,omitempty"`
	Meta            map[string]any `json:"meta,omitempty"`
	SeriesID        *string        `json:"seriesId,omitempty"`
	Completed       bool           `json:"completed"`
	Archived        bool           `json:"archived"`
	OriginalEventID *string        `json:"originalEventId,omitempty"`
	ArchivedAt      *time.Time     `json:"archivedAt,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

type PaginatedEventResponse struct {
	Items      []EventResponse `json:"items"`
	TotalItems int             `json:"totalItems"`
	TotalPages int             `json:"totalPages"`
	PageNumber int             `json:"pageNumber"`
	PageSize   int             `json:"pageSize"`
}

type CreateEventResponse struct {
	Events   []EventResponse   `json:"events"`
	SeriesID *string           `json:"seriesId,omitempty"`
	Template *TemplateResponse `json:"template,omitempty"`
}

// ScopedResponse reports what a scoped delete or update touched.
type ScopedResponse struct {
	AffectedCount int      `json:"affectedCount"`
	AffectedIDs   []string `json:"affectedIds"`
	Scope         string   `json:"scope"`
	Degraded      bool     `json:"degraded"`
	Strategy      string   `json:"strategy,omitempty"`
}

type SeriesResponse struct {
	TargetID    string   `json:"targetId"`
	Strategy    string   `json:"strategy"`
	ActiveIDs   []string `json:"activeIds"`
	ArchivedIDs []string `json:"archivedIds"`
}

type TemplateResponse struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	CourseID      *string        `json:"courseId,omitempty"`
	RepeatOption  string         `json:"repeatOption"`
	ByDays        []int          `json:"byDays"`
	IntervalWeeks int            `json:"intervalWeeks"`
	StartDate     string         `json:"startDate"`
	Payload       map[string]any `json:"payload,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

type TaskResponse struct {
	TaskID string `json:"taskId"`
	Queue  string `json:"queue"`
}

type BackfillReport struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
	Groups  int `json:"groups"`
}
