package service

import (
	"strings"

	"uniplanner/core/errors"
	"uniplanner/modules/event/dto"
	"uniplanner/modules/event/entity"
)

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title       *string
	Type        *string
	CourseID    *string
	Color       *string
	Date        *entity.Date
	Time        *string
	ClearTime   bool
	Description *string
	Completed   *bool
	Archived    *bool
}

func PatchFromRequest(req *dto.UpdateEventRequest) (Patch, *errors.AppError) {
	if req == nil {
		return Patch{}, nil
	}
	patch := Patch{
		Type:        req.Type,
		CourseID:    req.CourseID,
		Color:       req.Color,
		Description: req.Description,
		Completed:   req.Completed,
		Archived:    req.Archived,
		ClearTime:   req.ClearTime,
	}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return Patch{}, errors.NewAppError(errors.ErrInvalidInput, "title must not be empty", nil)
		}
		patch.Title = &title
	}
	if req.Date != nil {
		date, err := entity.ParseDate(*req.Date)
		if err != nil {
			return Patch{}, errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
		}
		patch.Date = &date
	}
	if req.Time != nil && !req.ClearTime {
		if _, _, err := ParseClock(*req.Time); err != nil {
			return Patch{}, errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
		}
		patch.Time = normalizeClock(req.Time)
	}
	return patch, nil
}

// HasFieldChanges reports whether anything besides the archived flag is set.
func (p Patch) HasFieldChanges() bool {
	return p.Title != nil || p.Type != nil || p.CourseID != nil || p.Color != nil ||
		p.Date != nil || p.Time != nil || p.ClearTime || p.Description != nil || p.Completed != nil
}

func (p Patch) Reschedules() bool {
	return p.Date != nil || p.Time != nil
}

// shiftFor is the day delta that moves anchor to the patched date. Series
// updates apply the same delta to every occurrence.
func (p Patch) shiftFor(anchor *entity.Event) int {
	if p.Date == nil {
		return 0
	}
	return p.Date.DaysSince(anchor.Date)
}

// ApplyTo writes the patch onto ev, moving its dates by shift days.
func (p Patch) ApplyTo(ev *entity.Event, shift int) {
	if p.Title != nil {
		ev.Title = *p.Title
	}
	if p.Type != nil {
		ev.Type = *p.Type
	}
	if p.CourseID != nil {
		if *p.CourseID == "" {
			ev.CourseID = nil
		} else {
			ev.CourseID = entity.StringPtr(*p.CourseID)
		}
	}
	if p.Color != nil {
		ev.Color = *p.Color
	}
	if p.Date != nil && shift != 0 {
		ev.Date = ev.Date.AddDays(shift)
		if ev.EndDate != nil {
			end := ev.EndDate.AddDays(shift)
			ev.EndDate = &end
		}
	}
	if p.ClearTime {
		ev.Time = nil
	} else if p.Time != nil {
		ev.Time = entity.StringPtr(*p.Time)
	}
	if p.Description != nil {
		ev.Description = entity.StringPtr(*p.Description)
	}
	if p.Completed != nil {
		ev.Completed = *p.Completed
	}
}
