package service

import (
	"context"
	"strings"

	"uniplanner/core/constants"
	"uniplanner/core/errors"
	"uniplanner/core/logger"
	"uniplanner/core/utils"
	"uniplanner/modules/event/dto"
	"uniplanner/modules/event/entity"
	"uniplanner/modules/event/mapper"
	"uniplanner/modules/event/recurrence"
	"uniplanner/modules/event/repository"
)

// occurrencePlan is everything needed to write one series. base supplies the
// shared fields; ID, Date and SeriesID are filled per occurrence.
type occurrencePlan struct {
	base     entity.Event
	dates    []entity.Date
	spec     recurrence.Spec
	template *entity.EventTemplate
	// saveTemplate writes template under a fresh id before the occurrences.
	saveTemplate bool
}

// materialize writes the plan. The first occurrence's id becomes the series id
// of every occurrence, including for a lone event.
func (s *EventService) materialize(ctx context.Context, repo repository.EventRepositoryInterface, plan occurrencePlan) ([]*entity.Event, error) {
	if plan.saveTemplate && plan.template != nil {
		plan.template.ID = utils.NewRecordID()
		if err := repo.CreateTemplate(ctx, plan.template); err != nil {
			return nil, err
		}
	}

	repeating := plan.spec.RepeatOption != "" && plan.spec.RepeatOption != recurrence.RepeatNone
	var seriesID string
	created := make([]*entity.Event, 0, len(plan.dates))
	for i, date := range plan.dates {
		ev := plan.base.Clone()
		ev.ID = utils.NewRecordID()
		if i == 0 {
			seriesID = ev.ID
		}
		ev.SeriesID = entity.StringPtr(seriesID)
		if ev.Type == "" {
			ev.Type = entity.DefaultEventType
		}
		if plan.base.EndDate != nil {
			end := plan.base.EndDate.AddDays(date.DaysSince(plan.base.Date))
			ev.EndDate = &end
		}
		ev.Date = date
		if repeating {
			ev.Meta = entity.JSONB{
				entity.MetaKeySeriesID:      seriesID,
				entity.MetaKeyRepeatOption:  string(plan.spec.RepeatOption),
				entity.MetaKeyByDays:        plan.spec.ByDays,
				entity.MetaKeyIntervalWeeks: plan.spec.IntervalWeeks,
			}
			if plan.template != nil {
				ev.Meta[entity.MetaKeyTemplateID] = plan.template.ID
			}
		}
		if err := repo.CreateEvent(ctx, ev); err != nil {
			return nil, err
		}
		created = append(created, ev)
	}
	return created, nil
}

func (s *EventService) CreateTemplate(ctx context.Context, ownerID string, req *dto.CreateTemplateRequest) (*dto.TemplateResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	start, err := entity.ParseDate(req.StartDate)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
	}
	spec := recurrence.Spec{RepeatOption: recurrence.RepeatOption(req.RepeatOption), ByDays: req.ByDays, IntervalWeeks: req.IntervalWeeks}
	if err := spec.Validate(); err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
	}

	template := &entity.EventTemplate{
		ID:            utils.NewRecordID(),
		OwnerID:       ownerID,
		Title:         strings.TrimSpace(req.Title),
		CourseID:      req.CourseID,
		RepeatOption:  string(spec.RepeatOption),
		ByDays:        entity.Weekdays(spec.ByDays),
		IntervalWeeks: spec.IntervalWeeks,
		StartDate:     start,
	}
	if req.Payload != nil {
		template.Payload = entity.JSONB(req.Payload)
	}
	if err := s.repo.CreateTemplate(ctx, template); err != nil {
		return nil, errors.NewAppError(errors.ErrCreateFailed, "create template failed", err)
	}
	return mapper.ToTemplateResponse(template), nil
}

func (s *EventService) ListTemplates(ctx context.Context, ownerID string) ([]dto.TemplateResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	templates, err := s.repo.FindTemplates(ctx, ownerID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "list templates failed", err)
	}
	return mapper.ToTemplateResponses(templates), nil
}

// MaterializeTemplate expands a stored template into events. Occurrences
// before today are skipped.
func (s *EventService) MaterializeTemplate(ctx context.Context, ownerID, templateID string, req *dto.MaterializeTemplateRequest) (*dto.CreateEventResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	template, err := s.repo.FindTemplateByID(ctx, templateID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "get template failed", err)
	}
	if template == nil || template.OwnerID != ownerID {
		return nil, errors.NewAppError(errors.ErrNotFound, "template not found", nil)
	}
	if req == nil {
		req = &dto.MaterializeTemplateRequest{}
	}

	spec := recurrence.Spec{
		RepeatOption:  recurrence.RepeatOption(template.RepeatOption),
		ByDays:        []int(template.ByDays),
		IntervalWeeks: template.IntervalWeeks,
	}
	bound := recurrence.Bound{MaxCount: req.Count}
	if req.Until != nil {
		until, err := entity.ParseDate(*req.Until)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
		}
		bound.Until = &until.Time
	}

	today := s.schedule.Today()
	dates := []entity.Date{}
	for _, d := range toDates(recurrence.Generate(template.StartDate.Time, spec, bound)) {
		if !d.Before(today) {
			dates = append(dates, d)
		}
	}
	if len(dates) == 0 {
		return nil, errors.NewAppError(errors.ErrPastDate, "template has no occurrences from today on", nil)
	}

	clock := normalizeClock(req.Time)
	if appErr := s.schedule.ValidateStart(dates[0], clock); appErr != nil {
		return nil, appErr
	}

	plan := occurrencePlan{
		base: entity.Event{
			OwnerID:     ownerID,
			Title:       template.Title,
			Type:        req.Type,
			CourseID:    template.CourseID,
			Color:       req.Color,
			Date:        dates[0],
			Time:        clock,
			Description: req.Description,
		},
		dates:    dates,
		spec:     spec,
		template: template,
	}
	logger.Info("EventService:MaterializeTemplate:Request", "template_id", templateID, "occurrences", len(dates))

	var created []*entity.Event
	appErr := s.runTx(ctx, "EventService:MaterializeTemplate", errors.ErrCreateFailed, func(repo repository.EventRepositoryInterface) error {
		var err error
		created, err = s.materialize(ctx, repo, plan)
		return err
	})
	if appErr != nil {
		return nil, appErr
	}
	return mapper.ToCreateEventResponse(created, template), nil
}
