package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"uniplanner/core/constants"
	"uniplanner/core/errors"
	"uniplanner/core/logger"
	"uniplanner/core/queue"
	"uniplanner/modules/event/dto"
	"uniplanner/modules/event/entity"
	"uniplanner/modules/event/mapper"
	"uniplanner/modules/event/recurrence"
	"uniplanner/modules/event/repository"
)

// Options tune the engine per deployment.
type Options struct {
	Location *time.Location
	// LegacyMetaScan enables the "[META]" description strategy of the resolver.
	LegacyMetaScan bool
	// HeuristicMatching is the default for requests that do not choose.
	HeuristicMatching bool
	SeriesScanLimit   int
	Now               func() time.Time
}

// EventService owns the event lifecycle: creation and materialization,
// archive transitions and scoped mutations.
type EventService struct {
	repo     repository.EventRepositoryInterface
	queue    queue.Enqueuer
	opts     Options
	schedule *ScheduleValidator
}

type EventServiceInterface interface {
	CreateEvent(ctx context.Context, ownerID string, req *dto.CreateEventRequest) (*dto.CreateEventResponse, *errors.AppError)
	GetEvent(ctx context.Context, ownerID, id string) (*dto.EventResponse, *errors.AppError)
	ListEvents(ctx context.Context, ownerID string, query *dto.ListEventsQuery) (*dto.PaginatedEventResponse, *errors.AppError)
	ListArchived(ctx context.Context, ownerID string, query *dto.ListEventsQuery) ([]dto.EventResponse, *errors.AppError)
	UpdateEvent(ctx context.Context, ownerID, id string, req *dto.UpdateEventRequest) (*dto.EventResponse, *errors.AppError)
	ArchiveEvent(ctx context.Context, ownerID, id string) (*dto.EventResponse, *errors.AppError)
	UnarchiveEvent(ctx context.Context, ownerID, id string) (*dto.EventResponse, *errors.AppError)
	DeleteEvent(ctx context.Context, ownerID, id string, query *dto.DeleteEventQuery) (*dto.ScopedResponse, *errors.AppError)
	UpdateScoped(ctx context.Context, ownerID, id string, req *dto.ScopedUpdateRequest) (*dto.ScopedResponse, *errors.AppError)
	Apply(ctx context.Context, ownerID string, req ScopedRequest) (*ScopedResult, *errors.AppError)
	GetSeries(ctx context.Context, ownerID, id string, query *dto.SeriesQuery) (*dto.SeriesResponse, *errors.AppError)

	CreateTemplate(ctx context.Context, ownerID string, req *dto.CreateTemplateRequest) (*dto.TemplateResponse, *errors.AppError)
	ListTemplates(ctx context.Context, ownerID string) ([]dto.TemplateResponse, *errors.AppError)
	MaterializeTemplate(ctx context.Context, ownerID, templateID string, req *dto.MaterializeTemplateRequest) (*dto.CreateEventResponse, *errors.AppError)

	EnqueueLegacyMetaBackfill(ctx context.Context, ownerID string) (*dto.TaskResponse, *errors.AppError)
	BackfillLegacyMeta(ctx context.Context, ownerID string) (*dto.BackfillReport, *errors.AppError)
}

// NewEventService wires the engine. enqueuer may be nil when no queue is configured.
func NewEventService(repo repository.EventRepositoryInterface, enqueuer queue.Enqueuer, opts Options) EventServiceInterface {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SeriesScanLimit <= 0 {
		opts.SeriesScanLimit = constants.DefaultSeriesScanLimit
	}
	return &EventService{
		repo:     repo,
		queue:    enqueuer,
		opts:     opts,
		schedule: NewScheduleValidator(opts.Location, opts.Now),
	}
}

// runTx runs fn in one transaction. A write rejected for an unknown optional
// column is retried once; the repository has already dropped that column from
// its field set by then. fn must not carry state between attempts.
func (s *EventService) runTx(ctx context.Context, op string, failCode errors.ErrorCode, fn func(repo repository.EventRepositoryInterface) error) *errors.AppError {
	err := s.repo.WithTx(ctx, fn)
	if err != nil && repository.IsUnknownField(err) {
		logger.Warn(op+":SchemaRetry", "error", err)
		err = s.repo.WithTx(ctx, fn)
		if err != nil && repository.IsUnknownField(err) {
			logger.Error(op+":SchemaMismatch", "error", err)
			return errors.NewAppError(errors.ErrSchemaMismatch, "storage schema does not support a required field", err)
		}
	}
	if err == nil {
		return nil
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}
	logger.Error(op+":Failed", "error", err)
	if failCode == errors.ErrTransactionFailed {
		return errors.NewAppError(failCode, "operation could not be applied atomically; nothing was changed", err)
	}
	return errors.NewAppError(failCode, "operation failed", err)
}

func (s *EventService) now() time.Time {
	return s.opts.Now()
}

func (s *EventService) resolveOptions(futureOnly bool, allowHeuristic *bool) ResolveOptions {
	heuristic := s.opts.HeuristicMatching
	if allowHeuristic != nil {
		heuristic = *allowHeuristic
	}
	return ResolveOptions{
		FutureOnly:     futureOnly,
		AllowEmbedded:  s.opts.LegacyMetaScan,
		AllowHeuristic: heuristic,
		ScanLimit:      s.opts.SeriesScanLimit,
	}
}

// ===================== Create =====================

func (s *EventService) CreateEvent(ctx context.Context, ownerID string, req *dto.CreateEventRequest) (*dto.CreateEventResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	start, err := entity.ParseDate(req.Date)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
	}
	spec := recurrence.Spec{
		RepeatOption:  recurrence.RepeatOption(req.RepeatOption),
		ByDays:        req.ByDays,
		IntervalWeeks: req.IntervalWeeks,
	}
	if spec.RepeatOption == "" {
		spec.RepeatOption = recurrence.RepeatNone
		if len(spec.ByDays) > 0 {
			spec.RepeatOption = recurrence.RepeatCustom
		}
	}
	if err := spec.Validate(); err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
	}

	repeating := spec.RepeatOption != recurrence.RepeatNone
	materialize := req.Materialize || req.MaterializeCount > 0 || req.MaterializeUntil != nil
	if repeating && !materialize && !req.SaveTemplate {
		return nil, errors.NewAppError(errors.ErrMustSpecifyTemplateOrMaterialize,
			"a repeating event must either be materialized or saved as a template", nil)
	}

	clock := normalizeClock(req.Time)
	if appErr := s.schedule.ValidateStart(start, clock); appErr != nil {
		return nil, appErr
	}

	base := entity.Event{
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(req.Title),
		Type:        req.Type,
		CourseID:    req.CourseID,
		Color:       req.Color,
		Date:        start,
		Time:        clock,
		Description: req.Description,
	}
	if req.EndDate != nil {
		end, err := entity.ParseDate(*req.EndDate)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
		}
		if end.Before(start) {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "endDate is before date", nil)
		}
		base.EndDate = &end
	}

	plan := occurrencePlan{base: base, spec: spec}
	if !repeating || materialize {
		bound := recurrence.Bound{MaxCount: req.MaterializeCount}
		if req.MaterializeUntil != nil {
			until, err := entity.ParseDate(*req.MaterializeUntil)
			if err != nil {
				return nil, errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
			}
			if until.Before(start) {
				return nil, errors.NewAppError(errors.ErrInvalidInput, "materializeUntil is before date", nil)
			}
			bound.Until = &until.Time
		}
		plan.dates = toDates(recurrence.Generate(start.Time, spec, bound))
	}
	if repeating && req.SaveTemplate {
		plan.template = &entity.EventTemplate{
			OwnerID:       ownerID,
			Title:         base.Title,
			CourseID:      req.CourseID,
			RepeatOption:  string(spec.RepeatOption),
			ByDays:        entity.Weekdays(spec.ByDays),
			IntervalWeeks: spec.IntervalWeeks,
			StartDate:     start,
		}
		plan.saveTemplate = true
	}

	logger.Info("EventService:CreateEvent:Request", "owner_id", ownerID, "repeat_option", spec.RepeatOption,
		"occurrences", len(plan.dates), "save_template", plan.template != nil)

	var created []*entity.Event
	appErr := s.runTx(ctx, "EventService:CreateEvent", errors.ErrCreateFailed, func(repo repository.EventRepositoryInterface) error {
		var err error
		created, err = s.materialize(ctx, repo, plan)
		return err
	})
	if appErr != nil {
		return nil, appErr
	}
	return mapper.ToCreateEventResponse(created, plan.template), nil
}

// ===================== Read =====================

func (s *EventService) GetEvent(ctx context.Context, ownerID, id string) (*dto.EventResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	rec, err := locate(ctx, s.repo, ownerID, id)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return nil, appErr
		}
		return nil, errors.NewAppError(errors.ErrGetFailed, "get event failed", err)
	}
	return recordResponse(rec), nil
}

func (s *EventService) listFilter(ownerID string, query *dto.ListEventsQuery) (repository.EventFilter, int, int, *errors.AppError) {
	filter := repository.EventFilter{OwnerID: ownerID}
	if query == nil {
		query = &dto.ListEventsQuery{}
	}
	if query.From != "" {
		from, err := entity.ParseDate(query.From)
		if err != nil {
			return filter, 0, 0, errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
		}
		filter.FromDate = &from
	}
	if query.To != "" {
		to, err := entity.ParseDate(query.To)
		if err != nil {
			return filter, 0, 0, errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
		}
		filter.ToDate = &to
	}
	if query.SeriesID != "" {
		seriesID := query.SeriesID
		filter.SeriesID = &seriesID
	}

	page := query.PageNumber
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size < 1 {
		size = constants.DefaultPageSize
	}
	if size > constants.MaxPageSize {
		size = constants.MaxPageSize
	}
	filter.Limit = size
	filter.Offset = (page - 1) * size
	return filter, page, size, nil
}

func (s *EventService) ListEvents(ctx context.Context, ownerID string, query *dto.ListEventsQuery) (*dto.PaginatedEventResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	filter, page, size, appErr := s.listFilter(ownerID, query)
	if appErr != nil {
		return nil, appErr
	}
	total, err := s.repo.CountEvents(ctx, filter)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "list events failed", err)
	}
	events, err := s.repo.FindEvents(ctx, filter)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "list events failed", err)
	}
	logger.Info("EventService:ListEvents:Result", "owner_id", ownerID, "total_items", total, "page_number", page)
	return mapper.ToPaginatedEventResponse(events, total, page, size), nil
}

func (s *EventService) ListArchived(ctx context.Context, ownerID string, query *dto.ListEventsQuery) ([]dto.EventResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	filter, _, _, appErr := s.listFilter(ownerID, query)
	if appErr != nil {
		return nil, appErr
	}
	archived, err := s.repo.FindArchived(ctx, filter)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "list archived events failed", err)
	}
	return mapper.ToArchivedEventResponses(archived), nil
}

// ===================== Single updates & archive =====================

func (s *EventService) UpdateEvent(ctx context.Context, ownerID, id string, req *dto.UpdateEventRequest) (*dto.EventResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	patch, appErr := PatchFromRequest(req)
	if appErr != nil {
		return nil, appErr
	}
	if patch.Date != nil {
		if appErr := s.schedule.ValidateDate(*patch.Date); appErr != nil {
			return nil, appErr
		}
	}

	var result record
	appErr = s.runTx(ctx, "EventService:UpdateEvent", errors.ErrUpdateFailed, func(repo repository.EventRepositoryInterface) error {
		rec, err := locate(ctx, repo, ownerID, id)
		if err != nil {
			return err
		}
		shift := patch.shiftFor(rec.event())
		if appErr := s.validateReschedule(rec.event(), patch, shift); appErr != nil {
			return appErr
		}
		result, err = s.mutate(ctx, repo, rec, patch, shift)
		return err
	})
	if appErr != nil {
		return nil, appErr
	}
	return recordResponse(result), nil
}

func (s *EventService) ArchiveEvent(ctx context.Context, ownerID, id string) (*dto.EventResponse, *errors.AppError) {
	archived := true
	return s.UpdateEvent(ctx, ownerID, id, &dto.UpdateEventRequest{Archived: &archived})
}

func (s *EventService) UnarchiveEvent(ctx context.Context, ownerID, id string) (*dto.EventResponse, *errors.AppError) {
	archived := false
	return s.UpdateEvent(ctx, ownerID, id, &dto.UpdateEventRequest{Archived: &archived})
}

// mutate applies patch to one record, then drives the archive transition the
// patch asks for.
func (s *EventService) mutate(ctx context.Context, repo repository.EventRepositoryInterface, rec record, patch Patch, shift int) (record, error) {
	if patch.HasFieldChanges() {
		if rec.active != nil {
			ev := rec.active.Clone()
			patch.ApplyTo(ev, shift)
			if err := repo.UpdateEvent(ctx, ev); err != nil {
				return record{}, err
			}
			rec = record{active: ev}
		} else {
			archived := rec.archived.Clone()
			patch.ApplyTo(&archived.Event, shift)
			if err := repo.UpdateArchived(ctx, archived); err != nil {
				return record{}, err
			}
			rec = record{archived: archived}
		}
	}
	if patch.Archived != nil {
		return setArchived(ctx, repo, rec, *patch.Archived, s.now())
	}
	return rec, nil
}

// validateReschedule checks the instant target would move to. Patches that
// leave date and time alone are not reschedules.
func (s *EventService) validateReschedule(target *entity.Event, patch Patch, shift int) *errors.AppError {
	if !patch.Reschedules() {
		return nil
	}
	moved := target.Clone()
	patch.ApplyTo(moved, shift)
	return s.schedule.ValidateStart(moved.Date, moved.Time)
}

func recordResponse(rec record) *dto.EventResponse {
	if rec.active != nil {
		return mapper.ToEventResponse(rec.active)
	}
	return mapper.ToArchivedEventResponse(rec.archived)
}

// normalizeClock trims clock and rewrites a parseable value as zero-padded
// "HH:MM", so "9:00" and "09:00" are stored alike. Unparseable input is kept
// for the schedule check to reject.
func normalizeClock(clock *string) *string {
	if clock == nil {
		return nil
	}
	v := strings.TrimSpace(*clock)
	if v == "" {
		return nil
	}
	if h, m, err := ParseClock(v); err == nil {
		v = fmt.Sprintf("%02d:%02d", h, m)
	}
	return &v
}

func toDates(ts []time.Time) []entity.Date {
	dates := make([]entity.Date, len(ts))
	for i, t := range ts {
		dates[i] = entity.DateOf(t)
	}
	return dates
}
