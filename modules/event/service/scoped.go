package service

import (
	"context"

	"uniplanner/core/constants"
	"uniplanner/core/errors"
	"uniplanner/core/logger"
	"uniplanner/modules/event/dto"
	"uniplanner/modules/event/mapper"
	"uniplanner/modules/event/repository"
)

type Scope string

const (
	ScopeSingle Scope = "single"
	ScopeSeries Scope = "series"
)

// ScopedRequest targets one event, or its series, with a patch. A nil Patch
// deletes.
type ScopedRequest struct {
	TargetID       string
	Scope          Scope
	FutureOnly     bool
	Patch          *Patch
	AllowHeuristic *bool
}

// ScopedResult reports the rows touched. Scope is the scope actually
// applied; Degraded is set when a series request found no series.
type ScopedResult struct {
	AffectedCount int
	AffectedIDs   []string
	Scope         Scope
	Degraded      bool
	Strategy      Strategy
}

// Apply deletes or updates the target and, for series scope, every resolved
// member across both collections in one transaction. The member set is read
// once before the first write.
func (s *EventService) Apply(ctx context.Context, ownerID string, req ScopedRequest) (*ScopedResult, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	if req.Scope == "" {
		req.Scope = ScopeSingle
	}
	if req.Scope != ScopeSingle && req.Scope != ScopeSeries {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "scope must be single or series", nil)
	}
	if req.Patch != nil && req.Patch.Date != nil {
		if appErr := s.schedule.ValidateDate(*req.Patch.Date); appErr != nil {
			return nil, appErr
		}
	}

	var result *ScopedResult
	appErr := s.runTx(ctx, "EventService:Apply", errors.ErrTransactionFailed, func(repo repository.EventRepositoryInterface) error {
		var err error
		result, err = s.applyTx(ctx, repo, ownerID, req)
		return err
	})
	if appErr != nil {
		return nil, appErr
	}
	logger.Info("EventService:Apply:Result", "target_id", req.TargetID, "scope", result.Scope,
		"degraded", result.Degraded, "strategy", result.Strategy, "affected", result.AffectedCount)
	return result, nil
}

func (s *EventService) applyTx(ctx context.Context, repo repository.EventRepositoryInterface, ownerID string, req ScopedRequest) (*ScopedResult, error) {
	rec, err := locate(ctx, repo, ownerID, req.TargetID)
	if err != nil {
		return nil, err
	}
	target := rec.event().Clone()
	result := &ScopedResult{Scope: req.Scope, Strategy: StrategyNone, AffectedIDs: []string{}}

	var activeIDs, archivedIDs []string
	if req.Scope == ScopeSeries {
		series, err := ResolveSeries(ctx, repo, target, s.resolveOptions(req.FutureOnly, req.AllowHeuristic))
		if err != nil {
			return nil, err
		}
		if series.Empty() {
			logger.Warn("EventService:Apply:DegradedToSingle", "target_id", req.TargetID)
			result.Scope = ScopeSingle
			result.Degraded = true
		} else {
			result.Strategy = series.Strategy
			activeIDs, archivedIDs = series.ActiveIDs, series.ArchivedIDs
		}
	}
	if result.Scope == ScopeSingle {
		if rec.active != nil {
			activeIDs = []string{rec.active.ID}
		} else {
			archivedIDs = []string{rec.archived.ID}
		}
	}

	if req.Patch == nil {
		deleted, err := repo.DeleteEvents(ctx, activeIDs)
		if err != nil {
			return nil, err
		}
		deletedArchived, err := repo.DeleteArchivedMany(ctx, archivedIDs)
		if err != nil {
			return nil, err
		}
		result.AffectedCount = deleted + deletedArchived
		result.AffectedIDs = append(append(result.AffectedIDs, activeIDs...), archivedIDs...)
		return result, nil
	}

	patch := *req.Patch
	shift := patch.shiftFor(target)
	if appErr := s.validateReschedule(target, patch, shift); appErr != nil {
		return nil, appErr
	}

	for _, id := range activeIDs {
		ev, err := repo.FindEventByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if ev == nil {
			continue
		}
		updated, err := s.mutate(ctx, repo, record{active: ev}, patch, shift)
		if err != nil {
			return nil, err
		}
		result.AffectedIDs = append(result.AffectedIDs, updated.event().ID)
	}
	for _, id := range archivedIDs {
		archived, err := repo.FindArchivedByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if archived == nil {
			continue
		}
		updated, err := s.mutate(ctx, repo, record{archived: archived}, patch, shift)
		if err != nil {
			return nil, err
		}
		result.AffectedIDs = append(result.AffectedIDs, updated.event().ID)
	}
	result.AffectedCount = len(result.AffectedIDs)
	return result, nil
}

func (s *EventService) DeleteEvent(ctx context.Context, ownerID, id string, query *dto.DeleteEventQuery) (*dto.ScopedResponse, *errors.AppError) {
	req := ScopedRequest{TargetID: id, Scope: ScopeSingle}
	if query != nil {
		req.Scope = Scope(query.Scope)
		req.FutureOnly = query.FutureOnly
		req.AllowHeuristic = query.AllowHeuristic
	}
	result, appErr := s.Apply(ctx, ownerID, req)
	if appErr != nil {
		return nil, appErr
	}
	return toScopedResponse(result), nil
}

func (s *EventService) UpdateScoped(ctx context.Context, ownerID, id string, req *dto.ScopedUpdateRequest) (*dto.ScopedResponse, *errors.AppError) {
	patch, appErr := PatchFromRequest(&req.Patch)
	if appErr != nil {
		return nil, appErr
	}
	result, appErr := s.Apply(ctx, ownerID, ScopedRequest{
		TargetID:       id,
		Scope:          Scope(req.Scope),
		FutureOnly:     req.FutureOnly,
		Patch:          &patch,
		AllowHeuristic: req.AllowHeuristic,
	})
	if appErr != nil {
		return nil, appErr
	}
	return toScopedResponse(result), nil
}

// GetSeries previews what a series-scoped operation on id would touch.
func (s *EventService) GetSeries(ctx context.Context, ownerID, id string, query *dto.SeriesQuery) (*dto.SeriesResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	if query == nil {
		query = &dto.SeriesQuery{}
	}
	rec, err := locate(ctx, s.repo, ownerID, id)
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			return nil, appErr
		}
		return nil, errors.NewAppError(errors.ErrGetFailed, "get event failed", err)
	}
	series, err := ResolveSeries(ctx, s.repo, rec.event(), s.resolveOptions(query.FutureOnly, query.AllowHeuristic))
	if err != nil {
		return nil, errors.NewAppError(errors.ErrGetFailed, "resolve series failed", err)
	}
	return mapper.ToSeriesResponse(id, string(series.Strategy), series.ActiveIDs, series.ArchivedIDs), nil
}

func toScopedResponse(result *ScopedResult) *dto.ScopedResponse {
	return &dto.ScopedResponse{
		AffectedCount: result.AffectedCount,
		AffectedIDs:   result.AffectedIDs,
		Scope:         string(result.Scope),
		Degraded:      result.Degraded,
		Strategy:      string(result.Strategy),
	}
}
