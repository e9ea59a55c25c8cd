package service

import (
	"context"

	"uniplanner/core/constants"
	"uniplanner/core/errors"
	"uniplanner/core/logger"
	"uniplanner/modules/event/dto"
	"uniplanner/modules/event/entity"
	"uniplanner/modules/event/repository"
	"uniplanner/modules/event/task"
)

type backfillMember struct {
	active   *entity.Event
	archived *entity.ArchivedEvent
	legacy   LegacyMeta
}

func (m backfillMember) event() *entity.Event {
	if m.active != nil {
		return m.active
	}
	return &m.archived.Event
}

// BackfillLegacyMeta rewrites every row carrying a "[META]" description block:
// rows with the same embedded identity get one seriesId, the identity moves
// into meta, and the block is removed from the description. An empty ownerID
// covers all owners.
func (s *EventService) BackfillLegacyMeta(ctx context.Context, ownerID string) (*dto.BackfillReport, *errors.AppError) {
	var report dto.BackfillReport
	appErr := s.runTx(ctx, "EventService:BackfillLegacyMeta", errors.ErrUpdateFailed, func(repo repository.EventRepositoryInterface) error {
		report = dto.BackfillReport{}
		filter := repository.EventFilter{
			OwnerID:             ownerID,
			DescriptionContains: legacyMetaMarker,
			Limit:               s.opts.SeriesScanLimit,
		}
		active, err := repo.FindEvents(ctx, filter)
		if err != nil {
			return err
		}
		archived, err := repo.FindArchived(ctx, filter)
		if err != nil {
			return err
		}
		report.Scanned = len(active) + len(archived)

		groups := map[string][]backfillMember{}
		order := []string{}
		add := func(m backfillMember) {
			ev := m.event()
			key, weak := m.legacy.Key()
			key = ev.OwnerID + "|" + key
			if weak {
				key += "|" + ev.Title
			}
			if _, ok := groups[key]; !ok {
				order = append(order, key)
			}
			groups[key] = append(groups[key], m)
		}
		for i := range active {
			if legacy, ok := ParseLegacyMeta(active[i].Description); ok {
				add(backfillMember{active: &active[i], legacy: legacy})
			}
		}
		for i := range archived {
			if legacy, ok := ParseLegacyMeta(archived[i].Description); ok {
				add(backfillMember{archived: &archived[i], legacy: legacy})
			}
		}

		for _, key := range order {
			members := groups[key]
			anchor := backfillAnchor(members)
			for _, m := range members {
				rewriteLegacy(m.event(), m.legacy, anchor)
				if m.active != nil {
					err = repo.UpdateEvent(ctx, m.active)
				} else {
					err = repo.UpdateArchived(ctx, m.archived)
				}
				if err != nil {
					return err
				}
				report.Updated++
			}
			report.Groups++
		}
		return nil
	})
	if appErr != nil {
		return nil, appErr
	}
	logger.Info("EventService:BackfillLegacyMeta:Result", "owner_id", ownerID,
		"scanned", report.Scanned, "updated", report.Updated, "groups", report.Groups)
	return &report, nil
}

// backfillAnchor prefers an existing seriesId column, then the embedded one,
// then the earliest active member's id.
func backfillAnchor(members []backfillMember) string {
	for _, m := range members {
		if sid := m.event().SeriesID; sid != nil && *sid != "" {
			return *sid
		}
	}
	for _, m := range members {
		if m.legacy.SeriesID != "" {
			return m.legacy.SeriesID
		}
	}
	for _, m := range members {
		if m.active != nil {
			return m.active.ID
		}
	}
	return members[0].event().ID
}

func rewriteLegacy(ev *entity.Event, legacy LegacyMeta, anchor string) {
	if ev.SeriesID == nil || *ev.SeriesID == "" {
		ev.SeriesID = entity.StringPtr(anchor)
	}
	meta := ev.Meta.Clone()
	if meta == nil {
		meta = entity.JSONB{}
	}
	meta[entity.MetaKeySeriesID] = *ev.SeriesID
	if legacy.TemplateID != "" {
		meta[entity.MetaKeyTemplateID] = legacy.TemplateID
	}
	if _, ok := meta.String(entity.MetaKeyRepeatOption); !ok && legacy.RepeatOption != "" {
		meta[entity.MetaKeyRepeatOption] = legacy.RepeatOption
	}
	ev.Meta = meta

	stripped := StripLegacyMeta(*ev.Description)
	if stripped == "" {
		ev.Description = nil
	} else {
		ev.Description = &stripped
	}
}

func (s *EventService) EnqueueLegacyMetaBackfill(ctx context.Context, ownerID string) (*dto.TaskResponse, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultTimeout)
	defer cancel()

	if s.queue == nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "background queue is not configured", nil)
	}
	t, err := task.NewBackfillLegacyMetaTask(ownerID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "build backfill task failed", err)
	}
	info, err := s.queue.EnqueueContext(ctx, t)
	if err != nil {
		logger.Error("EventService:EnqueueLegacyMetaBackfill", "owner_id", ownerID, "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "enqueue backfill failed", err)
	}
	logger.Info("EventService:EnqueueLegacyMetaBackfill:Enqueued", "task_id", info.ID, "queue", info.Queue)
	return &dto.TaskResponse{TaskID: info.ID, Queue: info.Queue}, nil
}
