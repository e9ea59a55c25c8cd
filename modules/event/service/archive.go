package service

import (
	"context"
	"time"

	"uniplanner/core/errors"
	"uniplanner/core/logger"
	"uniplanner/core/utils"
	"uniplanner/modules/event/entity"
	"uniplanner/modules/event/repository"
)

// The archive state machine moves one record between the active and archived
// collections. Callers run these inside a transaction; each transition is a
// create followed by a delete and must not be observed half done.

// archiveEvent moves ev to the archived collection. The archived row keeps
// the active id and records it as originalEventId.
func archiveEvent(ctx context.Context, repo repository.EventRepositoryInterface, ev *entity.Event, now time.Time) (*entity.ArchivedEvent, error) {
	archived := &entity.ArchivedEvent{
		Event:           *ev.Clone(),
		OriginalEventID: entity.StringPtr(ev.ID),
		ArchivedAt:      now.UTC(),
	}
	archived.UpdatedAt = now.UTC()

	if err := repo.CreateArchived(ctx, archived); err != nil {
		return nil, err
	}
	if err := repo.DeleteEvent(ctx, ev.ID); err != nil {
		return nil, err
	}
	logger.Info("ArchiveStateMachine:Archive", "event_id", ev.ID, "series_id", ev.SeriesID)
	return archived, nil
}

// unarchiveEvent recreates an active row from archived under a fresh id,
// since the old active id may have been released, then drops the archived row.
func unarchiveEvent(ctx context.Context, repo repository.EventRepositoryInterface, archived *entity.ArchivedEvent, now time.Time) (*entity.Event, error) {
	ev := archived.Event.Clone()
	ev.ID = utils.NewRecordID()
	ev.UpdatedAt = now.UTC()

	if err := repo.CreateEvent(ctx, ev); err != nil {
		return nil, err
	}
	if err := repo.DeleteArchived(ctx, archived.ID); err != nil {
		return nil, err
	}
	logger.Info("ArchiveStateMachine:Unarchive", "archived_id", archived.ID, "event_id", ev.ID, "series_id", ev.SeriesID)
	return ev, nil
}

// locateArchived finds an archived row by the id it had while active, then
// by its own id. Rows from before originalEventId was always written are
// only reachable the second way.
func locateArchived(ctx context.Context, repo repository.EventRepositoryInterface, id string) (*entity.ArchivedEvent, error) {
	archived, err := repo.FindArchivedByOriginalID(ctx, id)
	if err != nil {
		return nil, err
	}
	if archived != nil {
		return archived, nil
	}
	return repo.FindArchivedByID(ctx, id)
}

// record is whichever collection a target was found in.
type record struct {
	active   *entity.Event
	archived *entity.ArchivedEvent
}

func (r record) event() *entity.Event {
	if r.active != nil {
		return r.active
	}
	return &r.archived.Event
}

// locate resolves id for ownerID in the active collection first, then the
// archived one under either key. Rows of other owners are reported as missing.
func locate(ctx context.Context, repo repository.EventRepositoryInterface, ownerID, id string) (record, error) {
	ev, err := repo.FindEventByID(ctx, id)
	if err != nil {
		return record{}, err
	}
	if ev != nil && ev.OwnerID == ownerID {
		return record{active: ev}, nil
	}

	archived, err := locateArchived(ctx, repo, id)
	if err != nil {
		return record{}, err
	}
	if archived != nil && archived.OwnerID == ownerID {
		return record{archived: archived}, nil
	}
	return record{}, errors.NewAppError(errors.ErrNotFound, "event not found", nil)
}

// setArchived drives the state machine for an explicit archived flag. A
// request that matches the current state is a no-op.
func setArchived(ctx context.Context, repo repository.EventRepositoryInterface, rec record, archived bool, now time.Time) (record, error) {
	switch {
	case archived && rec.active != nil:
		moved, err := archiveEvent(ctx, repo, rec.active, now)
		if err != nil {
			return record{}, err
		}
		return record{archived: moved}, nil
	case !archived && rec.archived != nil:
		restored, err := unarchiveEvent(ctx, repo, rec.archived, now)
		if err != nil {
			return record{}, err
		}
		return record{active: restored}, nil
	}
	return rec, nil
}
