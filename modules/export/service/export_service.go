package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"uniplanner/core/constants"
	"uniplanner/core/errors"
	"uniplanner/core/logger"
	"uniplanner/core/storage"
	"uniplanner/core/utils"
	eventdto "uniplanner/modules/event/dto"
	eventservice "uniplanner/modules/event/service"
	"uniplanner/modules/export/dto"

	"github.com/gosimple/slug"
)

const icsContentType = "text/calendar; charset=utf-8"

// EventLister is the part of the event service the export reads through.
type EventLister interface {
	ListEvents(ctx context.Context, ownerID string, query *eventdto.ListEventsQuery) (*eventdto.PaginatedEventResponse, *errors.AppError)
}

var _ EventLister = (eventservice.EventServiceInterface)(nil)

type ExportServiceInterface interface {
	RenderICS(ctx context.Context, ownerID string, query *dto.ExportQuery) ([]byte, *errors.AppError)
	PublishICS(ctx context.Context, ownerID string, req *dto.PublishRequest) (*dto.PublishResponse, *errors.AppError)
}

type ExportService struct {
	events EventLister
	store  storage.ObjectStore
	loc    *time.Location
	now    func() time.Time
}

// NewExportService wires the export. store may be nil; publishing then fails
// with a configuration error while rendering keeps working.
func NewExportService(events EventLister, store storage.ObjectStore, loc *time.Location) *ExportService {
	if loc == nil {
		loc = time.Local
	}
	return &ExportService{events: events, store: store, loc: loc, now: time.Now}
}

func (s *ExportService) RenderICS(ctx context.Context, ownerID string, query *dto.ExportQuery) ([]byte, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	events, appErr := s.collect(ctx, ownerID, query.From, query.To, query.SeriesID)
	if appErr != nil {
		return nil, appErr
	}
	logger.Info("ExportService:RenderICS", "owner_id", ownerID, "event_count", len(events))
	return []byte(RenderCalendar("", events, s.loc, s.now())), nil
}

func (s *ExportService) PublishICS(ctx context.Context, ownerID string, req *dto.PublishRequest) (*dto.PublishResponse, *errors.AppError) {
	if s.store == nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "object storage is not configured", storage.ErrNotConfigured)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.ExportUploadTimeout)
	defer cancel()

	events, appErr := s.collect(ctx, ownerID, req.From, req.To, req.SeriesID)
	if appErr != nil {
		return nil, appErr
	}

	name := req.Name
	if name == "" {
		name = "calendar"
	}
	body := RenderCalendar(name, events, s.loc, s.now())

	key := ObjectKey(ownerID, name)
	fullKey, err := s.store.Put(ctx, key, []byte(body), icsContentType)
	if err != nil {
		logger.Error("ExportService:PublishICS:Put", "owner_id", ownerID, "key", key, "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "upload calendar failed", err)
	}

	logger.Info("ExportService:PublishICS:Uploaded", "owner_id", ownerID, "key", fullKey, "event_count", len(events))
	return &dto.PublishResponse{Key: fullKey, EventCount: len(events)}, nil
}

// ObjectKey is "<owner>/<slugged name>-<short id>.ics".
func ObjectKey(ownerID, name string) string {
	base := slug.Make(name)
	if base == "" {
		base = "calendar"
	}
	return path.Join(ownerID, fmt.Sprintf("%s-%s.ics", base, utils.GenerateID()))
}

// collect reads every page of the owner's active events in range.
func (s *ExportService) collect(ctx context.Context, ownerID, from, to, seriesID string) ([]eventdto.EventResponse, *errors.AppError) {
	var all []eventdto.EventResponse
	query := &eventdto.ListEventsQuery{
		From:       from,
		To:         to,
		SeriesID:   seriesID,
		PageNumber: 1,
		PageSize:   constants.MaxPageSize,
	}
	for {
		page, appErr := s.events.ListEvents(ctx, ownerID, query)
		if appErr != nil {
			return nil, appErr
		}
		all = append(all, page.Items...)
		if len(page.Items) == 0 || query.PageNumber >= page.TotalPages {
			return all, nil
		}
		query.PageNumber++
	}
}
