package mapper

import (
	"uniplanner/modules/event/dto"
	"uniplanner/modules/event/entity"
)

func ToEventResponse(e *entity.Event) *dto.EventResponse {
	response := &dto.EventResponse{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		Title:       e.Title,
		Type:        e.Type,
		CourseID:    e.CourseID,
		Color:       e.Color,
		Date:        e.Date.String(),
		Time:        e.Time,
		Description: e.Description,
		SeriesID:    e.SeriesID,
		Completed:   e.Completed,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.EndDate != nil {
		end := e.EndDate.String()
		response.EndDate = &end
	}
	if len(e.Meta) > 0 {
		response.Meta = map[string]any(e.Meta.Clone())
	}
	return response
}

func ToArchivedEventResponse(a *entity.ArchivedEvent) *dto.EventResponse {
	response := ToEventResponse(&a.Event)
	response.Archived = true
	response.OriginalEventID = a.OriginalEventID
	archivedAt := a.ArchivedAt
	response.ArchivedAt = &archivedAt
	return response
}

func ToEventResponses(events []*entity.Event) []dto.EventResponse {
	responses := make([]dto.EventResponse, len(events))
	for i, e := range events {
		responses[i] = *ToEventResponse(e)
	}
	return responses
}

func ToArchivedEventResponses(archived []entity.ArchivedEvent) []dto.EventResponse {
	responses := make([]dto.EventResponse, len(archived))
	for i := range archived {
		responses[i] = *ToArchivedEventResponse(&archived[i])
	}
	return responses
}

func ToPaginatedEventResponse(events []entity.Event, total, page, size int) *dto.PaginatedEventResponse {
	items := make([]dto.EventResponse, len(events))
	for i := range events {
		items[i] = *ToEventResponse(&events[i])
	}

	totalPages := 0
	if size > 0 {
		totalPages = (total + size - 1) / size
	}

	return &dto.PaginatedEventResponse{
		Items:      items,
		TotalItems: total,
		TotalPages: totalPages,
		PageNumber: page,
		PageSize:   size,
	}
}

func ToCreateEventResponse(created []*entity.Event, template *entity.EventTemplate) *dto.CreateEventResponse {
	response := &dto.CreateEventResponse{Events: ToEventResponses(created)}
	if len(created) > 0 {
		response.SeriesID = created[0].SeriesID
	}
	if template != nil && template.ID != "" {
		response.Template = ToTemplateResponse(template)
	}
	return response
}

func ToTemplateResponse(t *entity.EventTemplate) *dto.TemplateResponse {
	byDays := []int(t.ByDays)
	if byDays == nil {
		byDays = []int{}
	}
	response := &dto.TemplateResponse{
		ID:            t.ID,
		Title:         t.Title,
		CourseID:      t.CourseID,
		RepeatOption:  t.RepeatOption,
		ByDays:        byDays,
		IntervalWeeks: t.IntervalWeeks,
		StartDate:     t.StartDate.String(),
		CreatedAt:     t.CreatedAt,
	}
	if len(t.Payload) > 0 {
		response.Payload = map[string]any(t.Payload)
	}
	return response
}

func ToTemplateResponses(templates []entity.EventTemplate) []dto.TemplateResponse {
	responses := make([]dto.TemplateResponse, len(templates))
	for i := range templates {
		responses[i] = *ToTemplateResponse(&templates[i])
	}
	return responses
}

func ToSeriesResponse(targetID, strategy string, activeIDs, archivedIDs []string) *dto.SeriesResponse {
	if activeIDs == nil {
		activeIDs = []string{}
	}
	if archivedIDs == nil {
		archivedIDs = []string{}
	}
	return &dto.SeriesResponse{
		TargetID:    targetID,
		Strategy:    strategy,
		ActiveIDs:   activeIDs,
		ArchivedIDs: archivedIDs,
	}
}
