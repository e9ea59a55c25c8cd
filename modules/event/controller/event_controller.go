package controller

import (
	"uniplanner/core/controller"
	"uniplanner/core/errors"
	"uniplanner/modules/event/dto"
	"uniplanner/modules/event/validator"

	"github.com/labstack/echo/v4"
)

// PrivateCreateEvent creates one event or a materialized series
// @Summary Create an event
// @Description Creates a single event, or with repeatOption a series of occurrences and/or a template
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateEventRequest true "Event"
// @Success 201 {object} dto.CreateEventResponse
// @Failure 400 {object} controller.ErrorResponse
// @Router /private/events [post]
func (ctl *EventController) PrivateCreateEvent(c echo.Context) error {
	ownerID, err := controller.OwnerID(c)
	if err != nil {
		return ctl.ErrorResponse(c, err)
	}

	requestData := new(dto.CreateEventRequest)
	if err := c.Bind(requestData); err != nil {
		return ctl.BadRequest(errors.ErrInvalidRequestData, "Invalid request data", nil)
	}

	validationResult := validator.ValidateCreateEventRequest(requestData)
	if validationResult.HasError() {
		return ctl.BadRequest(errors.ErrInvalidInput, "Invalid request data", validationResult)
	}

	result, appErr := ctl.EventService.CreateEvent(c.Request().Context(), ownerID, requestData)
	if appErr != nil {
		return ctl.ErrorResponse(c, appErr)
	}

	return ctl.CreatedResponse(c, result, "create event success")
}

// PrivateGetEvents lists active events
// @Summary List events
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param series_id query string false "Series id"
// @Param page_number query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.PaginatedEventResponse
// @Router /private/events [get]
func (ctl *EventController) PrivateGetEvents(c echo.Context) error {
	ownerID, err := controller.OwnerID(c)
	if err != nil {
		return ctl.ErrorResponse(c, err)
	}

	query := new(dto.ListEventsQuery)
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, query); err != nil {
		return ctl.BadRequest(errors.ErrInvalidRequestData, "Invalid query parameters", nil)
	}
	validationResult := validator.ValidateListEventsQuery(query)
	if validationResult.HasError() {
		return ctl.BadRequest(errors.ErrInvalidInput, "Invalid query parameters", validationResult)
	}

	events, appErr := ctl.EventService.ListEvents(c.Request().Context(), ownerID, query)
	if appErr != nil {
		return ctl.ErrorResponse(c, appErr)
	}

	return ctl.SuccessResponse(c, events, "get events success")
}

// PrivateGetArchivedEvents lists archived events
// @Summary List archived events
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {array} dto.EventResponse
// @Router /private/events/archived [get]
func (ctl *EventController) PrivateGetArchivedEvents(c echo.Context) error {
	ownerID, err := controller.OwnerID(c)
	if err != nil {
		return ctl.ErrorResponse(c, err)
	}

	query := new(dto.ListEventsQuery)
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, query); err != nil {
		return ctl.BadRequest(errors.ErrInvalidRequestData, "Invalid query parameters", nil)
	}
	validationResult := validator.ValidateListEventsQuery(query)
	if validationResult.HasError() {
		return ctl.BadRequest(errors.ErrInvalidInput, "Invalid query parameters", validationResult)
	}

	events, appErr := ctl.EventService.ListArchived(c.Request().Context(), ownerID, query)
	if appErr != nil {
		return ctl.ErrorResponse(c, appErr)
	}

	return ctl.SuccessResponse(c, events, "get archived events success")
}

// PrivateGetEventById returns an active or archived event
// @Summary Get an event
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event id"
// @Success 200 {object} dto.EventResponse
// @Failure 404 {object} controller.ErrorResponse
// @Router /private/events/{id} [get]
func (ctl *EventController) PrivateGetEventById(c echo.Context) error {
	ownerID, err := controller.OwnerID(c)
	if err != nil {
		return ctl.ErrorResponse(c, err)
	}

	event, appErr := ctl.EventService.GetEvent(c.Request().Context(), ownerID, c.Param("id"))
	if appErr != nil {
		return ctl.ErrorResponse(c, appErr)
	}

	return ctl.SuccessResponse(c, event, "get event success")
}

// PrivateUpdateEvent updates one event. archived=true/false moves it between collections.
// @Summary Update an event
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event id"
// @Param request body dto.UpdateEventRequest true "Fields to change"
// @Success 200 {object} dto.EventResponse
// @Failure 400 {object} controller.ErrorResponse
// @Failure 404 {object} controller.ErrorResponse
// @Router /private/events/{id} [patch]
func (ctl *EventController) PrivateUpdateEvent(c echo.Context) error {
	ownerID, err := controller.OwnerID(c)
	if err != nil {
		return ctl.ErrorResponse(c, err)
	}

	requestData := new(dto.UpdateEventRequest)
	if err := c.Bind(requestData); err != nil {
		return ctl.BadRequest(errors.ErrInvalidRequestData, "Invalid request data", nil)
	}

	validationResult := validator.ValidateUpdateEventRequest(requestData)
	if validationResult.HasError() {
		return ctl.BadRequest(errors.ErrInvalidInput, "Invalid request data", validationResult)
	}

	event, appErr := ctl.EventService.UpdateEvent(c.Request().Context(), ownerID, c.Param("id"), requestData)
	if appErr != nil {
		return ctl.ErrorResponse(c, appErr)
	}

	return ctl.SuccessResponse(c, event, "update event success")
}

// PrivateArchiveEvent
// @Summary Archive an event
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event id"
// @Success 200 {object} dto.EventResponse
// @Router /private/events/{id}/archive [post]
func (ctl *EventController) PrivateArchiveEvent(c echo.Context) error {
	ownerID, err := controller.OwnerID(c)
	if err != nil {
		return ctl.ErrorResponse(c, err)
	}

	event, appErr := ctl.EventService.ArchiveEvent(c.Request().Context(), ownerID, c.Param("id"))
	if appErr != nil {
		return ctl.ErrorResponse(c, appErr)
	}

	return ctl.SuccessResponse(c, event, "archive event success")
}

// PrivateUnarchiveEvent
// @Summary Unarchive an event
// @Description Restores an archived event. The restored event may receive a new id.
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Archived event id or original event id"
// @Success 200 {object} dto.EventResponse
// @Router /private/events/{id}/unarchive [post]
func (ctl *EventController) PrivateUnarchiveEvent(c echo.Context) error {
	ownerID, err := controller.OwnerID(c)
	if err != nil {
		return ctl.ErrorResponse(c, err)
	}

	event, appErr := ctl.EventService.UnarchiveEvent(c.Request().Context(), ownerID, c.Param("id"))
	if appErr != nil {
		return ctl.ErrorResponse(c, appErr)
	}

	return ctl.SuccessResponse(c, event, "unarchive event success")
}

// PrivateDeleteEvent deletes one occurrence or its whole series
// @Summary Delete an event
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event id"
// @Param scope query string false "single (default) or series"
// @Param future_only query bool false "Only occurrences on or after the target date"
// @Param allow_heuristic query bool false "Allow title+time matching"
// @Success 200 {object} dto.ScopedResponse
// @Failure 500 {object} controller.ErrorResponse
// @Router /private/events/{id} [delete]
func (ctl *EventController) PrivateDeleteEvent(c echo.Context) error {
	ownerID, err := controller.OwnerID(c)
	if err != nil {
		return ctl.ErrorResponse(c, err)
	}

	query := new(dto.DeleteEventQuery)
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, query); err != nil {
		return ctl.BadRequest(errors.ErrInvalidRequestData, "Invalid query parameters", nil)
	}
	validationResult := validator.ValidateDeleteEventQuery(query)
	if validationResult.HasError() {
		return ctl.BadRequest(errors.ErrInvalidInput, "Invalid query parameters", validationResult)
	}

	result, appErr := ctl.EventService.DeleteEvent(c.Request().Context(), ownerID, c.Param("id"), query)
	if appErr != nil {
		return ctl.ErrorResponse(c, appErr)
	}

	return ctl.SuccessResponse(c, result, "delete event success")
}

// PrivateUpdateScoped updates one occurrence or its whole series
// @Summary Scoped update
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event id"
// @Param request body dto.ScopedUpdateRequest true "Scope and patch"
// @Success 200 {object} dto.ScopedResponse
// @Router /private/events/{id}/scoped [patch]
func (ctl *EventController) PrivateUpdateScoped(c echo.Context) error {
	ownerID, err := controller.OwnerID(c)
	if err != nil {
		return ctl.ErrorResponse(c, err)
	}

	requestData := new(dto.ScopedUpdateRequest)
	if err := c.Bind(requestData); err != nil {
		return ctl.BadRequest(errors.ErrInvalidRequestData, "Invalid request data", nil)
	}

	validationResult := validator.ValidateScopedUpdateRequest(requestData)
	if validationResult.HasError() {
		return ctl.BadRequest(errors.ErrInvalidInput, "Invalid request data", validationResult)
	}

	result, appErr := ctl.EventService.UpdateScoped(c.Request().Context(), ownerID, c.Param("id"), requestData)
	if appErr != nil {
		return ctl.ErrorResponse(c, appErr)
	}

	return ctl.SuccessResponse(c, result, "update series success")
}

// PrivateGetSeries previews which occurrences a series operation would touch
// @Summary Resolve series
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event id"
// @Param future_only query bool false "Only occurrences on or after the target date"
// @Param allow_heuristic query bool false "Allow title+time matching"
// @Success 200 {object} dto.SeriesResponse
// @Router /private/events/{id}/series [get]
func (ctl *EventController) PrivateGetSeries(c echo.Context) error {
	ownerID, err := controller.OwnerID(c)
	if err != nil {
		return ctl.ErrorResponse(c, err)
	}

	query := new(dto.SeriesQuery)
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, query); err != nil {
		return ctl.BadRequest(errors.ErrInvalidRequestData, "Invalid query parameters", nil)
	}

	series, appErr := ctl.EventService.GetSeries(c.Request().Context(), ownerID, c.Param("id"), query)
	if appErr != nil {
		return ctl.ErrorResponse(c, appErr)
	}

	return ctl.SuccessResponse(c, series, "get series success")
}

// PrivateBackfillLegacyMeta queues the "[META]" description migration
// @Summary Backfill legacy series metadata
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.BackfillRequest false "Scope"
// @Success 200 {object} dto.TaskResponse
// @Router /private/events/maintenance/backfill-meta [post]
func (ctl *EventController) PrivateBackfillLegacyMeta(c echo.Context) error {
	ownerID, err := controller.OwnerID(c)
	if err != nil {
		return ctl.ErrorResponse(c, err)
	}

	requestData := new(dto.BackfillRequest)
	if err := c.Bind(requestData); err != nil {
		return ctl.BadRequest(errors.ErrInvalidRequestData, "Invalid request data", nil)
	}

	scope := ownerID
	if requestData.AllOwners {
		scope = ""
	}
	task, appErr := ctl.EventService.EnqueueLegacyMetaBackfill(c.Request().Context(), scope)
	if appErr != nil {
		return ctl.ErrorResponse(c, appErr)
	}

	return ctl.SuccessResponse(c, task, "backfill queued")
}
