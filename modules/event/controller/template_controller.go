package controller

import (
	"uniplanner/core/controller"
	"uniplanner/core/errors"
	"uniplanner/modules/event/dto"
	"uniplanner/modules/event/validator"

	"github.com/labstack/echo/v4"
)

// PrivateCreateTemplate stores a reusable recurrence definition
// @Summary Create an event template
// @Tags EventTemplate
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateTemplateRequest true "Template"
// @Success 201 {object} dto.TemplateResponse
// @Router /private/event-templates [post]
func (ctl *EventController) PrivateCreateTemplate(c echo.Context) error {
	ownerID, err := controller.OwnerID(c)
	if err != nil {
		return ctl.ErrorResponse(c, err)
	}

	requestData := new(dto.CreateTemplateRequest)
	if err := c.Bind(requestData); err != nil {
		return ctl.BadRequest(errors.ErrInvalidRequestData, "Invalid request data", nil)
	}

	validationResult := validator.ValidateCreateTemplateRequest(requestData)
	if validationResult.HasError() {
		return ctl.BadRequest(errors.ErrInvalidInput, "Invalid request data", validationResult)
	}

	template, appErr := ctl.EventService.CreateTemplate(c.Request().Context(), ownerID, requestData)
	if appErr != nil {
		return ctl.ErrorResponse(c, appErr)
	}

	return ctl.CreatedResponse(c, template, "create template success")
}

// PrivateGetTemplates
// @Summary List event templates
// @Tags EventTemplate
// @Security BearerAuth
// @Produce json
// @Success 200 {array} dto.TemplateResponse
// @Router /private/event-templates [get]
func (ctl *EventController) PrivateGetTemplates(c echo.Context) error {
	ownerID, err := controller.OwnerID(c)
	if err != nil {
		return ctl.ErrorResponse(c, err)
	}

	templates, appErr := ctl.EventService.ListTemplates(c.Request().Context(), ownerID)
	if appErr != nil {
		return ctl.ErrorResponse(c, appErr)
	}

	return ctl.SuccessResponse(c, templates, "get templates success")
}

// PrivateMaterializeTemplate expands a template into events
// @Summary Materialize a template
// @Tags EventTemplate
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Template id"
// @Param request body dto.MaterializeTemplateRequest true "Bound and event fields"
// @Success 201 {object} dto.CreateEventResponse
// @Failure 400 {object} controller.ErrorResponse
// @Router /private/event-templates/{id}/materialize [post]
func (ctl *EventController) PrivateMaterializeTemplate(c echo.Context) error {
	ownerID, err := controller.OwnerID(c)
	if err != nil {
		return ctl.ErrorResponse(c, err)
	}

	requestData := new(dto.MaterializeTemplateRequest)
	if err := c.Bind(requestData); err != nil {
		return ctl.BadRequest(errors.ErrInvalidRequestData, "Invalid request data", nil)
	}

	validationResult := validator.ValidateMaterializeTemplateRequest(requestData)
	if validationResult.HasError() {
		return ctl.BadRequest(errors.ErrInvalidInput, "Invalid request data", validationResult)
	}

	result, appErr := ctl.EventService.MaterializeTemplate(c.Request().Context(), ownerID, c.Param("id"), requestData)
	if appErr != nil {
		return ctl.ErrorResponse(c, appErr)
	}

	return ctl.CreatedResponse(c, result, "materialize template success")
}
