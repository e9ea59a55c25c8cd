package controller

import (
	"net/http"

	"uniplanner/core/controller"
	"uniplanner/core/errors"
	"uniplanner/core/validation"
	"uniplanner/modules/export/dto"
	"uniplanner/modules/export/service"

	"github.com/labstack/echo/v4"
)

type ExportController struct {
	controller.BaseController
	ExportService service.ExportServiceInterface
}

func NewExportController(svc service.ExportServiceInterface) *ExportController {
	return &ExportController{
		BaseController: controller.NewBaseController(),
		ExportService:  svc,
	}
}

// PrivateExportICS streams the caller's events as an iCalendar feed
// @Summary Export events as iCalendar
// @Tags Export
// @Security BearerAuth
// @Produce text/calendar
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param series_id query string false "Series id"
// @Success 200 {string} string
// @Router /private/events/export.ics [get]
func (ctl *ExportController) PrivateExportICS(c echo.Context) error {
	ownerID, err := controller.OwnerID(c)
	if err != nil {
		return ctl.ErrorResponse(c, err)
	}

	query := new(dto.ExportQuery)
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, query); err != nil {
		return ctl.BadRequest(errors.ErrInvalidRequestData, "Invalid query parameters", nil)
	}
	validationResult := validation.Struct(query)
	if validationResult.HasError() {
		return ctl.BadRequest(errors.ErrInvalidInput, "Invalid query parameters", validationResult)
	}

	body, appErr := ctl.ExportService.RenderICS(c.Request().Context(), ownerID, query)
	if appErr != nil {
		return ctl.ErrorResponse(c, appErr)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="events.ics"`)
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", body)
}

// PrivatePublishICS uploads the feed to object storage
// @Summary Publish events to object storage
// @Tags Export
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.PublishRequest true "Feed name and range"
// @Success 201 {object} dto.PublishResponse
// @Router /private/events/export [post]
func (ctl *ExportController) PrivatePublishICS(c echo.Context) error {
	ownerID, err := controller.OwnerID(c)
	if err != nil {
		return ctl.ErrorResponse(c, err)
	}

	requestData := new(dto.PublishRequest)
	if err := c.Bind(requestData); err != nil {
		return ctl.BadRequest(errors.ErrInvalidRequestData, "Invalid request data", nil)
	}
	validationResult := validation.Struct(requestData)
	if validationResult.HasError() {
		return ctl.BadRequest(errors.ErrInvalidInput, "Invalid request data", validationResult)
	}

	result, appErr := ctl.ExportService.PublishICS(c.Request().Context(), ownerID, requestData)
	if appErr != nil {
		return ctl.ErrorResponse(c, appErr)
	}

	return ctl.CreatedResponse(c, result, "publish calendar success")
}
