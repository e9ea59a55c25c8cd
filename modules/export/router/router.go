package router

import (
	"uniplanner/core/middleware"
	"uniplanner/modules/export/controller"

	"github.com/labstack/echo/v4"
)

type ExportRouter struct {
	ExportController *controller.ExportController
}

func NewExportRouter(exportController *controller.ExportController) *ExportRouter {
	return &ExportRouter{ExportController: exportController}
}

// Setup registers under /events. The static segments win over the event
// router's /events/:id.
func (r *ExportRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	private := e.Group("/api/v1/private", mw.AuthMiddleware())
	private.GET("/events/export.ics", r.ExportController.PrivateExportICS)
	private.POST("/events/export", r.ExportController.PrivatePublishICS)
}
