package export

import (
	"time"

	"uniplanner/core/middleware"
	"uniplanner/core/storage"
	"uniplanner/modules/export/controller"
	"uniplanner/modules/export/router"
	"uniplanner/modules/export/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, events service.EventLister, store storage.ObjectStore, loc *time.Location, mw *middleware.Middleware) {
	exportService := service.NewExportService(events, store, loc)
	exportController := controller.NewExportController(exportService)

	router.NewExportRouter(exportController).Setup(e, mw)
}
