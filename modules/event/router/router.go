package router

import (
	"uniplanner/core/middleware"
	"uniplanner/modules/event/controller"

	"github.com/labstack/echo/v4"
)

type EventRouter struct {
	EventController *controller.EventController
}

func NewEventRouter(eventController *controller.EventController) *EventRouter {
	return &EventRouter{EventController: eventController}
}

func (r *EventRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	private := v1.Group("/private", mw.AuthMiddleware())

	events := private.Group("/events")
	{
		events.POST("", r.EventController.PrivateCreateEvent)
		events.GET("", r.EventController.PrivateGetEvents)
		events.GET("/archived", r.EventController.PrivateGetArchivedEvents)
		events.POST("/maintenance/backfill-meta", r.EventController.PrivateBackfillLegacyMeta)
		events.GET("/:id", r.EventController.PrivateGetEventById)
		events.PATCH("/:id", r.EventController.PrivateUpdateEvent)
		events.DELETE("/:id", r.EventController.PrivateDeleteEvent)
		events.POST("/:id/archive", r.EventController.PrivateArchiveEvent)
		events.POST("/:id/unarchive", r.EventController.PrivateUnarchiveEvent)
		events.PATCH("/:id/scoped", r.EventController.PrivateUpdateScoped)
		events.GET("/:id/series", r.EventController.PrivateGetSeries)
	}

	templates := private.Group("/event-templates")
	{
		templates.POST("", r.EventController.PrivateCreateTemplate)
		templates.GET("", r.EventController.PrivateGetTemplates)
		templates.POST("/:id/materialize", r.EventController.PrivateMaterializeTemplate)
	}
}
