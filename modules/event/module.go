package event

import (
	"fmt"
	"time"

	"uniplanner/core/cache"
	"uniplanner/core/config"
	"uniplanner/core/database"
	"uniplanner/core/middleware"
	"uniplanner/core/queue"
	"uniplanner/modules/event/controller"
	"uniplanner/modules/event/repository"
	"uniplanner/modules/event/router"
	"uniplanner/modules/event/service"

	"github.com/labstack/echo/v4"
)

// NewService builds the event engine outside of HTTP, for the worker and CLI.
func NewService(db database.Database, c cache.Cache, enqueuer queue.Enqueuer, app config.AppConfig) (service.EventServiceInterface, error) {
	loc, err := time.LoadLocation(app.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", app.Timezone, err)
	}

	repo := repository.NewEventRepository(db, c)
	return service.NewEventService(repo, enqueuer, service.Options{
		Location:          loc,
		LegacyMetaScan:    app.LegacyMetaScan,
		HeuristicMatching: app.HeuristicMatching,
		SeriesScanLimit:   app.SeriesScanLimit,
	}), nil
}

func Init(e *echo.Echo, db database.Database, c cache.Cache, enqueuer queue.Enqueuer, mw *middleware.Middleware, app config.AppConfig) (service.EventServiceInterface, error) {
	// Initialize layers
	eventService, err := NewService(db, c, enqueuer, app)
	if err != nil {
		return nil, err
	}
	eventController := controller.NewEventController(eventService)

	// Setup routes
	router.NewEventRouter(eventController).Setup(e, mw)
	return eventService, nil
}
