package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uniplanner/core/cache"
	"uniplanner/core/config"
	"uniplanner/core/constants"
	"uniplanner/core/database"
	"uniplanner/core/logger"
	"uniplanner/core/middleware"
	"uniplanner/core/queue"
	"uniplanner/core/storage"
	"uniplanner/core/utils"
	"uniplanner/modules/event"
	"uniplanner/modules/export"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// Infra holds the shared connections. Cache, Queue and Store are optional and
// stay nil when their backend is unavailable or unconfigured.
type Infra struct {
	DB    database.Database
	Cache cache.Cache
	Queue *asynq.Client
	Store storage.ObjectStore
}

// Connect opens the database and, best effort, redis, the task queue and S3.
func Connect(cfg *config.Config) (*Infra, error) {
	db, err := database.InitDB(database.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, err
	}
	infra := &Infra{DB: db}

	redisCache, err := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Warn("Server:Connect:CacheDisabled", "error", err)
	} else {
		infra.Cache = redisCache
		infra.Queue = queue.NewClient(queue.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	s3Store, err := storage.NewS3Store(storage.S3Config{
		Region:    cfg.S3.Region,
		Bucket:    cfg.S3.Bucket,
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Prefix:    cfg.S3.Prefix,
	})
	if err != nil {
		logger.Warn("Server:Connect:StorageDisabled", "error", err)
	} else {
		infra.Store = s3Store
	}

	return infra, nil
}

// Enqueuer returns the queue client as an interface, nil when there is none.
func (i *Infra) Enqueuer() queue.Enqueuer {
	if i.Queue == nil {
		return nil
	}
	return i.Queue
}

func (i *Infra) Close() {
	if i.Queue != nil {
		if err := i.Queue.Close(); err != nil {
			logger.Warn("Server:Close:Queue", "error", err)
		}
	}
	if i.Cache != nil {
		if err := i.Cache.Close(); err != nil {
			logger.Warn("Server:Close:Cache", "error", err)
		}
	}
	if err := i.DB.Close(); err != nil {
		logger.Warn("Server:Close:Database", "error", err)
	}
}

// New builds the echo instance with every module mounted.
func New(cfg *config.Config, infra *Infra) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true

	mw := middleware.NewMiddleware(cfg.JWT.Secret)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: utils.GenerateID}))
	e.Use(mw.RequestLogger())
	e.Use(echomw.CORS())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	eventService, err := event.Init(e, infra.DB, infra.Cache, infra.Enqueuer(), mw, cfg.App)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.App.Timezone, err)
	}
	export.Init(e, eventService, infra.Store, loc, mw)

	return e, nil
}

// Run serves HTTP until SIGINT/SIGTERM, then drains in-flight requests.
func Run(cfg *config.Config) error {
	infra, err := Connect(cfg)
	if err != nil {
		return err
	}
	defer infra.Close()

	e, err := New(cfg, infra)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		logger.Info("Server:Run:Listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server:Run:Start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultRequestTimeout)
	defer cancel()
	logger.Info("Server:Run:ShuttingDown")
	return e.Shutdown(ctx)
}
