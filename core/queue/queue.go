package queue

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"uniplanner/core/constants"
	"uniplanner/core/logger"

	"github.com/hibiken/asynq"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enqueuer is the subset of *asynq.Client the services depend on.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func redisOpt(cfg RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewClient(cfg RedisConfig) *asynq.Client {
	return asynq.NewClient(redisOpt(cfg))
}

// Worker bundles the asynq server, its handler mux and the periodic scheduler.
type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
}

func NewWorker(cfg RedisConfig, concurrency int, loc *time.Location) *Worker {
	if concurrency <= 0 {
		concurrency = 5
	}
	server := asynq.NewServer(redisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			constants.QueueDefault:     6,
			constants.QueueMaintenance: 2,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error("Worker:Task:Failed", "type", task.Type(), "error", err)
		}),
	})
	scheduler := asynq.NewScheduler(redisOpt(cfg), &asynq.SchedulerOpts{Location: loc})

	return &Worker{
		server:    server,
		scheduler: scheduler,
		mux:       asynq.NewServeMux(),
	}
}

func (w *Worker) Handle(taskType string, handler asynq.Handler) {
	w.mux.Handle(taskType, handler)
}

// Schedule registers a cron-driven task. An empty spec is a no-op.
func (w *Worker) Schedule(cronSpec string, task *asynq.Task, opts ...asynq.Option) error {
	if cronSpec == "" {
		return nil
	}
	entryID, err := w.scheduler.Register(cronSpec, task, opts...)
	if err != nil {
		return fmt.Errorf("register %s: %w", task.Type(), err)
	}
	logger.Info("Worker:Schedule", "type", task.Type(), "cron", cronSpec, "entry_id", entryID)
	return nil
}

// Run blocks until SIGINT/SIGTERM.
func (w *Worker) Run() error {
	if err := w.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	if err := w.server.Start(w.mux); err != nil {
		w.scheduler.Shutdown()
		return fmt.Errorf("start worker: %w", err)
	}
	logger.Info("Worker:Run:Started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Worker:Run:ShuttingDown")
	w.scheduler.Shutdown()
	w.server.Shutdown()
	return nil
}
