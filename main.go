package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"uniplanner/core/config"
	"uniplanner/core/constants"
	"uniplanner/core/database"
	"uniplanner/core/logger"
	"uniplanner/core/queue"
	"uniplanner/core/server"
	"uniplanner/core/utils"
	"uniplanner/modules/event"
	"uniplanner/modules/event/task"

	"github.com/spf13/cobra"
)

// @title UniPlanner API
// @version 1.0
// @description Recurring events, archive and series operations for the university planner

// @host localhost:7070
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Example: "Bearer {token}"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "uniplanner",
	Short:         "UniPlanner event service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Init()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		logger.Init(cfg.App.Env, cfg.App.LogLevel)
		logger.Info("UniPlanner:Start", "command", cmd.Name(), "env", cfg.App.Env)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Run(cfg)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Run(cfg)
	},
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run background tasks and the legacy metadata schedule",
	RunE:  runWorker,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.InitDB(databaseConfig())
		if err != nil {
			return err
		}
		defer db.Close()
		return database.Migrate(cmd.Context(), db.SQLx())
	},
}

var backfillOwner string

var backfillCmd = &cobra.Command{
	Use:   "backfill-meta",
	Short: `Move "[META]" description blocks into structured series fields`,
	Long: `Runs the legacy metadata backfill synchronously.

Examples:
  uniplanner backfill-meta
  uniplanner backfill-meta --owner 6f1c...`,
	RunE: runBackfill,
}

var (
	tokenUser string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print an access token for local testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenUser == "" {
			return fmt.Errorf("--user is required")
		}
		token, err := utils.GenerateToken(tokenUser, constants.ScopeTokenAccess, cfg.JWT.Secret, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	backfillCmd.Flags().StringVar(&backfillOwner, "owner", "", "only this owner's events (default: all owners)")
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id to put in the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")

	rootCmd.AddCommand(serveCmd, workerCmd, migrateCmd, backfillCmd, tokenCmd)
}

func databaseConfig() database.DatabaseConfig {
	return database.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	}
}

func runWorker(cmd *cobra.Command, args []string) error {
	infra, err := server.Connect(cfg)
	if err != nil {
		return err
	}
	defer infra.Close()

	svc, err := event.NewService(infra.DB, infra.Cache, infra.Enqueuer(), cfg.App)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return err
	}

	worker := queue.NewWorker(queue.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Worker.Concurrency, loc)
	worker.Handle(constants.TaskBackfillLegacyMeta, task.NewBackfillHandler(svc))

	scheduled, err := task.NewBackfillLegacyMetaTask("")
	if err != nil {
		return err
	}
	if err := worker.Schedule(cfg.Worker.LegacyMetaCron, scheduled); err != nil {
		return err
	}
	return worker.Run()
}

func runBackfill(cmd *cobra.Command, args []string) error {
	db, err := database.InitDB(databaseConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	svc, err := event.NewService(db, nil, nil, cfg.App)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
	defer cancel()
	report, appErr := svc.BackfillLegacyMeta(ctx, backfillOwner)
	if appErr != nil {
		return appErr
	}
	fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d updated=%d groups=%d\n", report.Scanned, report.Updated, report.Groups)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("UniPlanner:Exit", "error", err)
		os.Exit(1)
	}
}
