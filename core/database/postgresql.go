package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"uniplanner/core/constants"
	"uniplanner/core/logger"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type IDatabase interface {
	ExecContext(ctx context.Context, query string, args ...any) error
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Transaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	TableColumns(ctx context.Context, table string) (map[string]bool, error)
	SQLx() *sqlx.DB
}

type Database struct {
	db   *sql.DB
	sqlx *sqlx.DB
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string // disable, require, verify-ca, verify-full
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
}

var (
	instance *Database
)

func GetDB() IDatabase {
	return instance
}

func InitDB(config DatabaseConfig) (Database, error) {
	logger.Info("Initializing database...")

	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = constants.DatabaseSSLMode
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, sslMode)

	sqlxDB, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return Database{}, fmt.Errorf("failed to connect to database: %w", err)
	}

	maxOpen := orDefault(config.MaxOpenConns, constants.DatabaseMaxOpenConns)
	maxIdle := orDefault(config.MaxIdleConns, constants.DatabaseMaxIdleConns)
	lifetime := orDefault(config.ConnMaxLifetime, constants.DatabaseConnMaxLifetime)

	sqlDB := sqlxDB.DB
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(time.Duration(lifetime) * time.Minute)

	if err = sqlDB.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		return Database{}, fmt.Errorf("failed to ping database: %w", err)
	}

	db := Database{
		db:   sqlDB,
		sqlx: sqlxDB,
	}
	instance = &db

	logger.Info("Database initialized successfully",
		"host", config.Host,
		"port", config.Port,
		"database", config.DBName,
		"user", config.User,
		"maxOpenConns", maxOpen,
		"maxIdleConns", maxIdle,
		"connMaxLifetime", lifetime,
	)

	columns, err := db.TableColumns(context.Background(), "events")
	if err != nil {
		logger.Error("Failed to check events table", "error", err)
	} else if len(columns) == 0 {
		logger.Warn("Events table does not exist, run the migrate command")
	} else {
		logger.Info("Events table columns", "count", len(columns))
	}

	return db, nil
}

// Wrap adapts an existing connection, e.g. an in-memory sqlite handle in tests.
func Wrap(sqlxDB *sqlx.DB) Database {
	return Database{db: sqlxDB.DB, sqlx: sqlxDB}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func (d *Database) ExecContext(ctx context.Context, query string, args ...any) error {
	_, err := d.sqlx.ExecContext(ctx, query, args...)
	return err
}

func (d *Database) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return d.sqlx.GetContext(ctx, dest, query, args...)
}

func (d *Database) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return d.sqlx.SelectContext(ctx, dest, query, args...)
}

func (d *Database) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, query, args...)
}

// Transaction runs fn inside a transaction. It commits when fn returns nil
// and rolls back otherwise.
func (d *Database) Transaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := d.sqlx.BeginTxx(ctx, nil)
	if err != nil {
		logger.Error("Database:Transaction:Begin", err)
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Database:Transaction:Commit", err)
		return err
	}
	return nil
}

// TableColumns lists the columns of table. A missing table yields an empty map.
func (d *Database) TableColumns(ctx context.Context, table string) (map[string]bool, error) {
	return TableColumns(ctx, d.sqlx, table)
}

// TableColumns probes table through q, which may be a pool or a transaction.
func TableColumns(ctx context.Context, q sqlx.ExtContext, table string) (map[string]bool, error) {
	columns := map[string]bool{}

	switch q.DriverName() {
	case "sqlite", "sqlite3":
		var rows []struct {
			CID     int            `db:"cid"`
			Name    string         `db:"name"`
			Type    string         `db:"type"`
			NotNull int            `db:"notnull"`
			Default sql.NullString `db:"dflt_value"`
			PK      int            `db:"pk"`
		}
		if err := sqlx.SelectContext(ctx, q, &rows, fmt.Sprintf("PRAGMA table_info(%q)", table)); err != nil {
			return nil, err
		}
		for _, r := range rows {
			columns[r.Name] = true
		}
	default:
		query := `
			SELECT column_name
			FROM information_schema.columns
			WHERE table_schema = current_schema()
			AND table_name = $1
			ORDER BY ordinal_position
		`
		var names []string
		if err := sqlx.SelectContext(ctx, q, &names, query, table); err != nil {
			return nil, err
		}
		for _, n := range names {
			columns[n] = true
		}
	}

	return columns, nil
}

func (d *Database) SQLx() *sqlx.DB {
	return d.sqlx
}

func (d *Database) Close() error {
	return d.sqlx.Close()
}
