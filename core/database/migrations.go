package database

import (
	"context"
	"fmt"

	"uniplanner/core/logger"

	"github.com/jmoiron/sqlx"
)

const createEventsTable = `
CREATE TABLE IF NOT EXISTS events (
	id           TEXT PRIMARY KEY,
	owner_id     TEXT NOT NULL,
	title        TEXT NOT NULL,
	type         TEXT NOT NULL DEFAULT 'event',
	course_id    TEXT,
	color        TEXT NOT NULL DEFAULT '',
	date         DATE NOT NULL,
	time         TEXT,
	end_date     DATE,
	description  TEXT,
	meta         JSONB,
	series_id    TEXT,
	completed    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const createArchivedEventsTable = `
CREATE TABLE IF NOT EXISTS archived_events (
	id                 TEXT PRIMARY KEY,
	original_event_id  TEXT,
	owner_id           TEXT NOT NULL,
	title              TEXT NOT NULL,
	type               TEXT NOT NULL DEFAULT 'event',
	course_id          TEXT,
	color              TEXT NOT NULL DEFAULT '',
	date               DATE NOT NULL,
	time               TEXT,
	end_date           DATE,
	description        TEXT,
	meta               JSONB,
	series_id          TEXT,
	completed          BOOLEAN NOT NULL DEFAULT FALSE,
	archived_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const createEventTemplatesTable = `
CREATE TABLE IF NOT EXISTS event_templates (
	id             TEXT PRIMARY KEY,
	owner_id       TEXT NOT NULL,
	title          TEXT NOT NULL,
	course_id      TEXT,
	repeat_option  TEXT NOT NULL,
	by_days        TEXT,
	interval_weeks INTEGER NOT NULL DEFAULT 1,
	start_date     DATE NOT NULL,
	payload        JSONB,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

var migrations = []string{
	createEventsTable,
	createArchivedEventsTable,
	createEventTemplatesTable,
	`CREATE INDEX IF NOT EXISTS idx_events_owner_date ON events (owner_id, date)`,
	`CREATE INDEX IF NOT EXISTS idx_events_series ON events (series_id)`,
	`CREATE INDEX IF NOT EXISTS idx_events_owner_title ON events (owner_id, title)`,
	`CREATE INDEX IF NOT EXISTS idx_archived_events_series ON archived_events (series_id)`,
	`CREATE INDEX IF NOT EXISTS idx_archived_events_original ON archived_events (original_event_id)`,
	`CREATE INDEX IF NOT EXISTS idx_event_templates_owner ON event_templates (owner_id)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logger.Error("Database:Migrate", "step", i, "error", err)
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	logger.Info("Database:Migrate:Done", "steps", len(migrations))
	return nil
}
