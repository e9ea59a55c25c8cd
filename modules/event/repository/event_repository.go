package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"uniplanner/core/cache"
	"uniplanner/core/database"
	"uniplanner/core/logger"
	"uniplanner/modules/event/entity"

	"github.com/jmoiron/sqlx"
)

var ErrNoRowsAffected = errors.New("no rows affected")

// EventFilter narrows FindEvents / FindArchived. Zero-valued fields are ignored.
type EventFilter struct {
	OwnerID             string
	IDs                 []string
	SeriesID            *string
	OriginalEventID     *string
	Title               *string
	Time                *string
	TimeIsNull          bool
	HasMeta             bool
	DescriptionContains string
	FromDate            *entity.Date
	ToDate              *entity.Date
	Limit               int
	Offset              int
}

// EventRepositoryInterface is the storage contract of the event engine.
// Lookups return nil, nil when nothing matches.
type EventRepositoryInterface interface {
	// Active collection
	FindEventByID(ctx context.Context, id string) (*entity.Event, error)
	FindEvents(ctx context.Context, filter EventFilter) ([]entity.Event, error)
	CountEvents(ctx context.Context, filter EventFilter) (int, error)
	CreateEvent(ctx context.Context, event *entity.Event) error
	UpdateEvent(ctx context.Context, event *entity.Event) error
	DeleteEvent(ctx context.Context, id string) error
	DeleteEvents(ctx context.Context, ids []string) (int, error)

	// Archived collection
	FindArchivedByID(ctx context.Context, id string) (*entity.ArchivedEvent, error)
	FindArchivedByOriginalID(ctx context.Context, originalID string) (*entity.ArchivedEvent, error)
	FindArchived(ctx context.Context, filter EventFilter) ([]entity.ArchivedEvent, error)
	CreateArchived(ctx context.Context, archived *entity.ArchivedEvent) error
	UpdateArchived(ctx context.Context, archived *entity.ArchivedEvent) error
	DeleteArchived(ctx context.Context, id string) error
	DeleteArchivedMany(ctx context.Context, ids []string) (int, error)

	// Templates
	CreateTemplate(ctx context.Context, template *entity.EventTemplate) error
	FindTemplateByID(ctx context.Context, id string) (*entity.EventTemplate, error)
	FindTemplates(ctx context.Context, ownerID string) ([]entity.EventTemplate, error)

	// SupportedFields reports the optional columns the active collection has.
	SupportedFields(ctx context.Context) FieldSet

	// WithTx runs fn against a repository bound to one transaction.
	WithTx(ctx context.Context, fn func(repo EventRepositoryInterface) error) error
}

type EventRepository struct {
	DB   database.Database
	q    sqlx.ExtContext
	tx   *sqlx.Tx
	caps *capabilities
}

func NewEventRepository(db database.Database, c cache.Cache) *EventRepository {
	repo := &EventRepository{DB: db}
	repo.q = repo.DB.SQLx()
	repo.caps = newCapabilities(&repo.DB, c)
	return repo
}

func (r *EventRepository) WithTx(ctx context.Context, fn func(repo EventRepositoryInterface) error) error {
	if r.tx != nil {
		return fn(r)
	}
	return r.DB.Transaction(ctx, func(tx *sqlx.Tx) error {
		return fn(&EventRepository{DB: r.DB, q: tx, tx: tx, caps: r.caps})
	})
}

func (r *EventRepository) SupportedFields(ctx context.Context) FieldSet {
	return r.caps.Fields(ctx, r.q, tableEvents)
}

// ===================== Columns =====================

var baseColumns = []string{
	"id", "owner_id", "title", "type", "course_id", "color", "date", "time",
	"description", "series_id", "completed", "created_at", "updated_at",
}

func eventColumns(fields FieldSet) []string {
	cols := append([]string(nil), baseColumns...)
	for _, f := range OptionalFields {
		if fields.Has(f) {
			cols = append(cols, string(f))
		}
	}
	return cols
}

func archivedColumns(fields FieldSet) []string {
	return append(eventColumns(fields), "original_event_id", "archived_at")
}

func eventValue(e *entity.Event, col string) any {
	switch col {
	case "id":
		return e.ID
	case "owner_id":
		return e.OwnerID
	case "title":
		return e.Title
	case "type":
		return e.Type
	case "course_id":
		return e.CourseID
	case "color":
		return e.Color
	case "date":
		return e.Date
	case "time":
		return e.Time
	case "description":
		return e.Description
	case "series_id":
		return e.SeriesID
	case "completed":
		return e.Completed
	case "created_at":
		return e.CreatedAt
	case "updated_at":
		return e.UpdatedAt
	case "meta":
		return e.Meta
	case "end_date":
		return e.EndDate
	}
	panic("unknown event column " + col)
}

func archivedValue(a *entity.ArchivedEvent, col string) any {
	switch col {
	case "original_event_id":
		return a.OriginalEventID
	case "archived_at":
		return a.ArchivedAt
	}
	return eventValue(&a.Event, col)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// usedOptional returns the optional fields present in cols.
func usedOptional(cols []string) FieldSet {
	used := FieldSet{}
	for _, c := range cols {
		for _, f := range OptionalFields {
			if c == string(f) {
				used[f] = true
			}
		}
	}
	return used
}

// drift converts err into an UnknownFieldError when a fresh probe shows an
// optional column the statement relied on is gone.
func (r *EventRepository) drift(ctx context.Context, table string, cols []string, err error) error {
	used := usedOptional(cols)
	if len(used) == 0 || !mayBeSchemaDrift(err) {
		return err
	}
	fresh := r.caps.Refresh(ctx, table)
	var missing []Field
	for _, f := range OptionalFields {
		if used.Has(f) && !fresh.Has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return err
	}
	logger.Warn("EventRepository:SchemaDrift", "table", table, "missing", missing)
	return &UnknownFieldError{Table: table, Fields: missing, Err: err}
}

func (r *EventRepository) where(filter EventFilter, fields FieldSet) (string, []any, bool) {
	conditions := []string{}
	args := []any{}

	if filter.OwnerID != "" {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if len(filter.IDs) > 0 {
		conditions = append(conditions, "id IN ("+placeholders(len(filter.IDs))+")")
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	if filter.SeriesID != nil {
		conditions = append(conditions, "series_id = ?")
		args = append(args, *filter.SeriesID)
	}
	if filter.OriginalEventID != nil {
		conditions = append(conditions, "original_event_id = ?")
		args = append(args, *filter.OriginalEventID)
	}
	if filter.Title != nil {
		conditions = append(conditions, "title = ?")
		args = append(args, *filter.Title)
	}
	if filter.TimeIsNull {
		conditions = append(conditions, "time IS NULL")
	} else if filter.Time != nil {
		conditions = append(conditions, "time = ?")
		args = append(args, *filter.Time)
	}
	if filter.HasMeta {
		if !fields.Has(FieldMeta) {
			return "", nil, false
		}
		conditions = append(conditions, "meta IS NOT NULL")
	}
	if filter.DescriptionContains != "" {
		conditions = append(conditions, "description LIKE ?")
		args = append(args, "%"+filter.DescriptionContains+"%")
	}
	if filter.FromDate != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *filter.FromDate)
	}
	if filter.ToDate != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, *filter.ToDate)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}
	return whereClause, args, true
}

func pageClause(filter EventFilter) string {
	clause := " ORDER BY date ASC, COALESCE(time, '') ASC, id ASC"
	if filter.Limit > 0 {
		clause += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			clause += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}
	return clause
}

// ===================== Active events =====================

func (r *EventRepository) FindEventByID(ctx context.Context, id string) (*entity.Event, error) {
	cols := eventColumns(r.caps.Fields(ctx, r.q, tableEvents))
	query := r.q.Rebind("SELECT " + strings.Join(cols, ", ") + " FROM events WHERE id = ?")

	var event entity.Event
	err := sqlx.GetContext(ctx, r.q, &event, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("EventRepository:FindEventByID", err)
		return nil, r.drift(ctx, tableEvents, cols, err)
	}
	return &event, nil
}

func (r *EventRepository) FindEvents(ctx context.Context, filter EventFilter) ([]entity.Event, error) {
	fields := r.caps.Fields(ctx, r.q, tableEvents)
	whereClause, args, ok := r.where(filter, fields)
	if !ok {
		return []entity.Event{}, nil
	}
	cols := eventColumns(fields)
	query := r.q.Rebind("SELECT " + strings.Join(cols, ", ") + " FROM events" + whereClause + pageClause(filter))

	events := []entity.Event{}
	if err := sqlx.SelectContext(ctx, r.q, &events, query, args...); err != nil {
		logger.Error("EventRepository:FindEvents", err)
		return nil, r.drift(ctx, tableEvents, cols, err)
	}
	return events, nil
}

func (r *EventRepository) CountEvents(ctx context.Context, filter EventFilter) (int, error) {
	whereClause, args, ok := r.where(filter, r.caps.Fields(ctx, r.q, tableEvents))
	if !ok {
		return 0, nil
	}
	query := r.q.Rebind("SELECT COUNT(*) FROM events" + whereClause)

	var total int
	if err := sqlx.GetContext(ctx, r.q, &total, query, args...); err != nil {
		logger.Error("EventRepository:CountEvents", err)
		return 0, err
	}
	return total, nil
}

func (r *EventRepository) CreateEvent(ctx context.Context, event *entity.Event) error {
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	cols := eventColumns(r.caps.Fields(ctx, r.q, tableEvents))
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = eventValue(event, c)
	}
	query := r.q.Rebind(fmt.Sprintf("INSERT INTO events (%s) VALUES (%s)", strings.Join(cols, ", "), placeholders(len(cols))))

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		logger.Error("EventRepository:CreateEvent", "event_id", event.ID, "error", err)
		return r.drift(ctx, tableEvents, cols, err)
	}
	return nil
}

func (r *EventRepository) UpdateEvent(ctx context.Context, event *entity.Event) error {
	event.UpdatedAt = time.Now().UTC()

	cols := eventColumns(r.caps.Fields(ctx, r.q, tableEvents))
	sets := []string{}
	args := []any{}
	for _, c := range cols {
		if c == "id" || c == "owner_id" || c == "created_at" {
			continue
		}
		sets = append(sets, c+" = ?")
		args = append(args, eventValue(event, c))
	}
	args = append(args, event.ID)
	query := r.q.Rebind("UPDATE events SET " + strings.Join(sets, ", ") + " WHERE id = ?")

	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		logger.Error("EventRepository:UpdateEvent", "event_id", event.ID, "error", err)
		return r.drift(ctx, tableEvents, cols, err)
	}
	return expectRows(res)
}

func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind("DELETE FROM events WHERE id = ?"), id)
	if err != nil {
		logger.Error("EventRepository:DeleteEvent", err)
		return err
	}
	return expectRows(res)
}

func (r *EventRepository) DeleteEvents(ctx context.Context, ids []string) (int, error) {
	return r.deleteMany(ctx, tableEvents, ids)
}

// ===================== Archived events =====================

func (r *EventRepository) findArchivedOne(ctx context.Context, column, value string) (*entity.ArchivedEvent, error) {
	cols := archivedColumns(r.caps.Fields(ctx, r.q, tableArchivedEvents))
	query := r.q.Rebind("SELECT " + strings.Join(cols, ", ") + " FROM archived_events WHERE " + column + " = ? ORDER BY archived_at DESC LIMIT 1")

	var archived entity.ArchivedEvent
	err := sqlx.GetContext(ctx, r.q, &archived, query, value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("EventRepository:FindArchived", "column", column, "error", err)
		return nil, r.drift(ctx, tableArchivedEvents, cols, err)
	}
	return &archived, nil
}

func (r *EventRepository) FindArchivedByID(ctx context.Context, id string) (*entity.ArchivedEvent, error) {
	return r.findArchivedOne(ctx, "id", id)
}

func (r *EventRepository) FindArchivedByOriginalID(ctx context.Context, originalID string) (*entity.ArchivedEvent, error) {
	return r.findArchivedOne(ctx, "original_event_id", originalID)
}

func (r *EventRepository) FindArchived(ctx context.Context, filter EventFilter) ([]entity.ArchivedEvent, error) {
	fields := r.caps.Fields(ctx, r.q, tableArchivedEvents)
	whereClause, args, ok := r.where(filter, fields)
	if !ok {
		return []entity.ArchivedEvent{}, nil
	}
	cols := archivedColumns(fields)
	query := r.q.Rebind("SELECT " + strings.Join(cols, ", ") + " FROM archived_events" + whereClause + pageClause(filter))

	archived := []entity.ArchivedEvent{}
	if err := sqlx.SelectContext(ctx, r.q, &archived, query, args...); err != nil {
		logger.Error("EventRepository:FindArchived", err)
		return nil, r.drift(ctx, tableArchivedEvents, cols, err)
	}
	return archived, nil
}

func (r *EventRepository) CreateArchived(ctx context.Context, archived *entity.ArchivedEvent) error {
	now := time.Now().UTC()
	if archived.ArchivedAt.IsZero() {
		archived.ArchivedAt = now
	}
	if archived.CreatedAt.IsZero() {
		archived.CreatedAt = now
	}
	archived.UpdatedAt = now

	cols := archivedColumns(r.caps.Fields(ctx, r.q, tableArchivedEvents))
	args := make([]any, len(cols))
	for i, c := range cols {
		args[i] = archivedValue(archived, c)
	}
	query := r.q.Rebind(fmt.Sprintf("INSERT INTO archived_events (%s) VALUES (%s)", strings.Join(cols, ", "), placeholders(len(cols))))

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		logger.Error("EventRepository:CreateArchived", "archived_id", archived.ID, "error", err)
		return r.drift(ctx, tableArchivedEvents, cols, err)
	}
	return nil
}

func (r *EventRepository) UpdateArchived(ctx context.Context, archived *entity.ArchivedEvent) error {
	archived.UpdatedAt = time.Now().UTC()

	cols := archivedColumns(r.caps.Fields(ctx, r.q, tableArchivedEvents))
	sets := []string{}
	args := []any{}
	for _, c := range cols {
		if c == "id" || c == "owner_id" || c == "created_at" || c == "archived_at" || c == "original_event_id" {
			continue
		}
		sets = append(sets, c+" = ?")
		args = append(args, archivedValue(archived, c))
	}
	args = append(args, archived.ID)
	query := r.q.Rebind("UPDATE archived_events SET " + strings.Join(sets, ", ") + " WHERE id = ?")

	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		logger.Error("EventRepository:UpdateArchived", "archived_id", archived.ID, "error", err)
		return r.drift(ctx, tableArchivedEvents, cols, err)
	}
	return expectRows(res)
}

func (r *EventRepository) DeleteArchived(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, r.q.Rebind("DELETE FROM archived_events WHERE id = ?"), id)
	if err != nil {
		logger.Error("EventRepository:DeleteArchived", err)
		return err
	}
	return expectRows(res)
}

func (r *EventRepository) DeleteArchivedMany(ctx context.Context, ids []string) (int, error) {
	return r.deleteMany(ctx, tableArchivedEvents, ids)
}

func (r *EventRepository) deleteMany(ctx context.Context, table string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In("DELETE FROM "+table+" WHERE id IN (?)", ids)
	if err != nil {
		return 0, err
	}
	res, err := r.q.ExecContext(ctx, r.q.Rebind(query), args...)
	if err != nil {
		logger.Error("EventRepository:DeleteMany", "table", table, "count", len(ids), "error", err)
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func expectRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
