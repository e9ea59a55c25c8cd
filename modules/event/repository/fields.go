package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"uniplanner/core/cache"
	"uniplanner/core/database"
	"uniplanner/core/logger"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Field is a schema-optional column. Deployments created before a column was
// introduced lack it, so writes and reads only include what the live schema has.
type Field string

const (
	FieldMeta    Field = "meta"
	FieldEndDate Field = "end_date"
)

var OptionalFields = []Field{FieldMeta, FieldEndDate}

const (
	tableEvents         = "events"
	tableArchivedEvents = "archived_events"
)

type FieldSet map[Field]bool

func (f FieldSet) Has(field Field) bool {
	return f[field]
}

func (f FieldSet) Without(field Field) FieldSet {
	out := FieldSet{}
	for k, v := range f {
		if k != field {
			out[k] = v
		}
	}
	return out
}

func (f FieldSet) Names() []string {
	names := make([]string, 0, len(f))
	for k, v := range f {
		if v {
			names = append(names, string(k))
		}
	}
	sort.Strings(names)
	return names
}

func AllFields() FieldSet {
	out := FieldSet{}
	for _, f := range OptionalFields {
		out[f] = true
	}
	return out
}

// UnknownFieldError reports optional columns a write used but the schema no
// longer (or never) had. Callers may retry once; the repository has already
// refreshed its field set.
type UnknownFieldError struct {
	Table  string
	Fields []Field
	Err    error
}

func (e *UnknownFieldError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = string(f)
	}
	return fmt.Sprintf("%s: unsupported field(s) %s: %v", e.Table, strings.Join(names, ","), e.Err)
}

func (e *UnknownFieldError) Unwrap() error {
	return e.Err
}

func IsUnknownField(err error) bool {
	var ufe *UnknownFieldError
	return errors.As(err, &ufe)
}

// capabilities negotiates optional columns per table: in-process memo first,
// then the shared cache, then a schema probe.
type capabilities struct {
	db    database.IDatabase
	cache cache.Cache

	mu     sync.RWMutex
	tables map[string]FieldSet
}

func newCapabilities(db database.IDatabase, c cache.Cache) *capabilities {
	return &capabilities{db: db, cache: c, tables: map[string]FieldSet{}}
}

// Fields returns the negotiated set for table. q is used for a first probe so
// that it runs on the caller's transaction when there is one.
func (c *capabilities) Fields(ctx context.Context, q sqlx.ExtContext, table string) FieldSet {
	c.mu.RLock()
	fs, ok := c.tables[table]
	c.mu.RUnlock()
	if ok {
		return fs
	}

	if c.cache != nil {
		names, hit, err := c.cache.GetSupportedFields(ctx, table)
		if err != nil {
			logger.Warn("EventRepository:Fields:CacheGet", "table", table, "error", err)
		} else if hit {
			fs = FieldSet{}
			for _, n := range names {
				if n != "" {
					fs[Field(n)] = true
				}
			}
			c.store(table, fs)
			return fs
		}
	}

	return c.probe(ctx, q, table)
}

// Refresh drops every cached view of table and probes again outside of any
// transaction, which may already be aborted.
func (c *capabilities) Refresh(ctx context.Context, table string) FieldSet {
	c.mu.Lock()
	delete(c.tables, table)
	c.mu.Unlock()
	if c.cache != nil {
		if err := c.cache.InvalidateSupportedFields(ctx, table); err != nil {
			logger.Warn("EventRepository:Refresh:CacheDel", "table", table, "error", err)
		}
	}
	return c.probe(ctx, c.db.SQLx(), table)
}

func (c *capabilities) probe(ctx context.Context, q sqlx.ExtContext, table string) FieldSet {
	columns, err := database.TableColumns(ctx, q, table)
	if err != nil || len(columns) == 0 {
		// Optimistic: a failing write will trigger another probe.
		logger.Warn("EventRepository:Probe:Failed", "table", table, "error", err)
		return AllFields()
	}

	fs := FieldSet{}
	for _, f := range OptionalFields {
		if columns[string(f)] {
			fs[f] = true
		}
	}
	c.store(table, fs)

	if c.cache != nil {
		if err := c.cache.SetSupportedFields(ctx, table, fs.Names()); err != nil {
			logger.Warn("EventRepository:Probe:CacheSet", "table", table, "error", err)
		}
	}
	logger.Info("EventRepository:Probe", "table", table, "optional_fields", fs.Names())
	return fs
}

func (c *capabilities) store(table string, fs FieldSet) {
	c.mu.Lock()
	c.tables[table] = fs
	c.mu.Unlock()
}

// mayBeSchemaDrift filters out errors that cannot be a missing column.
// Postgres tells us precisely (undefined_column); other drivers need a probe.
func mayBeSchemaDrift(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "42703"
	}
	return true
}
