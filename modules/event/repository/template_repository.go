package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"uniplanner/core/logger"
	"uniplanner/modules/event/entity"

	"github.com/jmoiron/sqlx"
)

const templateColumns = `id, owner_id, title, course_id, repeat_option, by_days, interval_weeks, start_date, payload, created_at, updated_at`

func (r *EventRepository) CreateTemplate(ctx context.Context, template *entity.EventTemplate) error {
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now

	query := r.q.Rebind(`
		INSERT INTO event_templates (` + templateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.q.ExecContext(ctx, query,
		template.ID, template.OwnerID, template.Title, template.CourseID, template.RepeatOption,
		template.ByDays, template.IntervalWeeks, template.StartDate, template.Payload,
		template.CreatedAt, template.UpdatedAt)
	if err != nil {
		logger.Error("EventRepository:CreateTemplate", err)
		return err
	}
	return nil
}

func (r *EventRepository) FindTemplateByID(ctx context.Context, id string) (*entity.EventTemplate, error) {
	query := r.q.Rebind(`SELECT ` + templateColumns + ` FROM event_templates WHERE id = ?`)

	var template entity.EventTemplate
	if err := sqlx.GetContext(ctx, r.q, &template, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		logger.Error("EventRepository:FindTemplateByID", err)
		return nil, err
	}
	return &template, nil
}

func (r *EventRepository) FindTemplates(ctx context.Context, ownerID string) ([]entity.EventTemplate, error) {
	query := r.q.Rebind(`SELECT ` + templateColumns + ` FROM event_templates WHERE owner_id = ? ORDER BY start_date ASC, id ASC`)

	templates := []entity.EventTemplate{}
	if err := sqlx.SelectContext(ctx, r.q, &templates, query, ownerID); err != nil {
		logger.Error("EventRepository:FindTemplates", err)
		return nil, err
	}
	return templates, nil
}
