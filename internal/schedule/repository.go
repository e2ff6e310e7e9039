package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const templateColumns = `id, title, instructor, day_of_week, start_time, duration_minutes, eligibility, capacity, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateTemplate(ctx context.Context, t Template) (*Template, error) {
	query := `
		INSERT INTO session_templates (id, title, instructor, day_of_week, start_time, duration_minutes, eligibility, capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + templateColumns

	var created Template
	err := r.db.GetContext(ctx, &created, query,
		t.ID, t.Title, t.Instructor, t.DayOfWeek, t.StartTime, t.DurationMinutes, t.Eligibility, t.Capacity)
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}

	return &created, nil
}

// ListTemplates returns live templates Monday first, then by start time.
func (r *repository) ListTemplates(ctx context.Context) ([]Template, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM session_templates
		WHERE deleted_at IS NULL
		ORDER BY (day_of_week + 6) % 7, start_time, title
	`

	templates := []Template{}
	if err := r.db.SelectContext(ctx, &templates, query); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	return templates, nil
}

func (r *repository) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM session_templates
		WHERE id = $1 AND deleted_at IS NULL
	`

	var t Template
	err := r.db.GetContext(ctx, &t, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}

	return &t, nil
}
