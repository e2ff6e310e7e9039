package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"classbook/internal/schedule"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// tryReserveSeatTx claims one seat of the occurrence inside tx. The conditional
// upsert holds the occurrence row lock until tx ends, so concurrent bookings of
// the same occurrence are admitted one at a time while other occurrences proceed.
func tryReserveSeatTx(ctx context.Context, tx *sqlx.Tx, templateID uuid.UUID, date schedule.Date, capacity int) (int, error) {
	query := `
		INSERT INTO occurrence_seats (template_id, occurrence_date, reserved)
		VALUES ($1, $2, 1)
		ON CONFLICT (template_id, occurrence_date)
		DO UPDATE SET reserved = occurrence_seats.reserved + 1
		WHERE occurrence_seats.reserved < $3
		RETURNING reserved
	`

	var reserved int
	err := tx.GetContext(ctx, &reserved, query, templateID, date, capacity)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrCapacityExceeded
	}
	if err != nil {
		return 0, fmt.Errorf("reserve seat: %w", err)
	}

	return reserved, nil
}

func releaseSeatTx(ctx context.Context, tx *sqlx.Tx, templateID uuid.UUID, date schedule.Date) error {
	query := `
		UPDATE occurrence_seats
		SET reserved = reserved - 1
		WHERE template_id = $1 AND occurrence_date = $2 AND reserved > 0
	`

	if _, err := tx.ExecContext(ctx, query, templateID, date); err != nil {
		return fmt.Errorf("release seat: %w", err)
	}
	return nil
}

func (r *repository) CurrentCount(ctx context.Context, templateID uuid.UUID, date schedule.Date) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM reservations
		WHERE template_id = $1 AND occurrence_date = $2 AND status = 'active'
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, templateID, date); err != nil {
		return 0, fmt.Errorf("count reservations: %w", err)
	}

	return count, nil
}

type occurrenceCount struct {
	TemplateID uuid.UUID     `db:"template_id"`
	Date       schedule.Date `db:"occurrence_date"`
	Booked     int           `db:"booked"`
}

func (r *repository) CountsInRange(ctx context.Context, from, to schedule.Date) (map[schedule.OccurrenceKey]int, error) {
	query := `
		SELECT template_id, occurrence_date, COUNT(*) AS booked
		FROM reservations
		WHERE status = 'active' AND occurrence_date BETWEEN $1 AND $2
		GROUP BY template_id, occurrence_date
	`

	var rows []occurrenceCount
	if err := r.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("count occurrences: %w", err)
	}

	counts := make(map[schedule.OccurrenceKey]int, len(rows))
	for _, row := range rows {
		counts[schedule.OccurrenceKey{TemplateID: row.TemplateID, Date: row.Date}] = row.Booked
	}
	return counts, nil
}
