package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"classbook/internal/db"
	"classbook/internal/schedule"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	reservationColumns = `id, user_id, user_gender, user_email, template_id, occurrence_date, status, created_at, cancelled_at`

	activeReservationIndex = "reservations_active_uniq"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Store {
	return &repository{db: db}
}

func (r *repository) Book(ctx context.Context, p BookParams) (*Reservation, error) {
	var created Reservation

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// FOR SHARE blocks a concurrent retire until this booking commits, and
		// makes a booking that starts after a retire see the deleted row.
		var capacity int
		err := tx.GetContext(ctx, &capacity, `
			SELECT capacity
			FROM session_templates
			WHERE id = $1 AND deleted_at IS NULL
			FOR SHARE
		`, p.TemplateID)
		if errors.Is(err, sql.ErrNoRows) {
			return schedule.ErrTemplateNotFound
		}
		if err != nil {
			return fmt.Errorf("lock template: %w", err)
		}

		var exists bool
		err = tx.GetContext(ctx, &exists, `
			SELECT EXISTS(
				SELECT 1 FROM reservations
				WHERE user_id = $1 AND template_id = $2 AND occurrence_date = $3 AND status = 'active'
			)
		`, p.UserID, p.TemplateID, p.Date)
		if err != nil {
			return fmt.Errorf("check existing reservation: %w", err)
		}
		if exists {
			return ErrAlreadyBooked
		}

		if _, err := tryReserveSeatTx(ctx, tx, p.TemplateID, p.Date, capacity); err != nil {
			return err
		}

		err = tx.GetContext(ctx, &created, `
			INSERT INTO reservations (id, user_id, user_gender, user_email, template_id, occurrence_date, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, 'active', $7)
			RETURNING `+reservationColumns,
			p.ID, p.UserID, p.UserGender, p.UserEmail, p.TemplateID, p.Date, p.CreatedAt)
		if db.IsUniqueViolation(err, activeReservationIndex) {
			// A concurrent booking by the same member committed between the check and the insert.
			return ErrAlreadyBooked
		}
		if err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) Cancel(ctx context.Context, reservationID uuid.UUID, userID int, at time.Time) (*Reservation, error) {
	var cancelled Reservation

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &cancelled, `
			UPDATE reservations
			SET status = 'cancelled', cancelled_at = $3
			WHERE id = $1 AND user_id = $2 AND status = 'active'
			RETURNING `+reservationColumns,
			reservationID, userID, at)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAlreadyCancelled
		}
		if err != nil {
			return fmt.Errorf("cancel reservation: %w", err)
		}

		return releaseSeatTx(ctx, tx, cancelled.TemplateID, cancelled.OccurrenceDate)
	})
	if err != nil {
		return nil, err
	}

	return &cancelled, nil
}

func (r *repository) GetReservation(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE id = $1
	`

	var res Reservation
	err := r.db.GetContext(ctx, &res, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}

	return &res, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int, status Status) ([]ReservationWithTemplate, error) {
	query := `
		SELECT
			r.id,
			r.user_id,
			r.user_gender,
			r.user_email,
			r.template_id,
			r.occurrence_date,
			r.status,
			r.created_at,
			r.cancelled_at,
			t.title,
			t.instructor,
			t.day_of_week,
			t.start_time,
			t.duration_minutes
		FROM reservations r
		JOIN session_templates t ON t.id = r.template_id
		WHERE r.user_id = $1 AND ($2::text = '' OR r.status = $2::text)
		ORDER BY r.occurrence_date ASC, r.created_at DESC
	`

	reservations := []ReservationWithTemplate{}
	if err := r.db.SelectContext(ctx, &reservations, query, userID, string(status)); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}

	return reservations, nil
}

func (r *repository) RetireTemplate(ctx context.Context, templateID uuid.UUID, from schedule.Date, at time.Time) ([]Reservation, error) {
	cancelled := []Reservation{}

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		cancelled = cancelled[:0]

		// The row lock taken here waits for in-flight bookings holding FOR SHARE.
		res, err := tx.ExecContext(ctx, `
			UPDATE session_templates
			SET deleted_at = $2
			WHERE id = $1 AND deleted_at IS NULL
		`, templateID, at)
		if err != nil {
			return fmt.Errorf("retire template: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return schedule.ErrTemplateNotFound
		}

		err = tx.SelectContext(ctx, &cancelled, `
			UPDATE reservations
			SET status = 'cancelled', cancelled_at = $3
			WHERE template_id = $1 AND occurrence_date >= $2 AND status = 'active'
			RETURNING `+reservationColumns,
			templateID, from, at)
		if err != nil {
			return fmt.Errorf("cancel future reservations: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			DELETE FROM occurrence_seats
			WHERE template_id = $1 AND occurrence_date >= $2
		`, templateID, from); err != nil {
			return fmt.Errorf("clear seats: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cancelled, nil
}
