package booking

import (
	"context"
	"fmt"

	"classbook/internal/schedule"

	"github.com/google/uuid"
)

// ListRoster returns members holding an active seat, earliest booking first.
func (r *repository) ListRoster(ctx context.Context, templateID uuid.UUID, date schedule.Date) ([]RosterEntry, error) {
	query := `
		SELECT id AS reservation_id, user_id, user_gender, user_email, created_at
		FROM reservations
		WHERE template_id = $1 AND occurrence_date = $2 AND status = 'active'
		ORDER BY created_at ASC, id ASC
	`

	roster := []RosterEntry{}
	if err := r.db.SelectContext(ctx, &roster, query, templateID, date); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}

	return roster, nil
}
