package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"eventpass-backend/models"
)

// InsertCheckinIfAbsent writes the audit row unless one already exists for
// the same attendee and method. The existence check and the insert are one
// statement but not serialized against concurrent callers; there is no
// unique index behind it.
func (s *Store) InsertCheckinIfAbsent(ctx context.Context, c *models.Checkin) (bool, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}

	tag, err := s.db.Exec(ctx, `
		INSERT INTO checkins (id, attendee_id, method, location, notes, created_at)
		SELECT $1::uuid, $2::uuid, $3::text, $4::text, $5::text, $6::timestamptz
		WHERE NOT EXISTS (
			SELECT 1 FROM checkins WHERE attendee_id = $2::uuid AND method = $3::text
		)
	`, c.ID, c.AttendeeID, c.Method, c.Location, c.Notes, c.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert checkin: %w", classify(err))
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ListCheckinsForAttendee(ctx context.Context, attendeeID uuid.UUID) ([]models.Checkin, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, attendee_id, method, location, notes, created_at
		FROM checkins
		WHERE attendee_id = $1
		ORDER BY created_at ASC
	`, attendeeID)
	if err != nil {
		return nil, fmt.Errorf("list checkins: %w", classify(err))
	}
	defer rows.Close()

	checkins := []models.Checkin{}
	for rows.Next() {
		var c models.Checkin
		if err := rows.Scan(&c.ID, &c.AttendeeID, &c.Method, &c.Location, &c.Notes, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan checkin: %w", classify(err))
		}
		checkins = append(checkins, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list checkins: %w", classify(err))
	}
	return checkins, nil
}
