package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"eventpass-backend/models"
)

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const attendeeColumns = `id, registration_id, full_name, phone, email, city, state, profile_url, status, created_at, updated_at`

func scanAttendee(row pgx.Row) (*models.Attendee, error) {
	var a models.Attendee
	err := row.Scan(
		&a.ID,
		&a.RegistrationID,
		&a.FullName,
		&a.Phone,
		&a.Email,
		&a.City,
		&a.State,
		&a.ProfileURL,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAttendee inserts a new attendee in the registered state. ID and
// timestamps are filled in on success.
func (s *Store) CreateAttendee(ctx context.Context, a *models.Attendee) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = models.StatusRegistered
	}
	now := s.now().UTC()

	query := `
		INSERT INTO attendees (id, registration_id, full_name, phone, email, city, state, profile_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query,
		a.ID,
		a.RegistrationID,
		a.FullName,
		a.Phone,
		a.Email,
		a.City,
		a.State,
		a.ProfileURL,
		a.Status,
		now,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert attendee: %w", classify(err))
	}
	return nil
}

func (s *Store) PhoneExists(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM attendees WHERE phone = $1)", phone).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check phone: %w", classify(err))
	}
	return exists, nil
}

func (s *Store) GetAttendeeByRegistrationID(ctx context.Context, registrationID string) (*models.Attendee, error) {
	query := `SELECT ` + attendeeColumns + ` FROM attendees WHERE registration_id = $1`
	a, err := scanAttendee(s.db.QueryRow(ctx, query, registrationID))
	if err != nil {
		return nil, classify(err)
	}
	return a, nil
}

func (s *Store) GetAttendeeByPhone(ctx context.Context, phone string) (*models.Attendee, error) {
	query := `SELECT ` + attendeeColumns + ` FROM attendees WHERE phone = $1`
	a, err := scanAttendee(s.db.QueryRow(ctx, query, phone))
	if err != nil {
		return nil, classify(err)
	}
	return a, nil
}

// MarkEpassIssued moves a registered attendee to epass_issued. It reports
// false when the attendee had already moved past registered.
func (s *Store) MarkEpassIssued(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE attendees
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
	`, id, models.StatusEpassIssued, s.now().UTC(), models.StatusRegistered)
	if err != nil {
		return false, fmt.Errorf("mark epass issued: %w", classify(err))
	}
	return tag.RowsAffected() == 1, nil
}

// MarkCheckedIn sets the attendee status to checked_in. The write is
// unconditional, so repeating it converges on the same state.
func (s *Store) MarkCheckedIn(ctx context.Context, id uuid.UUID, at time.Time) (*models.Attendee, error) {
	query := `
		UPDATE attendees
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + attendeeColumns
	a, err := scanAttendee(s.db.QueryRow(ctx, query, id, models.StatusCheckedIn, at.UTC()))
	if err != nil {
		return nil, fmt.Errorf("mark checked in: %w", classify(err))
	}
	return a, nil
}

func (s *Store) RevokeAttendee(ctx context.Context, registrationID string) (*models.Attendee, error) {
	query := `
		UPDATE attendees
		SET status = $2, updated_at = $3
		WHERE registration_id = $1
		RETURNING ` + attendeeColumns
	a, err := scanAttendee(s.db.QueryRow(ctx, query, registrationID, models.StatusRevoked, s.now().UTC()))
	if err != nil {
		return nil, fmt.Errorf("revoke attendee: %w", classify(err))
	}
	return a, nil
}

// SearchAttendees returns one page of attendees matching the filter plus the
// total number of matches.
func (s *Store) SearchAttendees(ctx context.Context, f models.AttendeeFilter) ([]models.Attendee, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}

	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+likeEscaper.Replace(q)+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (full_name ILIKE $` + n + ` ESCAPE '\' OR registration_id ILIKE $` + n + ` ESCAPE '\'` +
			` OR phone LIKE $` + n + ` ESCAPE '\' OR email ILIKE $` + n + ` ESCAPE '\')`
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += ` AND status = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM attendees`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count attendees: %w", classify(err))
	}

	args = append(args, f.Limit, f.Offset())
	query := `SELECT ` + attendeeColumns + ` FROM attendees` + where +
		` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	attendees, err := s.queryAttendees(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search attendees: %w", err)
	}
	return attendees, total, nil
}

// ListAttendees returns every attendee in registration order.
func (s *Store) ListAttendees(ctx context.Context) ([]models.Attendee, error) {
	attendees, err := s.queryAttendees(ctx, `SELECT `+attendeeColumns+` FROM attendees ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	return attendees, nil
}

func (s *Store) queryAttendees(ctx context.Context, query string, args ...interface{}) ([]models.Attendee, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	attendees := []models.Attendee{}
	for rows.Next() {
		a, err := scanAttendee(rows)
		if err != nil {
			return nil, classify(err)
		}
		attendees = append(attendees, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return attendees, nil
}

func (s *Store) Stats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{
		ByStatus:         map[string]int{},
		CheckinsByMethod: map[string]int{},
	}

	rows, err := s.db.Query(ctx, `SELECT status, COUNT(*) FROM attendees GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", classify(err))
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan status count: %w", classify(err))
		}
		stats.ByStatus[status] = n
		stats.Total += n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count by status: %w", classify(err))
	}

	rows, err = s.db.Query(ctx, `SELECT method, COUNT(*) FROM checkins GROUP BY method`)
	if err != nil {
		return nil, fmt.Errorf("count by method: %w", classify(err))
	}
	for rows.Next() {
		var method string
		var n int
		if err := rows.Scan(&method, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan method count: %w", classify(err))
		}
		stats.CheckinsByMethod[method] = n
		stats.CheckinsTotal += n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count by method: %w", classify(err))
	}

	midnight := s.now().UTC().Truncate(24 * time.Hour)
	err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM attendees WHERE created_at >= $1`, midnight).Scan(&stats.RegisteredToday)
	if err != nil {
		return nil, fmt.Errorf("count today: %w", classify(err))
	}
	return stats, nil
}
