// Package checkin moves an attendee to checked_in and records who let them
// in. Repeating a check-in is safe: the second call reports the attendee as
// already checked in and writes nothing.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"eventpass-backend/models"
)

var (
	ErrRevoked       = errors.New("pass has been revoked")
	ErrInvalidMethod = errors.New("invalid check-in method")
	ErrInvalidID     = errors.New("invalid registration id")
)

type Repository interface {
	GetAttendeeByRegistrationID(ctx context.Context, registrationID string) (*models.Attendee, error)
	MarkCheckedIn(ctx context.Context, id uuid.UUID, at time.Time) (*models.Attendee, error)
	InsertCheckinIfAbsent(ctx context.Context, c *models.Checkin) (bool, error)
}

type Writer struct {
	repo Repository
	log  *zerolog.Logger
	now  func() time.Time
}

func NewWriter(repo Repository, logger *zerolog.Logger) *Writer {
	return &Writer{repo: repo, log: logger, now: time.Now}
}

// CheckIn marks the pass as used. Lookup errors are returned as they come
// from the repository so callers can match store sentinels.
func (w *Writer) CheckIn(ctx context.Context, req models.CheckinRequest) (*models.CheckinResult, error) {
	regID := models.ParseScannedCode(req.RegistrationID)
	if !models.ValidRegistrationID(regID) {
		return nil, ErrInvalidID
	}
	method := req.Method
	if method == "" {
		method = models.MethodQRScan
	}
	if !models.ValidMethod(method) {
		return nil, ErrInvalidMethod
	}

	attendee, err := w.repo.GetAttendeeByRegistrationID(ctx, regID)
	if err != nil {
		return nil, fmt.Errorf("lookup attendee: %w", err)
	}

	switch attendee.Status {
	case models.StatusCheckedIn:
		return &models.CheckinResult{Attendee: attendee, AlreadyCheckedIn: true}, nil
	case models.StatusRevoked:
		return nil, ErrRevoked
	}

	now := w.now().UTC()
	updated, err := w.repo.MarkCheckedIn(ctx, attendee.ID, now)
	if err != nil {
		return nil, fmt.Errorf("mark checked in: %w", err)
	}

	record := &models.Checkin{
		AttendeeID: attendee.ID,
		Method:     method,
		Location:   req.Location,
		Notes:      req.Notes,
		CreatedAt:  now,
	}
	inserted, err := w.repo.InsertCheckinIfAbsent(ctx, record)
	switch {
	case err != nil:
		w.log.Error().Err(err).
			Str("registration_id", regID).
			Str("method", method).
			Msg("failed to write checkin audit row")
	case !inserted:
		w.log.Warn().
			Str("registration_id", regID).
			Str("method", method).
			Msg("checkin audit row already present")
	default:
		w.log.Info().
			Str("registration_id", regID).
			Str("method", method).
			Msg("attendee checked in")
	}

	return &models.CheckinResult{Attendee: updated, AlreadyCheckedIn: false}, nil
}
