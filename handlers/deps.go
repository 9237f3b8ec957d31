package handlers

import (
	"context"

	"github.com/google/uuid"

	"eventpass-backend/models"
)

// AttendeeStore is the slice of the database the handlers use.
type AttendeeStore interface {
	Ping(ctx context.Context) error
	CreateAttendee(ctx context.Context, a *models.Attendee) error
	PhoneExists(ctx context.Context, phone string) (bool, error)
	GetAttendeeByRegistrationID(ctx context.Context, registrationID string) (*models.Attendee, error)
	GetAttendeeByPhone(ctx context.Context, phone string) (*models.Attendee, error)
	MarkEpassIssued(ctx context.Context, id uuid.UUID) (bool, error)
	RevokeAttendee(ctx context.Context, registrationID string) (*models.Attendee, error)
	SearchAttendees(ctx context.Context, f models.AttendeeFilter) ([]models.Attendee, int, error)
	ListAttendees(ctx context.Context) ([]models.Attendee, error)
	Stats(ctx context.Context) (*models.Stats, error)
	ListCheckinsForAttendee(ctx context.Context, attendeeID uuid.UUID) ([]models.Checkin, error)
}

type CheckinWriter interface {
	CheckIn(ctx context.Context, req models.CheckinRequest) (*models.CheckinResult, error)
}

type StatusGate interface {
	PublicStatus(ctx context.Context) models.PublicStatus
	RegistrationOpen(ctx context.Context) bool
	SystemStatus(ctx context.Context) (*models.SystemStatus, error)
	Update(ctx context.Context, req models.UpdateStatusRequest) (*models.SystemStatus, error)
}

// PassResponse is an attendee plus the link encoded in their QR code.
type PassResponse struct {
	*models.Attendee
	PassURL string `json:"passUrl,omitempty"`
}

func passURL(base, registrationID string) string {
	if base == "" {
		return ""
	}
	return base + "/verify?id=" + registrationID
}
