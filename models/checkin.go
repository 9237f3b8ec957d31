package models

import (
	"time"

	"github.com/google/uuid"
)

// Check-in method constants
const (
	MethodQRScan       = "qr_scan"
	MethodManualLookup = "manual_lookup"
)

type Checkin struct {
	ID         uuid.UUID `json:"id" db:"id"`
	AttendeeID uuid.UUID `json:"attendeeId" db:"attendee_id"`
	Method     string    `json:"method" db:"method"`
	Location   string    `json:"location" db:"location"`
	Notes      string    `json:"notes" db:"notes"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

type CheckinRequest struct {
	// RegistrationID is the bare id or the full pass URL read from the QR code.
	RegistrationID string `json:"registrationId" validate:"required,max=512"`
	Method         string `json:"method" validate:"omitempty,oneof=qr_scan manual_lookup"`
	Location       string `json:"location" validate:"max=120"`
	Notes          string `json:"notes" validate:"max=500"`
}

type CheckinResult struct {
	Attendee         *Attendee `json:"attendee"`
	AlreadyCheckedIn bool      `json:"alreadyCheckedIn"`
}

func ValidMethod(method string) bool {
	return method == MethodQRScan || method == MethodManualLookup
}
