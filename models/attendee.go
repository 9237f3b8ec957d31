package models

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Attendee status constants
const (
	StatusRegistered  = "registered"
	StatusEpassIssued = "epass_issued"
	StatusCheckedIn   = "checked_in"
	StatusRevoked     = "revoked"
)

var (
	registrationIDPattern = regexp.MustCompile(`^[A-Z0-9_-]+$`)
	phonePattern          = regexp.MustCompile(`^[0-9]{10}$`)
	phoneNoise            = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

type Attendee struct {
	ID             uuid.UUID `json:"id" db:"id"`
	RegistrationID string    `json:"registrationId" db:"registration_id"`
	FullName       string    `json:"fullName" db:"full_name"`
	Phone          string    `json:"phone" db:"phone"`
	Email          string    `json:"email" db:"email"`
	City           string    `json:"city" db:"city"`
	State          string    `json:"state" db:"state"`
	ProfileURL     *string   `json:"profileUrl" db:"profile_url"`
	Status         string    `json:"status" db:"status"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

func (a *Attendee) IsCheckedIn() bool {
	return a.Status == StatusCheckedIn
}

type RegisterRequest struct {
	FullName string `json:"fullName" validate:"required,min=2,max=100"`
	Phone    string `json:"phone" validate:"required,phone10"`
	Email    string `json:"email" validate:"required,email,max=254"`
	City     string `json:"city" validate:"required,max=80"`
	State    string `json:"state" validate:"required,max=80"`
	// Photo is an optional data URI (data:image/png;base64,...).
	Photo string `json:"photo" validate:"omitempty,photo"`
}

// FindPassRequest looks a pass up by phone or by registration id; one of
// the two must be set.
type FindPassRequest struct {
	Phone          string `json:"phone" validate:"omitempty,phone10"`
	RegistrationID string `json:"registrationId" validate:"omitempty,regid"`
}

// AttendeeFilter drives the admin search.
type AttendeeFilter struct {
	Query  string
	Status string
	Page   int
	Limit  int
}

func (f AttendeeFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

type AttendeePage struct {
	Attendees []Attendee `json:"attendees"`
	Total     int        `json:"total"`
	Page      int        `json:"page"`
	Limit     int        `json:"limit"`
}

type Stats struct {
	Total            int            `json:"total"`
	ByStatus         map[string]int `json:"byStatus"`
	CheckinsTotal    int            `json:"checkinsTotal"`
	CheckinsByMethod map[string]int `json:"checkinsByMethod"`
	RegisteredToday  int            `json:"registeredToday"`
}

// NormalizeRegistrationID trims and uppercases a registration id.
func NormalizeRegistrationID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func ValidRegistrationID(id string) bool {
	return registrationIDPattern.MatchString(id)
}

// NormalizePhone strips formatting and a leading country/trunk prefix.
// The result is only meaningful if ValidPhone reports true for it.
func NormalizePhone(phone string) string {
	p := phoneNoise.Replace(strings.TrimSpace(phone))
	p = strings.TrimPrefix(p, "+")
	switch {
	case len(p) == 12 && strings.HasPrefix(p, "91"):
		p = p[2:]
	case len(p) == 11 && strings.HasPrefix(p, "0"):
		p = p[1:]
	}
	return p
}

func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ParseScannedCode extracts a registration id from QR scanner output. The
// code is either the bare id or a pass URL carrying it as ?id= or ?rid=.
func ParseScannedCode(code string) string {
	code = strings.TrimSpace(code)
	if strings.Contains(code, "://") || strings.Contains(code, "?") {
		if u, err := url.Parse(code); err == nil {
			q := u.Query()
			for _, key := range []string{"id", "rid", "registrationId"} {
				if v := q.Get(key); v != "" {
					return NormalizeRegistrationID(v)
				}
			}
			if i := strings.LastIndex(u.Path, "/"); i >= 0 && i < len(u.Path)-1 {
				return NormalizeRegistrationID(u.Path[i+1:])
			}
		}
	}
	return NormalizeRegistrationID(code)
}

// NewRegistrationID builds PREFIX-XXXXXXXX from fresh uuid entropy.
func NewRegistrationID(prefix string) string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	prefix = NormalizeRegistrationID(prefix)
	if prefix == "" {
		return raw[:10]
	}
	return prefix + "-" + raw[:8]
}
