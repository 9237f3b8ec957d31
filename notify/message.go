// Package notify delivers e-pass emails. Registration publishes a message to
// RabbitMQ and a background worker turns it into an email.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const RoutingKeyEpassIssued = "epass.issued"

type EpassMessage struct {
	RegistrationID string    `json:"registrationId"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	PassURL        string    `json:"passUrl,omitempty"`
	IssuedAt       time.Time `json:"issuedAt"`
}

type Publisher interface {
	PublishEpassIssued(ctx context.Context, msg EpassMessage) error
}

// NopPublisher drops messages when no broker is configured.
type NopPublisher struct {
	Log *zerolog.Logger
}

func (p NopPublisher) PublishEpassIssued(_ context.Context, msg EpassMessage) error {
	if p.Log != nil {
		p.Log.Debug().Str("registration_id", msg.RegistrationID).Msg("notifications disabled, e-pass email skipped")
	}
	return nil
}
