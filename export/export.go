// Package export pushes the attendee list to a Google Sheet. Every export
// replaces the sheet contents with a full snapshot.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"eventpass-backend/models"
)

var (
	ErrNotConfigured = errors.New("spreadsheet export not configured")
	ErrUnavailable   = errors.New("spreadsheet unavailable")
)

var header = []interface{}{
	"Registration ID", "Full Name", "Phone", "Email", "City", "State",
	"Status", "Photo URL", "Registered At", "Updated At",
}

type Exporter interface {
	Export(ctx context.Context, attendees []models.Attendee) (int, error)
}

type valuesAPI interface {
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, rows [][]interface{}) error
}

type Sheets struct {
	api           valuesAPI
	spreadsheetID string
	rng           string
	log           *zerolog.Logger
}

func NewSheets(ctx context.Context, credentialsFile, spreadsheetID, rng string, logger *zerolog.Logger) (*Sheets, error) {
	srv, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return &Sheets{
		api:           &sheetsValues{svc: srv.Spreadsheets.Values},
		spreadsheetID: spreadsheetID,
		rng:           rng,
		log:           logger,
	}, nil
}

// Export clears the target sheet and writes the header plus one row per
// attendee. It returns the number of attendee rows written.
func (s *Sheets) Export(ctx context.Context, attendees []models.Attendee) (int, error) {
	start := time.Now()
	if err := s.api.Clear(ctx, s.spreadsheetID, sheetName(s.rng)); err != nil {
		return 0, fmt.Errorf("%w: clear: %w", ErrUnavailable, err)
	}
	if err := s.api.Update(ctx, s.spreadsheetID, s.rng, Rows(attendees)); err != nil {
		return 0, fmt.Errorf("%w: update: %w", ErrUnavailable, err)
	}
	s.log.Info().
		Int("rows", len(attendees)).
		Dur("took", time.Since(start)).
		Msg("attendees exported")
	return len(attendees), nil
}

// Rows renders the snapshot written to the sheet, header first.
func Rows(attendees []models.Attendee) [][]interface{} {
	rows := make([][]interface{}, 0, len(attendees)+1)
	rows = append(rows, header)
	for _, a := range attendees {
		photo := ""
		if a.ProfileURL != nil {
			photo = *a.ProfileURL
		}
		rows = append(rows, []interface{}{
			a.RegistrationID,
			a.FullName,
			a.Phone,
			a.Email,
			a.City,
			a.State,
			a.Status,
			photo,
			a.CreatedAt.UTC().Format(time.RFC3339),
			a.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return rows
}

// sheetName turns "Attendees!A1" into "Attendees" so the whole tab is cleared.
func sheetName(rng string) string {
	if i := strings.Index(rng, "!"); i >= 0 {
		return rng[:i]
	}
	return rng
}

type sheetsValues struct {
	svc *sheets.SpreadsheetsValuesService
}

func (v *sheetsValues) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := v.svc.Clear(spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (v *sheetsValues) Update(ctx context.Context, spreadsheetID, rng string, rows [][]interface{}) error {
	_, err := v.svc.Update(spreadsheetID, rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// Disabled is used when no spreadsheet is configured.
type Disabled struct{}

func (Disabled) Export(context.Context, []models.Attendee) (int, error) {
	return 0, ErrNotConfigured
}
