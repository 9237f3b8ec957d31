package store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicatePhone = errors.New("phone number already registered")
	ErrDuplicate      = errors.New("duplicate record")
	ErrUnavailable    = errors.New("database unavailable")
)

const (
	constraintAttendeePhone = "attendees_phone_key"

	codeUniqueViolation    = "23505"
	codeTooManyConnections = "53300"
)

// Server-side codes that mean "try again later" rather than "bad query".
var unavailableCodes = map[string]bool{
	codeTooManyConnections: true,
	"57P01":                true, // admin_shutdown
	"57P02":                true, // crash_shutdown
	"57P03":                true, // cannot_connect_now
	"57014":                true, // query_canceled (statement timeout)
}

// classify maps driver errors onto the package sentinels, keeping the
// original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation && pgErr.ConstraintName == constraintAttendeePhone:
			return fmt.Errorf("%w: %w", ErrDuplicatePhone, err)
		case pgErr.Code == codeUniqueViolation:
			return fmt.Errorf("%w: %w", ErrDuplicate, err)
		case strings.HasPrefix(pgErr.Code, "08"), unavailableCodes[pgErr.Code]:
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connectErr),
		errors.As(err, &netErr),
		pgconn.Timeout(err),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

// IsUnavailable reports whether err is a connection-level failure worth a
// retry by a read-only caller.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
