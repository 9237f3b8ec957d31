package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"eventpass-backend/checkin"
	"eventpass-backend/export"
	"eventpass-backend/media"
	"eventpass-backend/settings"
	"eventpass-backend/store"
	"eventpass-backend/validation"
)

var (
	errRegistrationClosed = errors.New("registration is currently closed")
	errMissingLookupKey   = errors.New("phone or registrationId is required")
)

type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func respondFail(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Success: false, Message: message})
}

// respondError maps a domain error onto its HTTP status. Anything it does
// not recognise is logged and reported as 500 with a generic message.
func respondError(c *gin.Context, log *zerolog.Logger, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		respondFail(c, http.StatusBadRequest, verr.Error())
	case errors.Is(err, checkin.ErrInvalidID):
		respondFail(c, http.StatusBadRequest, "Invalid registration ID")
	case errors.Is(err, checkin.ErrInvalidMethod):
		respondFail(c, http.StatusBadRequest, "Invalid check-in method")
	case errors.Is(err, errMissingLookupKey):
		respondFail(c, http.StatusBadRequest, "Provide a phone number or registration ID")
	case errors.Is(err, settings.ErrNoChanges):
		respondFail(c, http.StatusBadRequest, "Nothing to update")
	case errors.Is(err, errRegistrationClosed):
		respondFail(c, http.StatusForbidden, "Registration is currently closed")
	case errors.Is(err, store.ErrNotFound):
		respondFail(c, http.StatusNotFound, "Registration not found")
	case errors.Is(err, store.ErrDuplicatePhone):
		respondFail(c, http.StatusConflict, "This phone number is already registered")
	case errors.Is(err, store.ErrDuplicate):
		respondFail(c, http.StatusConflict, "Registration already exists")
	case errors.Is(err, checkin.ErrRevoked):
		respondFail(c, http.StatusConflict, "This pass has been revoked")
	case errors.Is(err, store.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).Str("path", c.FullPath()).Msg("database unavailable")
		respondFail(c, http.StatusServiceUnavailable, "Service temporarily unavailable, please retry")
	case errors.Is(err, media.ErrUnavailable):
		log.Warn().Err(err).Msg("image host unavailable")
		respondFail(c, http.StatusServiceUnavailable, "Photo upload is temporarily unavailable, please retry")
	case errors.Is(err, export.ErrUnavailable), errors.Is(err, export.ErrNotConfigured):
		log.Warn().Err(err).Msg("export target unavailable")
		respondFail(c, http.StatusServiceUnavailable, "Spreadsheet export is unavailable")
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("unexpected error")
		respondFail(c, http.StatusInternalServerError, "Internal server error")
	}
}

// retryRead runs a read-only lookup and repeats it once if the database
// was unreachable.
func retryRead(ctx context.Context, fn func() error) error {
	err := fn()
	if err != nil && store.IsUnavailable(err) && ctx.Err() == nil {
		err = fn()
	}
	return err
}
