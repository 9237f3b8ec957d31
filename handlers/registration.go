package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"eventpass-backend/media"
	"eventpass-backend/models"
	"eventpass-backend/notify"
	"eventpass-backend/store"
	"eventpass-backend/validation"
)

type RegistrationHandler struct {
	store       AttendeeStore
	gate        StatusGate
	validator   *validation.Validator
	uploader    media.Uploader
	publisher   notify.Publisher
	idPrefix    string
	passBaseURL string
	log         *zerolog.Logger
}

type RegistrationConfig struct {
	IDPrefix    string
	PassBaseURL string
}

func NewRegistrationHandler(
	attendees AttendeeStore,
	gate StatusGate,
	v *validation.Validator,
	uploader media.Uploader,
	publisher notify.Publisher,
	cfg RegistrationConfig,
	logger *zerolog.Logger,
) *RegistrationHandler {
	return &RegistrationHandler{
		store:       attendees,
		gate:        gate,
		validator:   v,
		uploader:    uploader,
		publisher:   publisher,
		idPrefix:    cfg.IDPrefix,
		passBaseURL: cfg.PassBaseURL,
		log:         logger,
	}
}

func (h *RegistrationHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Phone = models.NormalizePhone(req.Phone)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.City = strings.TrimSpace(req.City)
	req.State = strings.TrimSpace(req.State)

	if err := h.validator.Validate(ctx, req); err != nil {
		respondError(c, h.log, err)
		return
	}
	if !h.gate.RegistrationOpen(ctx) {
		respondError(c, h.log, errRegistrationClosed)
		return
	}

	exists, err := h.store.PhoneExists(ctx, req.Phone)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if exists {
		respondError(c, h.log, store.ErrDuplicatePhone)
		return
	}

	attendee := &models.Attendee{
		RegistrationID: models.NewRegistrationID(h.idPrefix),
		FullName:       req.FullName,
		Phone:          req.Phone,
		Email:          req.Email,
		City:           req.City,
		State:          req.State,
		Status:         models.StatusRegistered,
	}

	if req.Photo != "" {
		url, err := h.uploader.UploadPhoto(ctx, req.Photo, attendee.RegistrationID)
		switch {
		case errors.Is(err, media.ErrNotConfigured):
			h.log.Warn().Str("registration_id", attendee.RegistrationID).Msg("photo dropped, image host not configured")
		case err != nil:
			respondError(c, h.log, err)
			return
		default:
			attendee.ProfileURL = &url
		}
	}

	if err := h.store.CreateAttendee(ctx, attendee); err != nil {
		respondError(c, h.log, err)
		return
	}

	issued, err := h.store.MarkEpassIssued(ctx, attendee.ID)
	if err != nil {
		h.log.Error().Err(err).Str("registration_id", attendee.RegistrationID).Msg("failed to issue e-pass")
	} else if issued {
		attendee.Status = models.StatusEpassIssued
	}

	pass := PassResponse{Attendee: attendee, PassURL: passURL(h.passBaseURL, attendee.RegistrationID)}
	if attendee.Status == models.StatusEpassIssued {
		err := h.publisher.PublishEpassIssued(ctx, notify.EpassMessage{
			RegistrationID: attendee.RegistrationID,
			FullName:       attendee.FullName,
			Email:          attendee.Email,
			PassURL:        pass.PassURL,
			IssuedAt:       attendee.UpdatedAt,
		})
		if err != nil {
			h.log.Warn().Err(err).Str("registration_id", attendee.RegistrationID).Msg("failed to queue e-pass email")
		}
	}

	h.log.Info().Str("registration_id", attendee.RegistrationID).Msg("attendee registered")
	respondOK(c, "Registration successful", pass)
}

func (h *RegistrationHandler) FindPass(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.FindPassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if strings.TrimSpace(req.Phone) != "" {
		req.Phone = models.NormalizePhone(req.Phone)
	}
	req.RegistrationID = models.NormalizeRegistrationID(req.RegistrationID)
	if req.Phone == "" && req.RegistrationID == "" {
		respondError(c, h.log, errMissingLookupKey)
		return
	}
	if err := h.validator.Validate(ctx, req); err != nil {
		respondError(c, h.log, err)
		return
	}

	var attendee *models.Attendee
	err := retryRead(ctx, func() error {
		var err error
		if req.RegistrationID != "" {
			attendee, err = h.store.GetAttendeeByRegistrationID(ctx, req.RegistrationID)
		} else {
			attendee, err = h.store.GetAttendeeByPhone(ctx, req.Phone)
		}
		return err
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, "", PassResponse{Attendee: attendee, PassURL: passURL(h.passBaseURL, attendee.RegistrationID)})
}
