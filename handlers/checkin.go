package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"eventpass-backend/models"
	"eventpass-backend/validation"
)

type CheckinHandler struct {
	store       AttendeeStore
	writer      CheckinWriter
	validator   *validation.Validator
	passBaseURL string
	log         *zerolog.Logger
}

func NewCheckinHandler(attendees AttendeeStore, writer CheckinWriter, v *validation.Validator, passBaseURL string, logger *zerolog.Logger) *CheckinHandler {
	return &CheckinHandler{
		store:       attendees,
		writer:      writer,
		validator:   v,
		passBaseURL: passBaseURL,
		log:         logger,
	}
}

type verifyResponse struct {
	PassResponse
	Valid     bool             `json:"valid"`
	CheckedIn bool             `json:"checkedIn"`
	Checkins  []models.Checkin `json:"checkins"`
}

// Verify looks a scanned pass up without changing it. The audit history is
// attached so door staff can see when and how the pass was used.
func (h *CheckinHandler) Verify(c *gin.Context) {
	ctx := c.Request.Context()
	regID := models.ParseScannedCode(c.Param("registrationId"))
	if !models.ValidRegistrationID(regID) {
		respondFail(c, http.StatusBadRequest, "Invalid registration ID")
		return
	}

	var attendee *models.Attendee
	var checkins []models.Checkin
	err := retryRead(ctx, func() error {
		var err error
		if attendee, err = h.store.GetAttendeeByRegistrationID(ctx, regID); err != nil {
			return err
		}
		checkins, err = h.store.ListCheckinsForAttendee(ctx, attendee.ID)
		return err
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, "", verifyResponse{
		PassResponse: PassResponse{Attendee: attendee, PassURL: passURL(h.passBaseURL, attendee.RegistrationID)},
		Valid:        attendee.Status != models.StatusRevoked,
		CheckedIn:    attendee.IsCheckedIn(),
		Checkins:     checkins,
	})
}

func (h *CheckinHandler) CheckIn(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.CheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := h.validator.Validate(ctx, req); err != nil {
		respondError(c, h.log, err)
		return
	}

	res, err := h.writer.CheckIn(ctx, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	message := "Checked in successfully"
	if res.AlreadyCheckedIn {
		message = "Attendee was already checked in"
	}
	respondOK(c, message, res)
}
