package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"eventpass-backend/export"
	"eventpass-backend/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type AdminHandler struct {
	store    AttendeeStore
	gate     StatusGate
	exporter export.Exporter
	log      *zerolog.Logger
}

func NewAdminHandler(attendees AttendeeStore, gate StatusGate, exporter export.Exporter, logger *zerolog.Logger) *AdminHandler {
	return &AdminHandler{store: attendees, gate: gate, exporter: exporter, log: logger}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, "", stats)
}

func (h *AdminHandler) GetStatus(c *gin.Context) {
	status, err := h.gate.SystemStatus(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, "", status)
}

func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	status, err := h.gate.Update(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info().Str("by", c.GetString(subjectKey)).Msg("system status changed")
	respondOK(c, "Status updated", status)
}

func (h *AdminHandler) SearchAttendees(c *gin.Context) {
	filter := models.AttendeeFilter{
		Query:  strings.TrimSpace(c.Query("q")),
		Status: strings.TrimSpace(c.Query("status")),
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", defaultPageSize),
	}
	switch filter.Status {
	case "", models.StatusRegistered, models.StatusEpassIssued, models.StatusCheckedIn, models.StatusRevoked:
	default:
		respondFail(c, http.StatusBadRequest, "Unknown status filter")
		return
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > maxPageSize {
		filter.Limit = defaultPageSize
	}

	attendees, total, err := h.store.SearchAttendees(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, "", models.AttendeePage{
		Attendees: attendees,
		Total:     total,
		Page:      filter.Page,
		Limit:     filter.Limit,
	})
}

func (h *AdminHandler) Revoke(c *gin.Context) {
	regID := models.ParseScannedCode(c.Param("registrationId"))
	if !models.ValidRegistrationID(regID) {
		respondFail(c, http.StatusBadRequest, "Invalid registration ID")
		return
	}

	attendee, err := h.store.RevokeAttendee(c.Request.Context(), regID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info().Str("registration_id", regID).Str("by", c.GetString(subjectKey)).Msg("pass revoked")
	respondOK(c, "Pass revoked", attendee)
}

func (h *AdminHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()
	attendees, err := h.store.ListAttendees(ctx)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	n, err := h.exporter.Export(ctx, attendees)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, "Export complete", gin.H{"rows": n})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}
