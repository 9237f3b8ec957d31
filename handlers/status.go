package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type StatusHandler struct {
	store AttendeeStore
	gate  StatusGate
}

func NewStatusHandler(attendees AttendeeStore, gate StatusGate) *StatusHandler {
	return &StatusHandler{store: attendees, gate: gate}
}

// PublicStatus always answers 200; the gate already falls back to closed.
func (h *StatusHandler) PublicStatus(c *gin.Context) {
	respondOK(c, "", h.gate.PublicStatus(c.Request.Context()))
}

func (h *StatusHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	database := "up"
	if err := h.store.Ping(ctx); err != nil {
		database = "down"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"database":  database,
		"timestamp": time.Now().Unix(),
	})
}
