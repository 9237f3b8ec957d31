package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"eventpass-backend/token"
)

const subjectKey = "subject"

type StaffHandler struct {
	signer        *token.Signer
	staffPassword string
	adminPassword string
	log           *zerolog.Logger
}

func NewStaffHandler(signer *token.Signer, staffPassword, adminPassword string, logger *zerolog.Logger) *StaffHandler {
	return &StaffHandler{
		signer:        signer,
		staffPassword: staffPassword,
		adminPassword: adminPassword,
		log:           logger,
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	ExpiresIn int64  `json:"expiresIn"`
}

func (h *StaffHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		respondFail(c, http.StatusBadRequest, "Password is required")
		return
	}

	role := h.roleForPassword(req.Password)
	if role == "" {
		h.log.Warn().Str("client_ip", c.ClientIP()).Msg("staff login rejected")
		respondFail(c, http.StatusUnauthorized, "Invalid password")
		return
	}

	tok, err := h.signer.Sign(role)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info().Str("role", role).Msg("staff session issued")
	respondOK(c, "Logged in", sessionResponse{Token: tok, Role: role, ExpiresIn: int64(h.signer.TTL().Seconds())})
}

// Refresh trades a still-valid token for a fresh one. Raw passwords are
// not accepted here.
func (h *StaffHandler) Refresh(c *gin.Context) {
	raw := bearer(c)
	fresh, claims, ok := h.signer.Refresh(raw)
	if !ok {
		respondFail(c, http.StatusUnauthorized, "Session expired, please log in again")
		return
	}
	respondOK(c, "Session refreshed", sessionResponse{Token: fresh, Role: claims.Subject, ExpiresIn: int64(h.signer.TTL().Seconds())})
}

// RequireStaff admits staff and admin sessions.
func (h *StaffHandler) RequireStaff() gin.HandlerFunc {
	return h.require(false)
}

// RequireAdmin admits admin sessions only; staff get 403.
func (h *StaffHandler) RequireAdmin() gin.HandlerFunc {
	return h.require(true)
}

func (h *StaffHandler) require(adminOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := h.authenticate(bearer(c))
		if subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{Success: false, Message: "Unauthorized"})
			return
		}
		if adminOnly && subject != token.SubjectAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, envelope{Success: false, Message: "Admin access required"})
			return
		}
		c.Set(subjectKey, subject)
		c.Next()
	}
}

// authenticate resolves the bearer credential to a role. Signed tokens are
// tried first; the raw shared passwords still work for older clients.
func (h *StaffHandler) authenticate(credential string) string {
	if credential == "" {
		return ""
	}
	if claims, ok := h.signer.Verify(credential); ok {
		switch claims.Subject {
		case token.SubjectAdmin, token.SubjectStaff:
			return claims.Subject
		}
		return ""
	}
	return h.roleForPassword(credential)
}

func (h *StaffHandler) roleForPassword(password string) string {
	switch {
	case token.PasswordMatches(password, h.adminPassword):
		return token.SubjectAdmin
	case token.PasswordMatches(password, h.staffPassword):
		return token.SubjectStaff
	}
	return ""
}

func bearer(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
