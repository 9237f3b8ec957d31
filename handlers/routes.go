package handlers

import "github.com/gin-gonic/gin"

type Handlers struct {
	Status       *StatusHandler
	Registration *RegistrationHandler
	Checkin      *CheckinHandler
	Staff        *StaffHandler
	Admin        *AdminHandler
}

func RegisterRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", h.Status.Health)

	api := router.Group("/api")
	{
		api.GET("/status", h.Status.PublicStatus)
		api.POST("/register", h.Registration.Register)
		api.POST("/find-pass", h.Registration.FindPass)

		api.POST("/staff/login", h.Staff.Login)
		api.POST("/staff/refresh", h.Staff.Refresh)

		staff := api.Group("", h.Staff.RequireStaff())
		staff.GET("/verify/:registrationId", h.Checkin.Verify)
		staff.POST("/checkin", h.Checkin.CheckIn)

		admin := api.Group("/admin", h.Staff.RequireAdmin())
		admin.GET("/stats", h.Admin.Stats)
		admin.GET("/status", h.Admin.GetStatus)
		admin.PUT("/status", h.Admin.UpdateStatus)
		admin.GET("/attendees", h.Admin.SearchAttendees)
		admin.POST("/attendees/:registrationId/revoke", h.Admin.Revoke)
		admin.POST("/export", h.Admin.Export)
	}
}
