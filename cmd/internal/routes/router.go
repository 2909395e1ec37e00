package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Register mounts every route on e. Everything under /api goes through auth.
func Register(e *echo.Echo, auth echo.MiddlewareFunc, appts *DefaultAppointmentRoute, users *DefaultUserRoute, notifications *DefaultNotificationRoute) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	api := e.Group("/api", auth)

	// Appointments
	api.GET("/appointments", appts.GetAppointments)
	api.POST("/appointments", appts.CreateAppointment)
	api.DELETE("/appointments/:id", appts.CancelAppointment)

	// Providers and their free hours for a day
	api.GET("/providers", users.GetProviders)
	api.GET("/providers/:id/available", appts.GetAvailability)

	// Users
	api.GET("/users/:id", users.GetUser)

	// Notifications
	api.GET("/notifications", notifications.GetNotifications)
	api.PUT("/notifications/:id", notifications.MarkRead)
}
