package handlers

import (
	"lawconnect/middleware"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HomeHandler sends visitors to the login page and users to their dashboard
func HomeHandler(c echo.Context) error {
	if user := middleware.GetCurrentUser(c); user != nil {
		return c.Redirect(http.StatusSeeOther, user.DashboardPath())
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

// HealthHandler reports liveness
func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
