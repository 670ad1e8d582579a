package handlers

import (
	"errors"
	"lawconnect/services"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
)

// errorStatus maps domain errors to HTTP status codes
func errorStatus(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case services.IsValidationError(err),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrNoAcceptedCase),
		errors.Is(err, services.ErrTOTPRequired),
		errors.Is(err, services.ErrInvalidTOTP):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrAccountLocked),
		errors.Is(err, services.ErrAccountInactive):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrCaseAlreadyAccepted),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrAppointmentConflict),
		errors.Is(err, services.ErrInvoiceNotPayable),
		errors.Is(err, services.ErrRequestResolved),
		errors.Is(err, services.ErrAppointmentClosed):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// errorMessage is the text shown to users. Internal errors stay generic.
func errorMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok {
			return msg
		}
	}
	if errorStatus(err) == http.StatusInternalServerError {
		return "Something went wrong. Please try again."
	}
	return err.Error()
}

// apiError converts err into an echo HTTP error for JSON handlers
func apiError(c echo.Context, err error) error {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[WARNING] %s %s: %v", c.Request().Method, c.Path(), err)
	}
	return echo.NewHTTPError(status, errorMessage(err))
}
