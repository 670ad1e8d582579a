package services

import "errors"

// Domain errors returned by the services. Handlers map them to HTTP codes.
var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("you do not have permission to perform this action")
	ErrInvalidCredentials  = errors.New("Invalid email or password")
	ErrAccountLocked       = errors.New("Account is locked. Try again later.")
	ErrAccountInactive     = errors.New("Your account has been deactivated")
	ErrTOTPRequired        = errors.New("two-factor code required")
	ErrInvalidTOTP         = errors.New("invalid two-factor code")
	ErrEmailTaken          = errors.New("Email is already taken.")
	ErrCaseAlreadyAccepted = errors.New("This case has already been accepted.")
	ErrNoAcceptedCase      = errors.New("You can only message users you share an accepted case with.")
	ErrNotParticipant      = errors.New("you are not a participant of this thread")
	ErrEmptyMessage        = errors.New("message content cannot be empty")
	ErrAppointmentConflict = errors.New("the lawyer already has an appointment in this time range")
	ErrInvoiceNotPayable   = errors.New("invoice is already paid")
	ErrRequestResolved     = errors.New("this request has already been answered")
	ErrAppointmentClosed   = errors.New("this appointment is already cancelled or completed")
)

// ValidationError carries a user facing validation message
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// IsValidationError reports whether err is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
