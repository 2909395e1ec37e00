package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// ErrorResponse is what services hand back to routes. A nil ErrorResponse
// means success.
type ErrorResponse interface {
	error
	Code() int
}

type SimpleError struct {
	Status  int               `json:"-"`
	Message string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *SimpleError) Error() string {
	return e.Message
}

func (e *SimpleError) Code() int {
	return e.Status
}

func NewSimple(code int, message string) *SimpleError {
	return &SimpleError{Status: code, Message: message}
}

var (
	InternalServerError = NewSimple(http.StatusInternalServerError, "Internal server error.")
	NotFoundError       = NewSimple(http.StatusNotFound, "Resource not found.")
	ValidationError     = NewSimple(http.StatusBadRequest, "Validation fails.")
	MalformedBodyError  = NewSimple(http.StatusBadRequest, "Validation fails.")

	InvalidAuthTokenError  = NewSimple(http.StatusUnauthorized, "Invalid authentication token.")
	UserNotFoundError      = NewSimple(http.StatusUnauthorized, "User not found.")
	UserAlreadyExistsError = NewSimple(http.StatusConflict, "User already exists.")

	// Booking
	NotAProviderError    = NewSimple(http.StatusUnauthorized, "You can only create appointments with providers.")
	SelfBookingError     = NewSimple(http.StatusUnauthorized, "You cannot create appointments with yourself.")
	PastDateError        = NewSimple(http.StatusBadRequest, "Past dates are not permitted.")
	SlotUnavailableError = NewSimple(http.StatusBadRequest, "Appointment date is not available.")

	// Cancellation
	AppointmentNotFoundError = NewSimple(http.StatusNotFound, "Appointment not found.")
	ForbiddenError           = NewSimple(http.StatusUnauthorized, "You don't have permission to cancel this appointment.")
	LateCancellationError    = NewSimple(http.StatusUnauthorized, "You can only cancel appointments 2 hours in advance.")
	AlreadyCanceledError     = NewSimple(http.StatusBadRequest, "Appointment already canceled.")

	NotificationNotFoundError = NewSimple(http.StatusNotFound, "Notification not found.")
)

func NewMissingParamError(name string) *SimpleError {
	return NewSimple(http.StatusBadRequest, fmt.Sprintf("Missing required parameter '%s'.", name))
}

func NewInvalidParamTypeError(name, expected string) *SimpleError {
	return NewSimple(http.StatusBadRequest, fmt.Sprintf("Parameter '%s' must be of type %s.", name, expected))
}

// FromValidationError turns validator errors into a ValidationError carrying
// one message per offending field.
func FromValidationError(err error) *SimpleError {
	resp := &SimpleError{Status: ValidationError.Status, Message: ValidationError.Message}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return resp
	}

	resp.Fields = make(map[string]string, len(verrs))
	for _, fe := range verrs {
		resp.Fields[fieldName(fe)] = describe(fe)
	}
	return resp
}

func fieldName(fe validator.FieldError) string {
	// The json tag name is registered as the field name in validators.New.
	if name := fe.Field(); name != "" {
		return name
	}
	return strings.ToLower(fe.StructField())
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "iso8601":
		return "must be an ISO 8601 date"
	case "gt", "gte", "min":
		return "must be at least " + fe.Param()
	case "lt", "lte", "max":
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

// HTTPErrorHandler renders errors that escape the handlers, echo's own
// included, with the same {"error": message} body services use.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var resp ErrorResponse
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &resp):
	case errors.As(err, &httpErr):
		resp = NewSimple(httpErr.Code, fmt.Sprint(httpErr.Message))
	default:
		log.Errorf("failed to handle request %s %s: %v", c.Request().Method, c.Path(), err)
		resp = InternalServerError
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(resp.Code())
	} else {
		err = c.JSON(resp.Code(), resp)
	}
	if err != nil {
		log.Errorf("failed to write error response: %v", err)
	}
}
