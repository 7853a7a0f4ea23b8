package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/service"
	"github.com/gin-gonic/gin"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	status, message := classify(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		message = "internal server error"
	}
	c.JSON(status, ErrorResponse{Error: message})
}

// classify maps service errors to a status code and the text shown to the
// user. Unknown errors are 500.
func classify(err error) (int, string) {
	var validErr *service.ValidationError
	switch {
	case errors.As(err, &validErr):
		return http.StatusBadRequest, validErr.Message()

	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"

	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "Forbidden"

	case errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusConflict, "Username taken"

	case errors.Is(err, doctor.ErrDoctorIDConflict):
		return http.StatusConflict, "Doctor profile id already in use"

	case errors.Is(err, doctor.ErrDoctorNotFound):
		return http.StatusNotFound, "Doctor not found"

	case errors.Is(err, appointment.ErrAppointmentNotFound):
		return http.StatusNotFound, "Appointment not found"

	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found"

	case errors.Is(err, doctor.ErrDoctorUnavailable),
		errors.Is(err, doctor.ErrInvalidAvailability),
		errors.Is(err, appointment.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, err.Error()

	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// fail writes a plain-text error for routes without a form to re-render.
func fail(c *gin.Context, err error) {
	status, message := classify(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.String(status, message)
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request: " + err.Error()})
		return false
	}

	return true
}

// parseID reads a numeric path parameter. Anything else is answered with
// 404, matching routes that only exist for integer ids.
func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		c.String(http.StatusNotFound, "Not found")
		return 0, false
	}
	return uint(id), true
}

// formID reads a numeric form field; missing or malformed values are 0.
func formID(c *gin.Context, field string) uint {
	id, err := strconv.ParseUint(c.PostForm(field), 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}
