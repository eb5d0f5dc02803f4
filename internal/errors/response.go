package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error body
type ErrorResponse struct {
	Error   string `json:"error"`          // error code, see codes.go
	Kind    Kind   `json:"kind,omitempty"` // taxonomy kind
	Message string `json:"message"`        // human-readable message
}

// RespondWithError writes an error response with an explicit status and code
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Kind:    kindForStatus(statusCode),
		Message: message,
	})
}

// Respond renders any error returned by a service. Unclassified errors become a generic 500
// so internal details never reach the caller.
func Respond(c *gin.Context, err error) {
	appErr, ok := As(err)
	if !ok {
		InternalError(c, "")
		return
	}
	c.JSON(HTTPStatus(appErr.Kind), ErrorResponse{
		Error:   appErr.Code,
		Kind:    appErr.Kind,
		Message: appErr.Message,
	})
}

// AbortWith renders err and stops the handler chain
func AbortWith(c *gin.Context, err error) {
	Respond(c, err)
	c.Abort()
}

// Shorthand responders

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "You do not have permission to perform this action"
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Something went wrong. Please try again later"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// ValidationError lists per-field validation failures
type ValidationError struct {
	Error   string            `json:"error"`
	Kind    Kind              `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func RespondWithValidationError(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, ValidationError{
		Error:   ValidationInvalidInput,
		Kind:    KindInvalidArgument,
		Message: "Request validation failed",
		Fields:  fields,
	})
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadRequest:
		return KindInvalidArgument
	case http.StatusConflict:
		return KindConflict
	case http.StatusServiceUnavailable:
		return KindUnavailable
	default:
		return KindInternal
	}
}
