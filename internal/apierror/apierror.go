// Package apierror provides the error taxonomy of the ledger and the
// standardized error envelope for the API. All errors returned to clients go
// through this package so that internal details (DB errors, stack traces)
// never leak.
package apierror

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Respond maps err onto its HTTP status and writes the envelope.
func Respond(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, verr)
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, New("Resource not found"))
	case errors.Is(err, ErrInsufficientStock):
		c.JSON(http.StatusConflict, New(err.Error()))
	case errors.Is(err, ErrConflict):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusConflict, New("Concurrent update, retry the request"))
	case errors.Is(err, ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, New("Invalid credentials"))
	case errors.Is(err, ErrDuplicate):
		c.JSON(http.StatusConflict, New(err.Error()))
	default:
		// Recorded for middleware.ErrorHandler, which logs it with the request id.
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, New("Internal server error"))
	}
}
