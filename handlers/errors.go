package handlers

import (
	"errors"
	"io"
	"net/http"

	"tow-dispatch-api/services"

	"github.com/gin-gonic/gin"
)

// respondError writes {"error": msg} with the status matching the error kind.
// Anything that is not a services.Error becomes a generic 500; the real
// error is attached to the context for the access log.
func respondError(c *gin.Context, err error) {
	var se *services.Error
	if !errors.As(err, &se) {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(statusFor(se.Kind), gin.H{"error": se.Message})
}

func statusFor(kind error) int {
	switch {
	case errors.Is(kind, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(kind, services.ErrConflict):
		return http.StatusConflict
	case errors.Is(kind, services.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(kind, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(kind, services.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// bindBody decodes the JSON body into v. A missing body leaves v at its
// zero value so the service reports which field is absent. Malformed JSON
// gets a 400 and bindBody returns false.
func bindBody(c *gin.Context, v any) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}
	return true
}
