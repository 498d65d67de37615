package routes

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"promptvault/services"
)

// respondError maps service sentinels onto HTTP status codes. Every failure
// crosses this boundary as a structured JSON body, never a panic.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrPromptNotFound),
		errors.Is(err, services.ErrVersionNotFound),
		errors.Is(err, services.ErrNoteNotFound),
		errors.Is(err, services.ErrTagNotFound),
		errors.Is(err, services.ErrGroupNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrVersionLimit),
		errors.Is(err, services.ErrLastVersion):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
