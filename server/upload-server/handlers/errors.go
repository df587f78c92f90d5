package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/soundpost/soundpost/server/core/uploads"
)

// statusForUploadError maps the upload error taxonomy onto HTTP status codes
func statusForUploadError(err error) int {
	switch {
	case uploads.IsValidationError(err):
		return http.StatusBadRequest
	case uploads.IsNotFoundError(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// isBodyTooLarge detects the MaxBytesReader error, which some multipart paths
// only pass on as text
func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr) || strings.Contains(err.Error(), "request body too large")
}
