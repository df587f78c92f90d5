package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundpost/soundpost/server/core/audio"
	"github.com/soundpost/soundpost/server/core/ccc/logging"
	"github.com/soundpost/soundpost/server/upload-server/middleware"
)

// StatusHandler serves liveness and catalog information
type StatusHandler struct {
	logger logging.Logger
	sounds audio.SoundLibrary
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(logger logging.Logger, sounds audio.SoundLibrary) *StatusHandler {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &StatusHandler{
		logger: logger,
		sounds: sounds,
	}
}

// Ping handles GET /ping and GET /
func (h *StatusHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "server is running",
	})
}

// ListSounds handles GET /sounds
func (h *StatusHandler) ListSounds(c *gin.Context) {
	names, err := h.sounds.List()
	if err != nil {
		middleware.Logger(c, h.logger).Error("Failed to list sounds", "error", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to list sounds")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sounds":   names,
		"profiles": audio.ProfileNames(),
	})
}
