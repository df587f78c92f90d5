package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundpost/soundpost/server/core/ccc/logging"
	"github.com/soundpost/soundpost/server/core/publishing"
	"github.com/soundpost/soundpost/server/upload-server/middleware"
)

// Preflighter checks whether an account can publish
type Preflighter interface {
	Preflight(account string) error
}

// AccountHandler handles per-account operations
type AccountHandler struct {
	logger    logging.Logger
	publisher Preflighter
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger logging.Logger, publisher Preflighter) *AccountHandler {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &AccountHandler{
		logger:    logger,
		publisher: publisher,
	}
}

// Preflight handles GET /accounts/:name/preflight
func (h *AccountHandler) Preflight(c *gin.Context) {
	account := c.Param("name")

	if err := h.publisher.Preflight(account); err != nil {
		logger := middleware.Logger(c, h.logger)
		if publishing.IsSetupError(err) {
			logger.Warn("Account is not ready to publish", "account", account, "error", err)
		} else {
			logger.Error("Preflight failed", "account", account, "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"account": account,
			"ready":   false,
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account": account,
		"ready":   true,
	})
}
