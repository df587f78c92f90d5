package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/soundpost/soundpost/server/core/ccc/logging"
	"github.com/soundpost/soundpost/server/core/uploads"
	"github.com/soundpost/soundpost/server/upload-server/middleware"
)

// HistoryHandler serves the upload history
type HistoryHandler struct {
	logger  logging.Logger
	history uploads.UploadHistoryRepository
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(logger logging.Logger, history uploads.UploadHistoryRepository) *HistoryHandler {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &HistoryHandler{
		logger:  logger,
		history: history,
	}
}

// ListUploads handles GET /uploads?account=<name>&limit=<n>
func (h *HistoryHandler) ListUploads(c *gin.Context) {
	query := uploads.HistoryQuery{
		Account: uploads.SanitizeText(c.Query("account")),
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			abortWithError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		query.Limit = limit
	}

	records, err := h.history.Query(c.Request.Context(), query)
	if err != nil {
		middleware.Logger(c, h.logger).Error("Failed to query upload history", "error", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to query upload history")
		return
	}

	c.JSON(http.StatusOK, gin.H{"uploads": records})
}
