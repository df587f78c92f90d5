package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundpost/soundpost/server/core/ccc/logging"
	"github.com/soundpost/soundpost/server/core/uploads"
	"github.com/soundpost/soundpost/server/upload-server/middleware"
	"github.com/soundpost/soundpost/server/upload-server/utils"
)

// Uploader runs a single upload through the pipeline
type Uploader interface {
	Upload(ctx context.Context, form uploads.RawUploadForm) (*uploads.Outcome, error)
}

// UploadSettings configures request level limits of the upload endpoint
type UploadSettings struct {
	MaxUploadBytes     int64
	VerifyVideoContent bool
}

// UploadHandler handles video uploads
type UploadHandler struct {
	logger   logging.Logger
	uploader Uploader
	settings UploadSettings
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(logger logging.Logger, uploader Uploader, settings UploadSettings) *UploadHandler {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &UploadHandler{
		logger:   logger,
		uploader: uploader,
		settings: settings,
	}
}

// UploadForm represents the expected form data for an upload
type UploadForm struct {
	Description   string `form:"description"`
	AccountName   string `form:"accountname"`
	Hashtags      string `form:"hashtags"`
	SoundName     string `form:"sound_name"`
	VolumeProfile string `form:"sound_aud_vol"`
}

// Upload handles POST /upload
func (h *UploadHandler) Upload(c *gin.Context) {
	logger := middleware.Logger(c, h.logger)
	logger.Info("Received upload request")

	if h.settings.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.settings.MaxUploadBytes)
	}

	var req UploadForm
	if err := c.ShouldBind(&req); err != nil {
		if isBodyTooLarge(err) {
			h.rejectTooLarge(c, logger)
			return
		}
		logger.Warn("Invalid form data", "error", err)
		abortWithError(c, http.StatusBadRequest, "Invalid form data: "+err.Error())
		return
	}

	form := uploads.RawUploadForm{
		Size:          -1,
		Description:   req.Description,
		AccountName:   req.AccountName,
		Hashtags:      req.Hashtags,
		SoundName:     req.SoundName,
		VolumeProfile: req.VolumeProfile,
	}

	fileHeader, err := c.FormFile("video")
	switch {
	case err == nil:
		file, openErr := fileHeader.Open()
		if openErr != nil {
			logger.Error("Failed to open uploaded file", "error", openErr)
			abortWithError(c, http.StatusInternalServerError, "Failed to process uploaded file")
			return
		}
		defer file.Close()

		if h.settings.VerifyVideoContent && uploads.IsAllowedVideoName(fileHeader.Filename) {
			if !h.verifyContent(c, logger, file, fileHeader) {
				return
			}
		}

		form.Video = file
		form.FileName = fileHeader.Filename
		form.Size = fileHeader.Size
	case errors.Is(err, http.ErrMissingFile):
		// the orchestrator reports the missing video
	default:
		if isBodyTooLarge(err) {
			h.rejectTooLarge(c, logger)
			return
		}
		logger.Warn("Failed to read uploaded file", "error", err)
		abortWithError(c, http.StatusBadRequest, "Invalid form data: "+err.Error())
		return
	}

	outcome, err := h.uploader.Upload(c.Request.Context(), form)
	if err != nil {
		status := statusForUploadError(err)
		logger.Warn("Upload failed", "status", status, "error", err)
		abortWithError(c, status, err.Error())
		return
	}

	logger.Info("Upload succeeded", "uploadId", outcome.ID, "duration", outcome.Duration)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Video uploaded successfully",
		"result":  outcome.Result,
	})
}

func (h *UploadHandler) rejectTooLarge(c *gin.Context, logger logging.Logger) {
	logger.Warn("Upload exceeds size limit", "limit", h.settings.MaxUploadBytes)
	abortWithError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("Upload exceeds the limit of %d bytes", h.settings.MaxUploadBytes))
}

func (h *UploadHandler) verifyContent(c *gin.Context, logger logging.Logger, file multipart.File, header *multipart.FileHeader) bool {
	isVideo, format, err := utils.SniffVideo(file)
	if err != nil {
		logger.Error("Failed to read uploaded file", "error", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to read uploaded file")
		return false
	}
	if !isVideo {
		logger.Warn("Uploaded file is not a video", "filename", header.Filename)
		abortWithError(c, http.StatusBadRequest, "Uploaded file is not a valid video format")
		return false
	}

	logger.Info("Video file validated", "format", format, "size", header.Size, "filename", header.Filename)
	return true
}
