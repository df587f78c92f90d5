package main

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soundpost/soundpost/server/core/audio"
	"github.com/soundpost/soundpost/server/core/ccc/db"
	"github.com/soundpost/soundpost/server/core/ccc/failures"
	"github.com/soundpost/soundpost/server/core/ccc/logging"
	"github.com/soundpost/soundpost/server/core/ccc/process"
	"github.com/soundpost/soundpost/server/core/config"
	"github.com/soundpost/soundpost/server/core/media"
	"github.com/soundpost/soundpost/server/core/notifications"
	"github.com/soundpost/soundpost/server/core/publishing"
	"github.com/soundpost/soundpost/server/core/uploads"
	"github.com/soundpost/soundpost/server/upload-server/handlers"
	"github.com/soundpost/soundpost/server/upload-server/middleware"
)

// application holds the wired server
type application struct {
	router   *gin.Engine
	database *sql.DB
}

func (a *application) Close() error {
	return a.database.Close()
}

func newPublisher(cfg *config.Config, logger logging.Logger) *publishing.CLIPublisher {
	p := cfg.Publisher
	return publishing.NewCLIPublisher(logger, process.NewExecRunner(logger), publishing.PublisherConfig{
		WorkDir:               p.WorkDir,
		Interpreter:           p.Interpreter,
		Entrypoint:            p.Entrypoint,
		VideosDir:             p.VideosDir,
		CookiesDir:            p.CookiesDir,
		CredentialFilePattern: p.CredentialFilePattern,
		LockDir:               p.LockDir,
		Timeout:               cfg.PublishTimeout(),
		SerializeAccounts:     p.SerializeAccounts,
	})
}

func newFailureAlerts(cfg *config.Config, logger logging.Logger) (failures.FailureTracker, notifications.PublishNotifier) {
	n := cfg.Notifications
	if n == nil || n.FailureThreshold <= 0 {
		return failures.NopFailureTracker, notifications.NopPublishNotifier
	}

	tracker := failures.NewMemoryFailureTracker(failures.AlertSettings{
		Threshold:  n.FailureThreshold,
		TimeWindow: time.Duration(n.WindowMinutes) * time.Minute,
	})
	sender := notifications.NewSmtpSender(n.SmtpHost, n.SmtpPort, n.SmtpUser, n.SmtpPass, n.SmtpSender)
	notifier := notifications.NewEmailPublishNotifier(notifications.PublishNotificationSettings{
		Recipient:   n.Recipient,
		MinInterval: time.Duration(n.MinIntervalMinutes) * time.Minute,
	}, sender, logger)

	return tracker, notifier
}

func newApplication(cfg *config.Config, logger logging.Logger) (*application, error) {
	database, err := db.OpenSQLite(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	history, err := uploads.NewSQLiteUploadHistoryRepository(database)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create upload history repository: %w", err)
	}

	runner := process.NewExecRunner(logger)
	sounds := audio.NewDirSoundLibrary(cfg.SoundsDir)
	mixer := audio.NewFFmpegMixer(logger, runner, audio.MixerSettings{
		FFmpegPath: cfg.FFmpegPath,
		OutputDir:  cfg.TempDir,
		Timeout:    cfg.MixTimeout(),
	})
	publisher := newPublisher(cfg, logger)
	failureTracker, notifier := newFailureAlerts(cfg, logger)

	orchestrator, err := uploads.NewOrchestrator(uploads.Dependencies{
		Logger:    logger,
		TempDir:   cfg.TempDir,
		Sounds:    sounds,
		Mixer:     mixer,
		Inspector: media.NewFFprobeInspector(logger),
		Publisher: publisher,
		History:   history,
		Failures:  failureTracker,
		Notifier:  notifier,
	})
	if err != nil {
		database.Close()
		return nil, err
	}

	router := initializeGin(cfg)
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.NewRequestMiddleware(logger).Handle())

	setupRoutes(router,
		handlers.NewStatusHandler(logger, sounds),
		handlers.NewUploadHandler(logger, orchestrator, handlers.UploadSettings{
			MaxUploadBytes:     cfg.MaxUploadBytes(),
			VerifyVideoContent: cfg.VerifyVideoContent,
		}),
		handlers.NewHistoryHandler(logger, history),
		handlers.NewAccountHandler(logger, publisher),
	)

	return &application{
		router:   router,
		database: database,
	}, nil
}

// setupRoutes configures the HTTP routes
func setupRoutes(router *gin.Engine, status *handlers.StatusHandler, upload *handlers.UploadHandler,
	history *handlers.HistoryHandler, accounts *handlers.AccountHandler) {
	router.GET("/", status.Ping)
	router.GET("/ping", status.Ping)
	router.GET("/sounds", status.ListSounds)

	router.POST("/upload", upload.Upload)
	router.GET("/uploads", history.ListUploads)
	router.GET("/accounts/:name/preflight", accounts.Preflight)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}
