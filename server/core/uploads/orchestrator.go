package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/soundpost/soundpost/server/core/audio"
	"github.com/soundpost/soundpost/server/core/ccc/failures"
	"github.com/soundpost/soundpost/server/core/ccc/filemanagement"
	"github.com/soundpost/soundpost/server/core/ccc/logging"
	"github.com/soundpost/soundpost/server/core/media"
	"github.com/soundpost/soundpost/server/core/notifications"
	"github.com/soundpost/soundpost/server/core/publishing"
)

const msgNoAudioTrack = "video has no audio track to mix"

// Dependencies are the collaborators of the Orchestrator. Logger, Inspector,
// History, Failures and Notifier are optional.
type Dependencies struct {
	Logger    logging.Logger
	TempDir   string
	Sounds    audio.SoundLibrary
	Mixer     audio.Mixer
	Inspector media.Inspector
	Publisher publishing.Publisher
	History   UploadHistoryRepository
	Failures  failures.FailureTracker
	Notifier  notifications.PublishNotifier
}

// Orchestrator runs one upload through validation, optional audio enrichment and publishing
type Orchestrator struct {
	logger    logging.Logger
	tempDir   string
	sounds    audio.SoundLibrary
	mixer     audio.Mixer
	inspector media.Inspector
	publisher publishing.Publisher
	history   UploadHistoryRepository
	failures  failures.FailureTracker
	notifier  notifications.PublishNotifier
	now       func() time.Time
}

// NewOrchestrator creates a new upload orchestrator
func NewOrchestrator(deps Dependencies) (*Orchestrator, error) {
	if deps.Sounds == nil || deps.Mixer == nil || deps.Publisher == nil {
		return nil, errors.New("sound library, mixer and publisher are required")
	}
	if deps.TempDir == "" {
		deps.TempDir = os.TempDir()
	}
	if deps.Logger == nil {
		deps.Logger = logging.NopLogger
	}
	if deps.History == nil {
		deps.History = NopUploadHistoryRepository
	}
	if deps.Failures == nil {
		deps.Failures = failures.NopFailureTracker
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NopPublishNotifier
	}

	return &Orchestrator{
		logger:    deps.Logger,
		tempDir:   deps.TempDir,
		sounds:    deps.Sounds,
		mixer:     deps.Mixer,
		inspector: deps.Inspector,
		publisher: deps.Publisher,
		history:   deps.History,
		failures:  deps.Failures,
		notifier:  deps.Notifier,
		now:       time.Now,
	}, nil
}

// upload is the state of a single request while it moves through the pipeline
type upload struct {
	outcome *Outcome
	logger  logging.Logger
	tracker *filemanagement.RequestFileTracker
	request *UploadRequest
	caption string
}

func (u *upload) enter(state State) {
	u.outcome.States = append(u.outcome.States, state)
	u.logger.Info("Upload state changed", "state", string(state))
}

// Upload runs form through the pipeline. Every temporary file created on the way
// is removed before Upload returns, whatever the result.
// On failure the returned error is one of ValidationError, NotFoundError,
// ConfigurationError, EnrichmentError, PublishError or an unexpected error,
// and the Outcome is still returned for logging. A logger stored in ctx with
// logging.NewContext replaces the orchestrator's own logger for this upload.
func (o *Orchestrator) Upload(ctx context.Context, form RawUploadForm) (*Outcome, error) {
	id := uuid.NewString()
	logger := logging.With(logging.FromContext(ctx, o.logger), "uploadId", id)

	tracker := filemanagement.NewRequestFileTracker(logger)
	defer tracker.ReleaseAll()

	u := &upload{
		outcome: &Outcome{ID: id},
		logger:  logger,
		tracker: tracker,
	}
	start := o.now()

	err := o.run(ctx, u, form)
	u.outcome.Duration = o.now().Sub(start)

	if err != nil {
		u.enter(StateFailed)
		u.outcome.Result = &UploadResult{Status: StatusFailure, Error: err.Error()}
		logger.Error("Upload failed", "error", err, "duration", u.outcome.Duration)
	} else {
		u.enter(StateDone)
		logger.Info("Upload finished", "duration", u.outcome.Duration)
	}

	o.recordHistory(ctx, u, err)
	o.trackFailures(u, err)

	return u.outcome, err
}

func (o *Orchestrator) run(ctx context.Context, u *upload, form RawUploadForm) error {
	u.enter(StateReceived)

	request, err := Sanitize(form)
	if err != nil {
		return err
	}
	u.request = request
	u.caption = BuildCaption(request.Description, request.Hashtags)
	u.logger = logging.With(u.logger, "account", request.AccountName)
	u.enter(StateValidated)

	var soundPath string
	if request.HasSound() {
		soundPath, err = o.resolveSound(request.SoundName)
		if err != nil {
			return err
		}
	}

	videoPath, err := o.saveUpload(u)
	if err != nil {
		return err
	}

	if request.HasSound() {
		videoPath, err = o.enrich(ctx, u, videoPath, soundPath)
		if err != nil {
			return err
		}
		u.enter(StateEnriched)
	}

	result, err := o.publisher.Publish(ctx, u.tracker, request.AccountName, videoPath, u.caption)
	if err != nil {
		if publishing.IsPublishProcessError(err) {
			u.enter(StateStaged)
		}
		return translatePublishError(err)
	}
	u.enter(StateStaged)
	u.enter(StatePublished)

	u.outcome.Result = &UploadResult{Status: StatusSuccess, Output: result.Output}
	return nil
}

func (o *Orchestrator) resolveSound(name string) (string, error) {
	path, err := o.sounds.Resolve(name)
	if err != nil {
		if audio.IsSoundNotFoundError(err) {
			return "", NewNotFoundError(err.Error())
		}
		return "", NewValidationError(msgInvalidSound)
	}
	return path, nil
}

// saveUpload writes the received video to the temp directory under a fresh name
func (o *Orchestrator) saveUpload(u *upload) (string, error) {
	if err := os.MkdirAll(o.tempDir, 0755); err != nil {
		return "", NewConfigurationError("failed to create temp directory", err)
	}

	path := filepath.Join(o.tempDir, fmt.Sprintf("upload_%s%s", uuid.NewString(), u.request.Extension))
	u.tracker.Register(path)

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}

	written, err := io.Copy(out, u.request.Video)
	closeErr := out.Close()
	if err != nil {
		return "", fmt.Errorf("failed to save upload: %w", err)
	}
	if closeErr != nil {
		return "", fmt.Errorf("failed to save upload: %w", closeErr)
	}
	if written == 0 {
		return "", NewValidationError(msgEmptyVideo)
	}

	u.logger.Info("Upload saved", "path", path, "size", written, "originalName", u.request.FileName)
	return path, nil
}

func (o *Orchestrator) enrich(ctx context.Context, u *upload, videoPath, soundPath string) (string, error) {
	if o.inspector != nil {
		info, err := o.inspector.Inspect(videoPath)
		if err != nil {
			u.logger.Warn("Could not inspect upload, mixing anyway", "error", err)
		} else if !info.HasAudio {
			return "", NewEnrichmentError(msgNoAudioTrack, nil)
		}
	}

	mixed, err := o.mixer.Mix(ctx, videoPath, soundPath, u.request.Profile)
	if err != nil {
		return "", NewEnrichmentError(err.Error(), err)
	}
	u.tracker.Register(mixed)

	return mixed, nil
}

func translatePublishError(err error) error {
	switch {
	case publishing.IsSetupError(err):
		return NewConfigurationError(err.Error(), err)
	default:
		return NewPublishError(err.Error(), err)
	}
}

func (o *Orchestrator) recordHistory(ctx context.Context, u *upload, uploadErr error) {
	if u.request == nil {
		return
	}

	record := &UploadRecord{
		ID:         u.outcome.ID,
		Account:    u.request.AccountName,
		FileName:   u.request.FileName,
		SoundName:  u.request.SoundName,
		Caption:    u.caption,
		Status:     u.outcome.Result.Status,
		FinalState: u.outcome.Last(),
		Duration:   u.outcome.Duration,
		CreatedAt:  o.now(),
	}
	if u.request.HasSound() {
		record.Profile = u.request.Profile.Name
	}
	if uploadErr != nil {
		record.Error = uploadErr.Error()
	}

	// The request may already be cancelled; the record is still written
	if err := o.history.Add(context.WithoutCancel(ctx), record); err != nil {
		u.logger.Error("Failed to record upload history", "error", err)
	}
}

func (o *Orchestrator) trackFailures(u *upload, uploadErr error) {
	if u.request == nil {
		return
	}
	account := u.request.AccountName

	if uploadErr == nil {
		o.failures.Reset(account)
		return
	}
	if !IsPublishError(uploadErr) {
		return
	}

	count := o.failures.RecordFailure(account, uploadErr.Error(), o.now())
	if !o.failures.ShouldAlert(count) {
		return
	}
	if err := o.notifier.NotifyRepeatedPublishFailure(account, count, uploadErr.Error()); err != nil {
		u.logger.Error("Failed to send publish failure alert", "error", err)
	}
}
