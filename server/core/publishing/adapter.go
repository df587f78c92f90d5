package publishing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/soundpost/soundpost/server/core/ccc/filemanagement"
	"github.com/soundpost/soundpost/server/core/ccc/logging"
	"github.com/soundpost/soundpost/server/core/ccc/process"
)

const lockRetryDelay = 250 * time.Millisecond

// Result is the outcome of a successful publish
type Result struct {
	Output   string
	Duration time.Duration
}

// Publisher hands a finished video to the external publishing tool
type Publisher interface {
	// Preflight verifies that the publisher can run for account
	Preflight(account string) error
	// Publish stages videoPath into the publisher's input directory, registers the
	// staged copy with tracker and runs the publisher with account and caption.
	Publish(ctx context.Context, tracker filemanagement.FileTracker, account, videoPath, caption string) (*Result, error)
}

// CLIPublisher implements Publisher for a command line uploader such as
// TiktokAutoUploader's cli.py
type CLIPublisher struct {
	logger logging.Logger
	runner process.Runner
	config PublisherConfig
}

// NewCLIPublisher creates a new CLI publisher
func NewCLIPublisher(logger logging.Logger, runner process.Runner, config PublisherConfig) *CLIPublisher {
	if logger == nil {
		logger = logging.NopLogger
	}
	if runner == nil {
		runner = process.NewExecRunner(logger)
	}

	return &CLIPublisher{
		logger: logger,
		runner: runner,
		config: config,
	}
}

// Config returns the publisher configuration
func (p *CLIPublisher) Config() PublisherConfig {
	return p.config
}

// Preflight implements Publisher
func (p *CLIPublisher) Preflight(account string) error {
	if strings.TrimSpace(account) == "" {
		return NewSetupError("", "account name is empty")
	}
	if !ValidAccountName(account) {
		return NewSetupError(account, "account name must not contain path separators or '..'")
	}

	entrypoint := p.config.EntrypointPath()
	if info, err := os.Stat(entrypoint); err != nil || info.IsDir() {
		p.logger.Error("Publisher entrypoint not found", "path", entrypoint)
		return NewSetupError(account, fmt.Sprintf("publisher entrypoint not found at %s", entrypoint))
	}

	credential := p.config.CredentialPath(account)
	if info, err := os.Stat(credential); err != nil || info.IsDir() {
		p.logger.Error("Session credential not found", "account", account, "path", credential,
			"available", p.availableCredentials())
		return NewSetupError(account, fmt.Sprintf("session credential not found at %s", credential))
	}

	return nil
}

func (p *CLIPublisher) availableCredentials() []string {
	entries, err := os.ReadDir(p.config.CookiesPath())
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names
}

// Publish implements Publisher
func (p *CLIPublisher) Publish(ctx context.Context, tracker filemanagement.FileTracker, account, videoPath, caption string) (*Result, error) {
	if err := p.Preflight(account); err != nil {
		return nil, err
	}

	if p.config.SerializeAccounts {
		unlock, err := p.lockAccount(ctx, account)
		if err != nil {
			return nil, err
		}
		defer unlock()
	}

	fileName, err := p.stage(tracker, videoPath)
	if err != nil {
		return nil, err
	}

	return p.invoke(ctx, account, fileName, caption)
}

// lockAccount takes the per-account file lock. The lock is shared with any other
// process that uses the same lock directory.
func (p *CLIPublisher) lockAccount(ctx context.Context, account string) (func(), error) {
	if err := os.MkdirAll(p.config.LockDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	lock := flock.New(p.config.LockPath(account))
	start := time.Now()
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %s: %w", account, err)
	}
	if !locked {
		return nil, fmt.Errorf("failed to lock account %s", account)
	}

	if waited := time.Since(start); waited > lockRetryDelay {
		p.logger.Info("Waited for concurrent upload of the same account", "account", account, "waited", waited)
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			p.logger.Warn("Failed to release account lock", "account", account, "error", err)
		}
	}, nil
}

// stage copies videoPath into the publisher's video directory under its own base name
func (p *CLIPublisher) stage(tracker filemanagement.FileTracker, videoPath string) (string, error) {
	videosDir := p.config.VideosPath()
	if err := os.MkdirAll(videosDir, 0755); err != nil {
		return "", &StagingError{Path: videosDir, Err: err}
	}

	fileName := filepath.Base(videoPath)
	stagedPath := filepath.Join(videosDir, fileName)

	// Registered before the copy so that a partial copy is removed as well
	tracker.Register(stagedPath)

	p.logger.Info("Staging video for publisher", "from", videoPath, "to", stagedPath)
	if err := copyFile(videoPath, stagedPath); err != nil {
		return "", &StagingError{Path: stagedPath, Err: err}
	}

	info, err := os.Stat(stagedPath)
	if err != nil {
		return "", &StagingError{Path: stagedPath, Err: err}
	}
	if info.Size() == 0 {
		return "", &StagingError{Path: stagedPath, Err: errors.New("staged video is empty")}
	}

	p.logger.Info("Video staged", "path", stagedPath, "size", info.Size())
	return fileName, nil
}

func (p *CLIPublisher) invoke(ctx context.Context, account, fileName, caption string) (*Result, error) {
	name, args := p.config.Command()
	args = append(args, "upload", "--users", account, "-v", fileName, "-t", caption)

	cmd := process.Command{
		Name:    name,
		Args:    args,
		Dir:     p.config.WorkDir,
		Timeout: p.config.Timeout,
	}

	p.logger.Info("Running publisher", "account", account, "file", fileName, "dir", cmd.Dir)

	result, err := p.runner.Run(ctx, cmd)
	if err != nil {
		var exitErr *process.ExitError
		var timeoutErr *process.TimeoutError
		switch {
		case errors.As(err, &exitErr):
			p.logger.Error("Publisher failed", "account", account, "exitCode", exitErr.ExitCode,
				"stderr", exitErr.Stderr, "stdout", exitErr.Stdout)
			return nil, &PublishProcessError{
				Account:  account,
				Reason:   fmt.Sprintf("exit status %d", exitErr.ExitCode),
				ExitCode: exitErr.ExitCode,
				Stdout:   exitErr.Stdout,
				Stderr:   exitErr.Stderr,
				Err:      err,
			}
		case errors.As(err, &timeoutErr):
			p.logger.Error("Publisher timed out", "account", account, "timeout", timeoutErr.Timeout)
			return nil, &PublishProcessError{
				Account:  account,
				Reason:   fmt.Sprintf("timed out after %s", timeoutErr.Timeout),
				ExitCode: -1,
				Stdout:   timeoutErr.Stdout,
				Stderr:   timeoutErr.Stderr,
				Err:      err,
			}
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			p.logger.Warn("Publisher stopped because the request ended", "account", account, "error", err)
			return nil, &PublishProcessError{
				Account:  account,
				Reason:   "cancelled",
				ExitCode: -1,
				Stderr:   err.Error(),
				Err:      err,
			}
		default:
			p.logger.Error("Publisher could not be started", "account", account, "error", err)
			return nil, &PublishProcessError{
				Account:  account,
				Reason:   "could not start publisher",
				ExitCode: -1,
				Stderr:   err.Error(),
				Err:      err,
			}
		}
	}

	p.logger.Info("Publisher finished", "account", account, "duration", result.Duration)
	return &Result{Output: result.Stdout, Duration: result.Duration}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
