package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/soundpost/soundpost/server/core/ccc/logging"
)

// DefaultKillDelay is how long a child gets after SIGTERM before it is killed.
const DefaultKillDelay = 5 * time.Second

// Command describes a single external process invocation.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Timeout time.Duration
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner runs external processes synchronously.
type Runner interface {
	// Run starts the command and waits for it. A non-zero exit yields *ExitError,
	// an expired timeout yields *TimeoutError. Both carry the captured streams.
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	logger    logging.Logger
	killDelay time.Duration
}

// NewExecRunner creates a new os/exec based runner
func NewExecRunner(logger logging.Logger) *ExecRunner {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &ExecRunner{
		logger:    logger,
		killDelay: DefaultKillDelay,
	}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Name == "" {
		return nil, fmt.Errorf("command name cannot be empty")
	}

	runCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(runCtx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = &stdout
	c.Stderr = &stderr
	// Ask the child to stop first; WaitDelay escalates to a kill.
	c.Cancel = func() error {
		return c.Process.Signal(syscall.SIGTERM)
	}
	c.WaitDelay = r.killDelay

	r.logger.Debug("Running external command", "command", cmd.String(), "dir", cmd.Dir, "timeout", cmd.Timeout)

	start := time.Now()
	err := c.Run()
	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}

	if err == nil {
		return result, nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return result, NewTimeoutError(cmd.String(), cmd.Timeout, result)
	}
	if ctx.Err() != nil {
		return result, fmt.Errorf("%s: %w", cmd.Name, ctx.Err())
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return result, NewExitError(cmd.String(), result)
	}

	return result, fmt.Errorf("failed to run %s: %w", cmd.Name, err)
}
