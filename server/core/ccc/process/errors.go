package process

import (
	"errors"
	"fmt"
	"time"
)

// ExitError is returned when a process ran to completion with a non-zero exit status.
type ExitError struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
}

// TimeoutError is returned when a process was cancelled because it outlived its timeout.
type TimeoutError struct {
	Command string
	Timeout time.Duration
	Stdout  string
	Stderr  string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Command, e.Timeout)
}

func NewExitError(command string, result *Result) error {
	return &ExitError{
		Command:  command,
		ExitCode: result.ExitCode,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
	}
}

func NewTimeoutError(command string, timeout time.Duration, result *Result) error {
	e := &TimeoutError{Command: command, Timeout: timeout}
	if result != nil {
		e.Stdout = result.Stdout
		e.Stderr = result.Stderr
	}
	return e
}

func IsExitError(err error) bool {
	var e *ExitError
	return errors.As(err, &e)
}

func IsTimeoutError(err error) bool {
	var e *TimeoutError
	return errors.As(err, &e)
}
