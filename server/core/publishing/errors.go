package publishing

import (
	"errors"
	"fmt"
	"strings"
)

// SetupError means the publisher cannot run at all for this account: the
// entrypoint or the account's session credential is missing.
type SetupError struct {
	Account string
	Reason  string
}

func (e *SetupError) Error() string {
	if e.Account == "" {
		return "publisher setup error: " + e.Reason
	}
	return fmt.Sprintf("publisher setup error for account %s: %s", e.Account, e.Reason)
}

func NewSetupError(account, reason string) error {
	return &SetupError{Account: account, Reason: reason}
}

func IsSetupError(err error) bool {
	var e *SetupError
	return errors.As(err, &e)
}

// PublishProcessError carries the publisher's captured streams verbatim.
type PublishProcessError struct {
	Account  string
	Reason   string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *PublishProcessError) Error() string {
	var b strings.Builder
	b.WriteString("publish failed")
	if e.Reason != "" {
		b.WriteString(" (")
		b.WriteString(e.Reason)
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(e.Stderr)
	b.WriteString("\nOutput: ")
	b.WriteString(e.Stdout)
	return b.String()
}

func (e *PublishProcessError) Unwrap() error {
	return e.Err
}

func IsPublishProcessError(err error) bool {
	var e *PublishProcessError
	return errors.As(err, &e)
}

// StagingError is returned when the video could not be copied into the publisher's input directory
type StagingError struct {
	Path string
	Err  error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("failed to stage video at %s: %v", e.Path, e.Err)
}

func (e *StagingError) Unwrap() error {
	return e.Err
}

func IsStagingError(err error) bool {
	var e *StagingError
	return errors.As(err, &e)
}
