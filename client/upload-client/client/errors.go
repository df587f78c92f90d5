package client

import (
	"errors"
	"fmt"
)

// UploadServerError represents an error response from the upload server
type UploadServerError struct {
	StatusCode    int
	Message       string
	IsRecoverable bool
	InnerError    error
}

func (e *UploadServerError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	case e.InnerError != nil:
		return fmt.Sprintf("request failed: %v", e.InnerError)
	}
	return "request failed"
}

func (e *UploadServerError) Unwrap() error {
	return e.InnerError
}

// NewStatusError creates an error for a non-success response. Server side
// failures are recoverable, request errors are not.
func NewStatusError(statusCode int, message string) *UploadServerError {
	return &UploadServerError{
		StatusCode:    statusCode,
		Message:       message,
		IsRecoverable: statusCode >= 500,
	}
}

// NewRecoverableUploadError creates a new recoverable UploadServerError
func NewRecoverableUploadError(inner error) *UploadServerError {
	return &UploadServerError{
		IsRecoverable: true,
		InnerError:    inner,
	}
}

// NewNonRecoverableUploadError creates a new non-recoverable UploadServerError
func NewNonRecoverableUploadError(inner error) *UploadServerError {
	return &UploadServerError{
		IsRecoverable: false,
		InnerError:    inner,
	}
}

// IsUploadServerError checks if the error is an UploadServerError
func IsUploadServerError(err error) bool {
	var e *UploadServerError
	return errors.As(err, &e)
}

// IsRecoverableUploadError returns true if retrying the same request may succeed
func IsRecoverableUploadError(err error) bool {
	var e *UploadServerError
	if errors.As(err, &e) {
		return e.IsRecoverable
	}
	return false
}
