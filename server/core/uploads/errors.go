package uploads

import (
	"errors"
)

// ValidationError means a request field is missing or malformed
type ValidationError struct {
	Message string
}

// NotFoundError means a referenced asset, such as a sound file, does not exist
type NotFoundError struct {
	Message string
}

// ConfigurationError means the server or the publisher is not set up to serve the request
type ConfigurationError struct {
	Message string
	Err     error
}

// EnrichmentError means the audio mix could not be produced
type EnrichmentError struct {
	Message string
	Err     error
}

// PublishError means the publisher ran and failed. Message carries its diagnostics verbatim.
type PublishError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *EnrichmentError) Error() string {
	return e.Message
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

func (e *PublishError) Error() string {
	return e.Message
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// helper functions for error handling

func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

func NewNotFoundError(message string) error {
	return &NotFoundError{Message: message}
}

func NewConfigurationError(message string, err error) error {
	return &ConfigurationError{Message: message, Err: err}
}

func NewEnrichmentError(message string, err error) error {
	return &EnrichmentError{Message: message, Err: err}
}

func NewPublishError(message string, err error) error {
	return &PublishError{Message: message, Err: err}
}

func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsNotFoundError(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

func IsEnrichmentError(err error) bool {
	var e *EnrichmentError
	return errors.As(err, &e)
}

func IsPublishError(err error) bool {
	var e *PublishError
	return errors.As(err, &e)
}
