package audio

import (
	"errors"
	"fmt"
	"strings"
)

// MixError is returned when ffmpeg could not produce the mixed video.
// Stderr holds ffmpeg's diagnostics verbatim.
type MixError struct {
	Reason string
	Stderr string
	Err    error
}

func (e *MixError) Error() string {
	msg := "audio mixing failed"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *MixError) Unwrap() error {
	return e.Err
}

func NewMixError(reason, stderr string, err error) error {
	return &MixError{Reason: reason, Stderr: stderr, Err: err}
}

func IsMixError(err error) bool {
	var e *MixError
	return errors.As(err, &e)
}

// SoundNotFoundError is returned when the requested sound has no file in the sounds directory
type SoundNotFoundError struct {
	Name string
}

func (e *SoundNotFoundError) Error() string {
	return fmt.Sprintf("Sound file not found: %s", e.Name)
}

func NewSoundNotFoundError(name string) error {
	return &SoundNotFoundError{Name: name}
}

func IsSoundNotFoundError(err error) bool {
	var e *SoundNotFoundError
	return errors.As(err, &e)
}
