package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/soundpost/soundpost/server/core/ccc/logging"
	"github.com/soundpost/soundpost/server/core/ccc/process"
)

// Mixer lays an overlay sound under a video's own audio track
type Mixer interface {
	// Mix writes a new video whose audio is the gain-weighted sum of the video's
	// audio and the sound. The input video is never modified. On error no output
	// file is left behind.
	Mix(ctx context.Context, videoPath, soundPath string, profile VolumeProfile) (string, error)
}

// MixerSettings configures the ffmpeg-based mixer
type MixerSettings struct {
	FFmpegPath string
	OutputDir  string
	Timeout    time.Duration
}

// FFmpegMixer implements Mixer by running ffmpeg as a child process
type FFmpegMixer struct {
	logger   logging.Logger
	runner   process.Runner
	settings MixerSettings
}

// NewFFmpegMixer creates a new ffmpeg mixer
func NewFFmpegMixer(logger logging.Logger, runner process.Runner, settings MixerSettings) *FFmpegMixer {
	if logger == nil {
		logger = logging.NopLogger
	}
	if runner == nil {
		runner = process.NewExecRunner(logger)
	}
	if settings.FFmpegPath == "" {
		settings.FFmpegPath = "ffmpeg"
	}
	if settings.OutputDir == "" {
		settings.OutputDir = os.TempDir()
	}

	return &FFmpegMixer{
		logger:   logger,
		runner:   runner,
		settings: settings,
	}
}

// Mix implements Mixer
func (m *FFmpegMixer) Mix(ctx context.Context, videoPath, soundPath string, profile VolumeProfile) (string, error) {
	if videoPath == "" || soundPath == "" {
		return "", fmt.Errorf("video and sound paths are required")
	}

	ext := strings.ToLower(filepath.Ext(videoPath))
	if ext == "" {
		ext = ".mp4"
	}
	outputPath := filepath.Join(m.settings.OutputDir, fmt.Sprintf("mix_%s%s", uuid.NewString(), ext))

	cmd := process.Command{
		Name:    m.settings.FFmpegPath,
		Args:    BuildMixArgs(videoPath, soundPath, outputPath, profile),
		Timeout: m.settings.Timeout,
	}

	m.logger.Info("Mixing sound into video", "video", videoPath, "sound", soundPath,
		"profile", profile.Name, "videoGain", profile.VideoGain, "soundGain", profile.SoundGain)

	result, err := m.runner.Run(ctx, cmd)
	if err != nil {
		m.removePartialOutput(outputPath)

		var exitErr *process.ExitError
		var timeoutErr *process.TimeoutError
		switch {
		case errors.As(err, &exitErr):
			m.logger.Error("ffmpeg failed", "exitCode", exitErr.ExitCode, "stderr", exitErr.Stderr)
			return "", NewMixError(fmt.Sprintf("ffmpeg exited with status %d", exitErr.ExitCode), exitErr.Stderr, err)
		case errors.As(err, &timeoutErr):
			m.logger.Error("ffmpeg timed out", "timeout", timeoutErr.Timeout)
			return "", NewMixError(fmt.Sprintf("ffmpeg timed out after %s", timeoutErr.Timeout), timeoutErr.Stderr, err)
		default:
			return "", NewMixError(err.Error(), "", err)
		}
	}

	info, statErr := os.Stat(outputPath)
	if statErr != nil || info.Size() == 0 {
		m.removePartialOutput(outputPath)
		return "", NewMixError("ffmpeg produced no output", result.Stderr, statErr)
	}

	m.logger.Info("Audio mixed", "output", outputPath, "size", info.Size(), "duration", result.Duration)
	return outputPath, nil
}

func (m *FFmpegMixer) removePartialOutput(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("Failed to remove partial mix output", "path", path, "error", err)
	}
}

// BuildMixArgs returns the ffmpeg arguments that scale both audio tracks, sum them
// for the length of the video's audio, copy the video stream untouched and
// re-encode only the audio.
func BuildMixArgs(videoPath, soundPath, outputPath string, profile VolumeProfile) []string {
	filter := fmt.Sprintf("[0:a]volume=%s[a1];[1:a]volume=%s[a2];[a1][a2]amix=inputs=2:duration=first[aout]",
		formatGain(profile.VideoGain), formatGain(profile.SoundGain))

	return []string{
		"-y",
		"-i", videoPath,
		"-i", soundPath,
		"-filter_complex", filter,
		"-map", "0:v",
		"-map", "[aout]",
		"-c:v", "copy",
		"-c:a", "aac",
		outputPath,
	}
}

func formatGain(g float64) string {
	return strconv.FormatFloat(g, 'f', -1, 64)
}
