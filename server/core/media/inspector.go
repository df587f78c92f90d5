package media

import (
	"fmt"
	"strconv"
	"time"

	"github.com/soundpost/soundpost/server/core/ccc/logging"
	"github.com/xfrr/goffmpeg/transcoder"
)

// StreamInfo summarizes the streams of a media file
type StreamInfo struct {
	FormatName string
	Duration   time.Duration
	HasVideo   bool
	HasAudio   bool
	Width      int
	Height     int
}

// Inspector reports stream information for a media file on disk
type Inspector interface {
	Inspect(path string) (*StreamInfo, error)
}

// FFprobeInspector implements Inspector using goffmpeg's ffprobe integration
type FFprobeInspector struct {
	logger logging.Logger
}

// NewFFprobeInspector creates a new ffprobe-based inspector
func NewFFprobeInspector(logger logging.Logger) *FFprobeInspector {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &FFprobeInspector{
		logger: logger,
	}
}

// Inspect probes path. It never writes output; the transcoder is only initialized
// so that ffprobe fills in the metadata.
func (i *FFprobeInspector) Inspect(path string) (*StreamInfo, error) {
	trans := new(transcoder.Transcoder)
	if err := trans.Initialize(path, ""); err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w", path, err)
	}

	metadata := trans.MediaFile().Metadata()

	info := &StreamInfo{
		FormatName: metadata.Format.FormatName,
	}
	if seconds, err := strconv.ParseFloat(metadata.Format.Duration, 64); err == nil && seconds > 0 {
		info.Duration = time.Duration(seconds * float64(time.Second))
	}

	for _, stream := range metadata.Streams {
		switch stream.CodecType {
		case "video":
			if !info.HasVideo {
				info.Width = stream.Width
				info.Height = stream.Height
			}
			info.HasVideo = true
		case "audio":
			info.HasAudio = true
		}
	}

	i.logger.Debug("Probed media file", "path", path, "format", info.FormatName,
		"duration", info.Duration, "hasVideo", info.HasVideo, "hasAudio", info.HasAudio)

	return info, nil
}
