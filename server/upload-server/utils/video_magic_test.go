package utils

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsVideoFile(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		ok     bool
		format string
	}{
		{"mp4 isom", []byte("\x00\x00\x00\x20ftypisom\x00\x00\x02\x00"), true, "mp4"},
		{"mp4 mp42 short box", []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00"), true, "mp4"},
		{"quicktime", []byte("\x00\x00\x00\x14ftypqt  \x20\x05\x03\x00"), true, "mov"},
		{"mp4 iso5 fragmented", []byte("\x00\x00\x00\x1cftypiso5\x00\x00\x02\x00"), true, "mp4"},
		{"mp4 iso6", []byte("\x00\x00\x00\x1cftypiso6\x00\x00\x00\x00"), true, "mp4"},
		{"mp4 mp71", []byte("\x00\x00\x00\x1cftypmp71\x00\x00\x00\x00"), true, "mp4"},
		{"3gpp", []byte("\x00\x00\x00\x14ftyp3gp4\x00\x00\x02\x00"), true, "mp4"},
		{"3gpp2", []byte("\x00\x00\x00\x14ftyp3g2a\x00\x00\x00\x00"), true, "mp4"},
		{"unknown brand", []byte("\x00\x00\x00\x20ftypheic\x00\x00\x00\x00"), false, ""},
		{"matroska", []byte("\x1a\x45\xdf\xa3\x9f\x42\x86\x81\x01\x42\xf7\x81"), false, ""},
		{"text", []byte("hello world, not a video"), false, ""},
		{"too short", []byte("ftyp"), false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, format := IsVideoFile(tt.data)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.format, format)
		})
	}
}

func TestSniffVideoRewinds(t *testing.T) {
	data := []byte("\x00\x00\x00\x20ftypisom-rest-of-file")
	r := bytes.NewReader(data)

	ok, format, err := SniffVideo(r)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "mp4", format)

	all, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, all)
}

func TestSniffVideoShortInput(t *testing.T) {
	ok, _, err := SniffVideo(bytes.NewReader([]byte("abc")))

	require.NoError(t, err)
	assert.False(t, ok)
}
